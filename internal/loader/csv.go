package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// loadCSV renders each data row as "header: value" lines.
func loadCSV(data []byte) ([]Unit, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, parseErr("csv header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var units []Unit
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErr("csv row %d: %v", row, err)
		}

		var b strings.Builder
		for i, value := range record {
			if i > 0 {
				b.WriteByte('\n')
			}
			key := "column" + strconv.Itoa(i+1)
			if i < len(header) && header[i] != "" {
				key = header[i]
			}
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(strings.TrimSpace(value))
		}
		units = append(units, Unit{
			Content:  b.String(),
			Metadata: map[string]string{MetaRow: strconv.Itoa(row)},
		})
	}
	return units, nil
}
