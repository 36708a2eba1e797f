package loader

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// loadSpreadsheet renders each sheet with rows on separate lines and cells
// separated by tabs. Empty sheets are skipped.
func loadSpreadsheet(name string, data []byte) ([]Unit, error) {
	var units []Unit
	err := withTempFile(name, data, func(path string) error {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return parseErr("spreadsheet: %v", err)
		}
		defer f.Close()

		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				return parseErr("sheet %q: %v", sheet, err)
			}
			lines := make([]string, 0, len(rows))
			for _, row := range rows {
				line := strings.TrimRight(strings.Join(row, "\t"), "\t")
				if line != "" {
					lines = append(lines, line)
				}
			}
			if len(lines) == 0 {
				continue
			}
			units = append(units, Unit{
				Content:  strings.Join(lines, "\n"),
				Metadata: map[string]string{MetaSheet: sheet},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}
