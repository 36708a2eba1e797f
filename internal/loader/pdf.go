package loader

import (
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

func loadPDF(name string, data []byte) ([]Unit, error) {
	var units []Unit
	err := withTempFile(name, data, func(path string) (err error) {
		// The pdf reader panics on some malformed cross-reference tables.
		defer func() {
			if r := recover(); r != nil {
				err = parseErr("pdf: %v", r)
			}
		}()

		f, r, err := pdf.Open(path)
		if err != nil {
			return parseErr("pdf: %v", err)
		}
		defer f.Close()

		for i := 1; i <= r.NumPage(); i++ {
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				return parseErr("pdf page %d: %v", i, err)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			units = append(units, Unit{
				Content:  text,
				Metadata: map[string]string{MetaPage: strconv.Itoa(i)},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}
