// Package loader converts uploaded files into plain-text units.
package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when no adapter can read a file.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrParse is returned when a file's contents are malformed for its format.
	ErrParse = errors.New("failed to parse document")
)

// Metadata keys attached to units.
const (
	MetaSource = "source"
	MetaPage   = "page"
	MetaRow    = "row"
	MetaSheet  = "sheet"
)

// Unit is one piece of loaded text: a page, a row, a sheet or a whole file.
type Unit struct {
	Content  string
	Metadata map[string]string
}

// Load reads data as the format implied by name.
func Load(name string, data []byte) ([]Unit, error) {
	format := FormatFor(name)

	var (
		units []Unit
		err   error
	)
	switch format {
	case FormatText:
		units = loadText(data)
	case FormatPDF:
		units, err = loadPDF(name, data)
	case FormatCSV:
		units, err = loadCSV(data)
	case FormatSpreadsheet:
		units, err = loadSpreadsheet(name, data)
	case FormatDocx:
		units, err = loadDocx(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s as %s: %w", name, format, err)
	}

	for i := range units {
		if units[i].Metadata == nil {
			units[i].Metadata = make(map[string]string)
		}
		units[i].Metadata[MetaSource] = name
	}
	return units, nil
}

// Text returns the contents of all units joined by sep.
func Text(units []Unit, sep string) string {
	var n int
	for _, u := range units {
		n += len(u.Content) + len(sep)
	}
	buf := make([]byte, 0, n)
	for i, u := range units {
		if i > 0 {
			buf = append(buf, sep...)
		}
		buf = append(buf, u.Content...)
	}
	return string(buf)
}

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}
