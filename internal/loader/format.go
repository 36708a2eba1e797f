package loader

import (
	"path/filepath"
	"strings"
)

// Format identifies which adapter reads an uploaded file.
type Format int

const (
	FormatUnsupported Format = iota
	FormatText
	FormatPDF
	FormatCSV
	FormatSpreadsheet
	FormatDocx
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatPDF:
		return "pdf"
	case FormatCSV:
		return "csv"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatDocx:
		return "docx"
	default:
		return "unsupported"
	}
}

// SupportedExtensions lists the extensions with a dedicated adapter, in the
// order upload forms should offer them.
var SupportedExtensions = []string{".txt", ".pdf", ".csv", ".xlsx", ".docx"}

// FormatFor maps a file name to its Format by extension, case-insensitively.
// Names without a recognised extension are read as plain text.
func FormatFor(name string) Format {
	if strings.TrimSpace(name) == "" {
		return FormatUnsupported
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatSpreadsheet
	case ".docx":
		return FormatDocx
	case ".xls", ".doc":
		// Legacy binary office formats.
		return FormatUnsupported
	default:
		return FormatText
	}
}
