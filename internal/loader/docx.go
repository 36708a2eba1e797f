package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func loadDocx(data []byte) ([]Unit, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, parseErr("docx archive: %v", err)
	}

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, parseErr("docx body: %v", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, parseErr("docx body: %v", err)
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, parseErr("docx xml: %v", err)
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, p := range doc.Body.Paragraphs {
			var b strings.Builder
			for _, r := range p.Runs {
				for _, t := range r.Text {
					b.WriteString(t.Content)
				}
			}
			paragraphs = append(paragraphs, b.String())
		}
		text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
		if text == "" {
			return nil, nil
		}
		return []Unit{{Content: text}}, nil
	}
	return nil, parseErr("docx: word/document.xml not found")
}
