package docparse

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/document"
)

// parseDOCX reads word/document.xml from the OOXML container and
// flattens the paragraph text. No third-party DOCX reader covers plain
// text extraction better than walking the XML directly.
func parseDOCX(path string) (document.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return document.Document{}, fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return document.Document{}, errors.New("docx container has no word/document.xml")
	}
	defer docXML.Close()

	content, err := flattenDocXML(docXML)
	if err != nil {
		return document.Document{}, fmt.Errorf("decode document.xml: %w", err)
	}
	return document.Document{
		Type:    "docx",
		Content: content,
	}, nil
}

// flattenDocXML collects text runs, inserting newlines at paragraph
// ends and tabs for tab marks.
func flattenDocXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
