package report

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// writeDOCX emits a minimal OOXML wordprocessing container: content
// types, the package relationship and a document part with one
// paragraph per line. Styling is limited to bold headings, which is all
// the report needs.
func writeDOCX(path, title, content string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create docx: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"_rels/.rels":         relsXML,
		"word/document.xml":   documentXML(title, content),
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create docx part %s: %w", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			return fmt.Errorf("write docx part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize docx: %w", err)
	}
	return nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func documentXML(title, content string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	sb.WriteString(paragraph(title, true))
	for _, s := range sections(content) {
		if s.heading != "" {
			sb.WriteString(paragraph(s.heading, true))
		}
		for _, line := range s.lines {
			sb.WriteString(paragraph(line, false))
		}
	}
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}

func paragraph(text string, bold bool) string {
	var esc strings.Builder
	xml.EscapeText(&esc, []byte(text))
	props := ""
	if bold {
		props = `<w:rPr><w:b/></w:rPr>`
	}
	return `<w:p><w:r>` + props + `<w:t xml:space="preserve">` + esc.String() + `</w:t></w:r></w:p>`
}
