package docparse

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/autoflow/autoflow/runtime/workflow/document"
)

// parsePDF extracts per-page plain text.
func parsePDF(path string) (document.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var (
		pages   []document.Page
		content strings.Builder
	)
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with unsupported encodings are skipped, not fatal.
			continue
		}
		pages = append(pages, document.Page{Number: i, Content: text})
		content.WriteString(text)
		content.WriteString("\n")
	}

	return document.Document{
		Type:    "pdf",
		Content: strings.TrimSpace(content.String()),
		Pages:   pages,
		Metadata: document.Metadata{
			PageCount: total,
		},
	}, nil
}
