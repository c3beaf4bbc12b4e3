package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// writePDF renders the report with a title header and one block per
// section.
func writePDF(path, title, content string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(title), "", "C", false)
	pdf.Ln(4)

	for _, s := range sections(content) {
		if s.heading != "" {
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 13)
			pdf.MultiCell(0, 7, tr(s.heading), "", "L", false)
		}
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range s.lines {
			pdf.MultiCell(0, 5.5, tr(line), "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
