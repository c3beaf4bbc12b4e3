package docparse

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/autoflow/autoflow/runtime/workflow/document"
)

// parseExcel reads every worksheet: the first row becomes the column
// header, the rest the data rows. Content is a readable flattening for
// text absorption; the structured rows live under Sheets.
func parseExcel(path string) (document.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]document.Sheet)
	var content strings.Builder
	names := f.GetSheetList()
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return document.Document{}, fmt.Errorf("read sheet %s: %w", name, err)
		}
		sheet := document.Sheet{}
		if len(rows) > 0 {
			sheet.Columns = rows[0]
			for _, row := range rows[1:] {
				data := make([]any, len(row))
				for i, cell := range row {
					data[i] = cell
				}
				sheet.Data = append(sheet.Data, data)
			}
		}
		sheet.Shape = [2]int{len(sheet.Data), len(sheet.Columns)}
		sheets[name] = sheet

		content.WriteString("Sheet: ")
		content.WriteString(name)
		content.WriteString("\n")
		for _, row := range rows {
			content.WriteString(strings.Join(row, " | "))
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	return document.Document{
		Type:    "excel",
		Content: strings.TrimSpace(content.String()),
		Sheets:  sheets,
		Metadata: document.Metadata{
			SheetCount: len(names),
		},
	}, nil
}
