package docparse

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/document"
)

// parseText reads the file verbatim.
func parseText(path string) (document.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("read text file: %w", err)
	}
	return document.Document{
		Type:    "text",
		Content: string(raw),
	}, nil
}

// parseCSV reads the table into a single sheet, first row as header.
func parseCSV(path string) (document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return document.Document{}, fmt.Errorf("read csv: %w", err)
	}

	sheet := document.Sheet{}
	var content strings.Builder
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
	for _, row := range rows {
		content.WriteString(strings.Join(row, " | "))
		content.WriteString("\n")
	}

	return document.Document{
		Type:    "csv",
		Content: strings.TrimSpace(content.String()),
		Sheets:  map[string]document.Sheet{"csv": sheet},
	}, nil
}

// parseJSON validates and pretty-prints the payload as content.
func parseJSON(path string) (document.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("read json: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return document.Document{}, fmt.Errorf("invalid json in %s: %w", path, err)
	}
	return document.Document{
		Type:    "json",
		Content: pretty.String(),
	}, nil
}
