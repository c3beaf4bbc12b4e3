package nodes

import (
	"context"
	"fmt"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// sheetsExecutor appends rows to a Google Sheets spreadsheet. A parsed
// spreadsheet predecessor replaces the configured values with its first
// sheet's header row plus data rows.
type sheetsExecutor struct {
	writer SheetsWriter
}

func (e *sheetsExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.writer == nil {
		return result.Errorf("Google Sheets adapter not configured")
	}
	spreadsheetID := req.Node.String("spreadsheet_id")
	if spreadsheetID == "" {
		return result.Errorf("Spreadsheet ID is required")
	}

	values := configValues(req.Node.Config["values"])
	for _, d := range Documents(req.Inputs) {
		_, sheet, ok := d.Doc.FirstSheet()
		if !ok {
			continue
		}
		values = nil
		header := make([]any, len(sheet.Columns))
		for i, c := range sheet.Columns {
			header[i] = c
		}
		values = append(values, header)
		values = append(values, sheet.Data...)
		break
	}
	if len(values) == 0 {
		return result.Errorf("No values to write")
	}

	n, err := e.writer.Append(ctx, spreadsheetID, req.Node.StringOr("range", "Sheet1!A1"), values)
	if err != nil {
		return result.Errorf(fmt.Sprintf("Google Sheets write failed: %v", err))
	}
	return result.Notify(fmt.Sprintf("%d cells updated.", n))
}

// configValues converts the JSON-decoded 2-D values array.
func configValues(v any) [][]any {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	var out [][]any
	for _, r := range rows {
		if row, ok := r.([]any); ok {
			out = append(out, row)
		}
	}
	return out
}
