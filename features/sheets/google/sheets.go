// Package google adapts Google Sheets appends to the executor sheets
// seam.
package google

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer implements nodes.SheetsWriter against the Sheets v4 API.
type Writer struct {
	service *sheets.Service
}

// Options configures New.
type Options struct {
	CredentialsFile string
}

// New builds the Sheets adapter.
func New(ctx context.Context, opts Options) (*Writer, error) {
	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Writer{service: service}, nil
}

// Append implements nodes.SheetsWriter and reports the number of cells
// written.
func (w *Writer) Append(ctx context.Context, spreadsheetID, readRange string, values [][]any) (int, error) {
	resp, err := w.service.Spreadsheets.Values.
		Append(spreadsheetID, readRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets append: %w", err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return int(resp.Updates.UpdatedCells), nil
}
