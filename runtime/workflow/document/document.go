// Package document defines the JSON shape written by the document
// parsers and consumed by absorbing executors.
package document

import (
	"encoding/json"
	"fmt"
	"os"
)

type (
	// Document is the parsed representation of an input file. Content is
	// the flattened text; Pages and Sheets are format-specific extras.
	Document struct {
		Type     string           `json:"type"`
		Content  string           `json:"content"`
		Metadata Metadata         `json:"metadata"`
		Pages    []Page           `json:"pages,omitempty"`
		Sheets   map[string]Sheet `json:"sheets,omitempty"`
	}

	// Metadata describes the source file.
	Metadata struct {
		FileName       string `json:"file_name"`
		FileSize       int64  `json:"file_size,omitempty"`
		CharacterCount int    `json:"character_count"`
		PageCount      int    `json:"page_count,omitempty"`
		SheetCount     int    `json:"sheet_count,omitempty"`
	}

	// Page is one page of a paginated format (PDF).
	Page struct {
		Number  int    `json:"page_number"`
		Content string `json:"content"`
	}

	// Sheet is one worksheet of a spreadsheet: a header row plus data
	// rows, with Shape holding [rows, columns].
	Sheet struct {
		Columns []string `json:"columns"`
		Data    [][]any  `json:"data"`
		Shape   [2]int   `json:"shape"`
	}
)

// Load reads a parsed-document JSON from disk.
func Load(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read parsed document: %w", err)
	}
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return Document{}, fmt.Errorf("decode parsed document %s: %w", path, err)
	}
	return d, nil
}

// Save writes the document JSON to path.
func (d Document) Save(path string) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode parsed document: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write parsed document: %w", err)
	}
	return nil
}

// FirstSheet returns the sheet listed under the lowest name ordering
// position, which for single-sheet workbooks is the only sheet.
func (d Document) FirstSheet() (string, Sheet, bool) {
	var (
		bestName string
		best     Sheet
		found    bool
	)
	for name, s := range d.Sheets {
		if !found || name < bestName {
			bestName, best, found = name, s, true
		}
	}
	return bestName, best, found
}
