// Package docparse converts input files into the parsed-document JSON
// consumed by absorbing executors. Supported formats: PDF, DOCX, XLSX,
// CSV, JSON and plain text.
package docparse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/autoflow/autoflow/runtime/workflow/document"
)

// Parser implements nodes.DocumentParser.
type Parser struct {
	dir string
}

// Options configures New.
type Options struct {
	// Dir is where parsed JSON files are written. Defaults to
	// parsed_documents.
	Dir string
}

// New builds a parser and ensures the output directory exists.
func New(opts Options) (*Parser, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "parsed_documents"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create parsed-documents directory: %w", err)
	}
	return &Parser{dir: dir}, nil
}

// Parse implements nodes.DocumentParser: it parses path by extension,
// writes the document JSON and returns the JSON path.
func (p *Parser) Parse(_ context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("file not found: %s", path)
	}

	var doc document.Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		doc, err = parsePDF(path)
	case ".docx":
		doc, err = parseDOCX(path)
	case ".doc":
		return "", fmt.Errorf("legacy .doc files are not supported, convert %s to .docx first", filepath.Base(path))
	case ".xlsx", ".xlsm":
		doc, err = parseExcel(path)
	case ".xls":
		return "", fmt.Errorf("legacy .xls files are not supported, convert %s to .xlsx first", filepath.Base(path))
	case ".csv":
		doc, err = parseCSV(path)
	case ".json":
		doc, err = parseJSON(path)
	case ".txt", ".md", ".log":
		doc, err = parseText(path)
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return "", err
	}

	doc.Metadata.FileName = filepath.Base(path)
	doc.Metadata.FileSize = info.Size()
	doc.Metadata.CharacterCount = len(doc.Content)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(p.dir, fmt.Sprintf("parsed_%s_%s.json", base, uuid.NewString()[:8]))
	if err := doc.Save(out); err != nil {
		return "", err
	}
	return out, nil
}
