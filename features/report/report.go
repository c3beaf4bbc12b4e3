// Package report renders workflow reports as PDF (gofpdf) or DOCX
// (minimal OOXML writer). Content is markdown-ish: "## " lines become
// section headings, everything else body text.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Writer implements nodes.ReportWriter.
type Writer struct {
	dir string
}

// Options configures New.
type Options struct {
	// Dir is the output directory. Defaults to generated_reports.
	Dir string
}

// New builds a writer and ensures the output directory exists.
func New(opts Options) (*Writer, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "generated_reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Generate implements nodes.ReportWriter.
func (w *Writer) Generate(_ context.Context, req nodes.ReportRequest) (string, error) {
	name := fmt.Sprintf("report_%s.%s", uuid.NewString()[:8], req.Format)
	path := filepath.Join(w.dir, name)
	switch req.Format {
	case "pdf":
		if err := writePDF(path, req.Title, req.Content); err != nil {
			return "", err
		}
	case "docx":
		if err := writeDOCX(path, req.Title, req.Content); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported format %q", req.Format)
	}
	return path, nil
}

// section splits content into heading/body blocks.
type section struct {
	heading string
	lines   []string
}

func sections(content string) []section {
	var (
		out []section
		cur section
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			out = append(out, cur)
			cur = section{heading: strings.TrimPrefix(line, "## ")}
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	out = append(out, cur)
	return out
}
