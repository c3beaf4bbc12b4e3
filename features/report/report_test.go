package report_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoflow/autoflow/features/report"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

func TestGeneratePDF(t *testing.T) {
	dir := t.TempDir()
	w, err := report.New(report.Options{Dir: dir})
	require.NoError(t, err)

	path, err := w.Generate(context.Background(), nodes.ReportRequest{
		Title:   "Weekly Digest",
		Content: "Intro.\n\n## Document Analysis: input.pdf\nparsed body\n\n## AI Response (a)\nmodel output",
		Format:  "pdf",
	})
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.True(t, strings.HasPrefix(filepath.Base(path), "report_"))
	require.True(t, strings.HasSuffix(path, ".pdf"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "%PDF-"))
}

func TestGenerateDOCXIsValidContainer(t *testing.T) {
	w, err := report.New(report.Options{Dir: t.TempDir()})
	require.NoError(t, err)

	path, err := w.Generate(context.Background(), nodes.ReportRequest{
		Title:   "T",
		Content: "## Heading\nbody",
		Format:  "docx",
	})
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.Contains(t, names, "word/document.xml")
	require.Contains(t, names, "[Content_Types].xml")
	require.Contains(t, names, "_rels/.rels")
}

func TestGenerateUnsupportedFormat(t *testing.T) {
	w, err := report.New(report.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	_, err = w.Generate(context.Background(), nodes.ReportRequest{Title: "T", Format: "odt"})
	require.Error(t, err)
}

func TestGeneratedNamesAreUnique(t *testing.T) {
	w, err := report.New(report.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	a, err := w.Generate(context.Background(), nodes.ReportRequest{Title: "T", Content: "x", Format: "pdf"})
	require.NoError(t, err)
	b, err := w.Generate(context.Background(), nodes.ReportRequest{Title: "T", Content: "x", Format: "pdf"})
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
