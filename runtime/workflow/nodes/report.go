package nodes

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// reportExecutor synthesises a report from the configured content plus
// every predecessor result: upload links, parsed-document summaries,
// AI responses tagged by their source node, generated image names and
// notification confirmations.
type reportExecutor struct {
	writer ReportWriter
}

const reportDocumentLimit = 2000

func (e *reportExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.writer == nil {
		return result.Errorf("Report writer not configured")
	}
	format := strings.ToLower(req.Node.StringOr("format", "pdf"))
	if format != "pdf" && format != "docx" {
		return result.Errorf(fmt.Sprintf("Unsupported report format '%s'. Use 'pdf' or 'docx'", format))
	}

	var sb strings.Builder
	sb.WriteString(req.Node.String("content"))

	if urls := Uploads(req.Inputs); len(urls) > 0 {
		sb.WriteString("\n\n## Uploaded Files\n")
		for _, u := range urls {
			sb.WriteString("- ")
			sb.WriteString(u)
			sb.WriteString("\n")
		}
	}
	for _, d := range Documents(req.Inputs) {
		sb.WriteString(fmt.Sprintf("\n\n## Document Analysis: %s\n", d.Doc.Metadata.FileName))
		sb.WriteString(result.Truncate(d.Doc.Content, reportDocumentLimit))
	}
	for _, t := range AITexts(req.Inputs) {
		sb.WriteString(fmt.Sprintf("\n\n## AI Response (%s)\n", t.NodeID))
		sb.WriteString(t.Text)
	}
	if images := Images(req.Inputs); len(images) > 0 {
		sb.WriteString("\n\n## Generated Images\n")
		for _, p := range images {
			sb.WriteString("- ")
			sb.WriteString(filepath.Base(p))
			sb.WriteString("\n")
		}
	}
	if notes := Notifications(req.Inputs); len(notes) > 0 {
		sb.WriteString("\n\n## Workflow Notifications\n")
		for _, n := range notes {
			sb.WriteString("- ")
			sb.WriteString(n.Text)
			sb.WriteString("\n")
		}
	}

	path, err := e.writer.Generate(ctx, ReportRequest{
		Title:   req.Node.StringOr("title", "AutoFlow Report"),
		Content: sb.String(),
		Format:  format,
	})
	if err != nil {
		return result.Errorf(fmt.Sprintf("Report generation failed: %v", err))
	}
	return result.Report(path)
}
