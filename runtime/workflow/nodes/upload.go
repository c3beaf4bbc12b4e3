package nodes

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// uploadExecutor sends a file to the configured drive. A generated
// image, report or parsed document from a predecessor takes precedence
// over the configured path.
type uploadExecutor struct {
	drive Drive
}

func (e *uploadExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.drive == nil {
		return result.Errorf("Drive adapter not configured")
	}
	path, ok := FirstArtifact(req.Inputs,
		result.ImageGenerated, result.ReportGenerated, result.DocumentParsed)
	if !ok {
		path = req.Node.String("path")
	}
	if path == "" {
		return result.Errorf("File path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return result.Errorf(fmt.Sprintf("File not found: %s", path))
	}

	name := req.Node.StringOr("name", filepath.Base(path))
	mimeType := req.Node.String("mime_type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	url, err := e.drive.Upload(ctx, path, name, mimeType)
	if err != nil {
		return result.Errorf(fmt.Sprintf("File upload failed: %v", err))
	}
	return result.Upload(url)
}
