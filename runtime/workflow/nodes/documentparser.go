package nodes

import (
	"context"
	"fmt"
	"regexp"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// documentExecutor parses an input file into the parsed-document JSON.
// When a predecessor uploaded a drive file, that file is downloaded
// first and parsed instead of the configured path.
type documentExecutor struct {
	parser DocumentParser
	drive  Drive
}

// driveFileID extracts the file id from .../d/<id>/... share URLs.
var driveFileID = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

func (e *documentExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.parser == nil {
		return result.Errorf("Document parser not configured")
	}
	path := req.Node.String("file_path")
	for _, url := range Uploads(req.Inputs) {
		m := driveFileID.FindStringSubmatch(url)
		if m == nil {
			// Local-path uploads are parsed in place.
			path = url
			break
		}
		if e.drive == nil {
			return result.Errorf("Drive adapter not configured")
		}
		local, err := e.drive.Download(ctx, m[1])
		if err != nil {
			return result.Errorf(fmt.Sprintf("Failed to download file from drive: %v", err))
		}
		path = local
		break
	}
	if path == "" {
		return result.Errorf("File path is required")
	}

	out, err := e.parser.Parse(ctx, path)
	if err != nil {
		return result.Errorf(fmt.Sprintf("Document parsing failed: %v", err))
	}
	return result.Document(out)
}
