// Package google adapts Google Drive uploads and downloads to the
// executor drive seam.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Drive implements nodes.Drive against the Drive v3 API.
type Drive struct {
	service     *drive.Service
	downloadDir string
}

// Options configures New. CredentialsFile points at a service account
// JSON; when empty the client library's default credential chain
// applies.
type Options struct {
	CredentialsFile string
	// DownloadDir is the root for downloaded files, defaulting to
	// downloads. Files land in a per-day subdirectory.
	DownloadDir string
}

// New builds the Drive adapter.
func New(ctx context.Context, opts Options) (*Drive, error) {
	clientOpts := []option.ClientOption{option.WithScopes(drive.DriveFileScope)}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	dir := opts.DownloadDir
	if dir == "" {
		dir = "downloads"
	}
	return &Drive{service: service, downloadDir: dir}, nil
}

// Upload implements nodes.Drive. The returned URL is the file's web
// view link.
func (d *Drive) Upload(ctx context.Context, localPath, name, mimeType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	created, err := d.service.Files.Create(&drive.File{Name: name}).
		Media(f, googleapi.ContentType(mimeType)).
		Fields("id", "webViewLink").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}
	if created.WebViewLink != "" {
		return created.WebViewLink, nil
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id), nil
}

// Download implements nodes.Drive, fetching the file into the per-day
// download directory and returning the local path.
func (d *Drive) Download(ctx context.Context, fileID string) (string, error) {
	meta, err := d.service.Files.Get(fileID).Fields("name").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive metadata: %w", err)
	}
	if meta.Name == "" {
		return "", errors.New("drive file has no name")
	}
	resp, err := d.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("drive download: %w", err)
	}
	defer resp.Body.Close()

	dir := filepath.Join(d.downloadDir, time.Now().UTC().Format("20060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(meta.Name))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("write download: %w", err)
	}
	return path, nil
}
