// Package transfer provides the transfer runner, which downloads a URL to a
// file or uploads a file to a (pre-signed) URL while reporting byte progress.
package transfer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Args defines the arguments for the runner.
type Args struct {
	// Action is "download" or "upload".
	Action string `arg:"action,required"`
	URL    string `arg:"url,required"`
	Path   string `arg:"path,required"`
}

func (m *Module) run(ctx context.Context, t *loader.Task, args any, _ any) (any, error) {
	a := args.(*Args)
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}

	switch strings.ToLower(a.Action) {
	case "download":
		return download(ctx, client, t, a)
	case "upload":
		return upload(ctx, client, t, a)
	default:
		return nil, fmt.Errorf("unknown transfer action: '%s'", a.Action)
	}
}

func download(ctx context.Context, client *http.Client, t *loader.Task, a *Args) (any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "download", "url", a.URL, "path", a.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute download request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return nil, err
	}
	// Write next to the target and rename, so an aborted download never
	// leaves a truncated file behind under the final name.
	tmp, err := os.CreateTemp(filepath.Dir(a.Path), "."+filepath.Base(a.Path)+".*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	logger.Debug("Downloading file.", "size", resp.ContentLength)
	n, err := io.Copy(tmp, &progressReader{r: resp.Body, total: resp.ContentLength, task: t})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write '%s': %w", a.Path, err)
	}
	if err := os.Rename(tmp.Name(), a.Path); err != nil {
		return nil, err
	}

	logger.Debug("Download complete.", "bytes", n)
	return map[string]any{"path": a.Path, "bytes": n}, nil
}

func upload(ctx context.Context, client *http.Client, t *loader.Task, a *Args) (any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload", "url", a.URL, "path", a.Path)

	file, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file '%s': %w", a.Path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", a.Path, err)
	}

	body := &progressReader{r: file, total: stat.Size(), task: t}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(a.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Debug("Uploading file.", "size", stat.Size(), "content_type", contentType)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed with status: %s", resp.Status)
	}
	logger.Debug("Upload complete.", "status", resp.Status)
	return map[string]any{"path": a.Path, "bytes": stat.Size(), "status": resp.Status}, nil
}

// progressReader reports the share of total bytes read to the task. An
// unknown total (-1) reports nothing.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	task  *loader.Task
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		p.task.SetProgress(float64(p.read) / float64(p.total))
	}
	return n, err
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("transfer", &registry.RegisteredRunner{
		NewArgs: func() any { return new(Args) },
		Fn:      m.run,
	})
}
