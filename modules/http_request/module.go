// Package http_request provides the http_request runner, the network client
// of a pipeline. Retries are delegated to the HTTP client library.
package http_request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
	"resty.dev/v3"
)

// DefaultTimeout applies when Args.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the runner.
type Args struct {
	URL     string            `arg:"url,required"`
	Method  string            `arg:"method"`
	Headers map[string]string `arg:"headers"`
	Body    any               `arg:"body"`
	Retries int               `arg:"retries"`
	Timeout time.Duration     `arg:"timeout"`
	// ExpectStatus fails the task on any other status code. Zero accepts
	// every 2xx status.
	ExpectStatus int `arg:"expect_status"`
}

// Output keys: status_code, headers, body and, for JSON responses, json.
func run(ctx context.Context, t *loader.Task, args any, _ any) (any, error) {
	a := args.(*Args)
	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodGet
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := ctxlog.FromContext(ctx).With("method", method, "url", a.URL)
	logger.Debug("Making HTTP request.", "retries", a.Retries)

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(a.Retries)
	defer client.Close()

	req := client.R().SetContext(ctx).SetHeaders(a.Headers)
	if a.Body != nil {
		req.SetBody(a.Body)
	}
	t.SetProgress(0.1)

	resp, err := req.Execute(method, a.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, a.URL, err)
	}
	logger.Debug("Received HTTP response.", "status", resp.StatusCode())

	if err := checkStatus(resp.StatusCode(), a.ExpectStatus); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, a.URL, err)
	}

	headers := make(map[string]any, len(resp.Header()))
	for k := range resp.Header() {
		headers[k] = resp.Header().Get(k)
	}
	out := map[string]any{
		"status_code": resp.StatusCode(),
		"headers":     headers,
		"body":        resp.String(),
	}
	if strings.Contains(resp.Header().Get("Content-Type"), "json") {
		var decoded any
		if err := json.Unmarshal([]byte(resp.String()), &decoded); err != nil {
			return nil, fmt.Errorf("%s %s: invalid JSON response: %w", method, a.URL, err)
		}
		out["json"] = decoded
	}
	t.SetProgress(1)
	return out, nil
}

func checkStatus(got, want int) error {
	if want != 0 {
		if got != want {
			return fmt.Errorf("unexpected status %d, want %d", got, want)
		}
		return nil
	}
	if got < 200 || got > 299 {
		return fmt.Errorf("unexpected status %d", got)
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("http_request", &registry.RegisteredRunner{
		NewArgs: func() any { return new(Args) },
		Fn:      run,
	})
}
