// Package socketio provides the socketio runner: connect to a socket.io
// server, optionally emit an event and wait for a response event.
package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
	"github.com/vk/launchgrid/internal/sio"
	"github.com/zishang520/engine.io/v2/types"
)

// DefaultTimeout bounds the whole exchange when Args.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the socketio runner.
type Args struct {
	URL                string        `arg:"url,required"`
	Namespace          string        `arg:"namespace"`
	OnEvent            string        `arg:"on_event,required"`
	EmitEvent          string        `arg:"emit_event"`
	EmitData           any           `arg:"emit_data"`
	Timeout            time.Duration `arg:"timeout"`
	InsecureSkipVerify bool          `arg:"insecure_skip_verify"`
}

// run returns the first argument of the response event (nil when the event
// carries none).
func run(ctx context.Context, t *loader.Task, args any, _ any) (any, error) {
	a := args.(*Args)
	logger := ctxlog.FromContext(ctx).With("url", a.URL, "on_event", a.OnEvent, "emit_event", a.EmitEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	io, err := sio.Dial(opCtx, sio.Options{
		URL:                a.URL,
		Namespace:          a.Namespace,
		InsecureSkipVerify: a.InsecureSkipVerify,
		ConnectTimeout:     timeout,
	})
	if err != nil {
		return nil, err
	}
	defer io.Disconnect()
	t.SetProgress(0.5)

	response := make(chan any, 1)
	io.Once(types.EventName(a.OnEvent), func(data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		select {
		case response <- payload:
		default:
		}
	})

	if a.EmitEvent != "" {
		if logger.Enabled(ctx, slog.LevelDebug) {
			jsonData, _ := json.Marshal(a.EmitData)
			logger.Debug("Emitting event", "event", a.EmitEvent, "data", string(jsonData))
		}
		if err := io.Emit(a.EmitEvent, a.EmitData); err != nil {
			return nil, fmt.Errorf("failed to emit event '%s': %w", a.EmitEvent, err)
		}
	}

	select {
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("timed out after %s waiting for event '%s'", timeout, a.OnEvent)
	case payload := <-response:
		logger.Debug("Received response event.")
		t.SetProgress(1)
		return payload, nil
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("socketio", &registry.RegisteredRunner{
		NewArgs: func() any { return new(Args) },
		Fn:      run,
	})
}
