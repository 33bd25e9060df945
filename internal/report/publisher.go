package report

import (
	"context"
	"log/slog"

	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/sio"
)

// Event names emitted by the Publisher.
const (
	StateEventName    = "loader:state"
	ProgressEventName = "loader:progress"
)

// Emitter is the subset of a socket.io client the Publisher needs.
type Emitter interface {
	Emit(ev string, args ...any) error
}

// Publisher forwards loader events to a socket.io dashboard.
type Publisher struct {
	emitter Emitter
	logger  *slog.Logger
}

// NewPublisher creates a publisher emitting on e.
func NewPublisher(e Emitter, logger *slog.Logger) *Publisher {
	return &Publisher{emitter: e, logger: logger}
}

// DialPublisher connects to the dashboard at url. The returned function
// disconnects it.
func DialPublisher(ctx context.Context, url string, logger *slog.Logger) (*Publisher, func(), error) {
	io, err := sio.Dial(ctx, sio.Options{URL: url})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("📡 Connected to dashboard.", "url", url, "sid", io.Id())
	return NewPublisher(io, logger), func() { io.Disconnect() }, nil
}

// Attach starts publishing the events of root and its descendants.
func (p *Publisher) Attach(root loader.Loader) func() {
	return watch(root, p.publishState, p.publishProgress)
}

func (p *Publisher) publishState(ev loader.StateEvent) {
	l := ev.Loader
	payload := map[string]any{
		"id":       l.ID().String(),
		"name":     l.Name(),
		"task":     isLeaf(l),
		"from":     ev.OldState.String(),
		"to":       ev.NewState.String(),
		"label":    ev.NewState.Label(),
		"ui_state": loader.UIStateOf(ev.NewState).String(),
	}
	if err := l.Err(); err != nil && ev.NewState == loader.Failed {
		payload["error"] = err.Error()
	}
	p.emit(StateEventName, payload)
}

func (p *Publisher) publishProgress(ev loader.ProgressEvent) {
	p.emit(ProgressEventName, map[string]any{
		"id":       ev.Loader.ID().String(),
		"name":     ev.Loader.Name(),
		"progress": ev.NewProgress,
	})
}

func (p *Publisher) emit(name string, payload map[string]any) {
	if err := p.emitter.Emit(name, payload); err != nil {
		p.logger.Debug("Failed to publish loader event.", "event", name, "error", err)
	}
}
