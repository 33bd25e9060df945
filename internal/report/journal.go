package report

import (
	"log/slog"

	"github.com/vk/launchgrid/internal/loader"
)

// Journal writes every state change of a loader tree to a structured logger.
// Task transitions are logged at info level (failures at error level),
// combo transitions at debug level.
type Journal struct {
	logger *slog.Logger
}

// NewJournal creates a journal writing to logger.
func NewJournal(logger *slog.Logger) *Journal {
	return &Journal{logger: logger}
}

// Attach starts journaling root and its descendants.
func (j *Journal) Attach(root loader.Loader) func() {
	return watch(root, j.record, nil)
}

func (j *Journal) record(ev loader.StateEvent) {
	l := ev.Loader
	attrs := []any{"loader", l.Name(), "from", ev.OldState.String(), "to", ev.NewState.String()}

	if !isLeaf(l) {
		j.logger.Debug("Combo state changed.", attrs...)
		return
	}

	switch ev.NewState {
	case loader.Loading:
		j.logger.Info("▶️ Task started.", attrs...)
	case loader.Finished:
		j.logger.Info("✅ Task finished.", attrs...)
	case loader.Failed:
		j.logger.Error("❌ Task failed.", append(attrs, "error", l.Err())...)
	case loader.Aborted:
		j.logger.Warn("Task aborted.", attrs...)
	default:
		j.logger.Debug("Task state changed.", attrs...)
	}
}
