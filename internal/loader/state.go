package loader

// State is the lifecycle state of a loader.
type State int32

const (
	// Waiting is the initial state. A loader also returns here when its parent
	// resets it before a restart.
	Waiting State = iota
	// Loading indicates the loader's work is in flight.
	Loading
	// Finished indicates the loader completed successfully.
	Finished
	// Failed indicates the loader's work returned an error.
	Failed
	// Aborted indicates the loader was cancelled before it could finish.
	Aborted
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Loading:
		return "loading"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Label returns a human-readable label suitable for status displays.
func (s State) Label() string {
	switch s {
	case Waiting:
		return "Waiting"
	case Loading:
		return "Loading"
	case Finished:
		return "Done"
	case Failed:
		return "Failed"
	case Aborted:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s ends a run.
func (s State) IsTerminal() bool {
	return s == Finished || s == Failed || s == Aborted
}

// UIState is the coarse state a status display shows for a loader.
type UIState int32

const (
	Stop UIState = iota
	Run
	Error
)

func (u UIState) String() string {
	switch u {
	case Run:
		return "run"
	case Error:
		return "error"
	default:
		return "stop"
	}
}

// UIStateOf maps a lifecycle state to its display state.
func UIStateOf(s State) UIState {
	switch s {
	case Loading:
		return Run
	case Failed:
		return Error
	default:
		return Stop
	}
}

const (
	// ProgressFloor is what a loader reports while Loading before any
	// explicit progress value was set.
	ProgressFloor = 0.02

	// progressUnset marks that no progress has been reported for the current run.
	progressUnset = -1.0
)

// effectiveProgress applies the state rules to a raw reported value.
func effectiveProgress(s State, raw float64) float64 {
	switch s {
	case Waiting:
		return 0
	case Loading:
		if raw < 0 {
			return ProgressFloor
		}
		return raw
	default:
		return 1
	}
}
