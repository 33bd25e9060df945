package testutil

import "time"

// ExecutionRecord holds the start and end times of one task run.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether r and other ran at the same time.
func (r ExecutionRecord) Overlaps(other ExecutionRecord) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
