package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It registers the "sleeper" runner, which sleeps and records the execution
// time of each task that uses it.
type MockSleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]ExecutionRecord
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing. Each
// finished run sends its id to completionChan when it is not nil.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		executionTimes: make(map[string]ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// SleeperArgs are the arguments of the sleeper runner.
type SleeperArgs struct {
	ID string `arg:"id,required"`
}

// Register registers the "sleeper" runner's Go handler.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	r.RegisterRunner("sleeper", &registry.RegisteredRunner{
		NewArgs: func() any { return new(SleeperArgs) },
		Fn: func(ctx context.Context, _ *loader.Task, args any, input any) (any, error) {
			id := args.(*SleeperArgs).ID

			start := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			m.mu.Lock()
			m.executionTimes[id] = ExecutionRecord{Start: start, End: time.Now()}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- id
			}
			return input, nil
		},
	})
}

// Record returns the execution record of id.
func (m *MockSleeperModule) Record(id string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.executionTimes[id]
	return rec, ok
}
