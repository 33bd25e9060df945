package sleep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/launchgrid/internal/loader"
)

func newSleepTask(args *Args) *loader.Task {
	return loader.NewTask("sleep", func(ctx context.Context, t *loader.Task, input any) (any, error) {
		return run(ctx, t, args, input)
	})
}

func TestSleep_ReportsProgress(t *testing.T) {
	task := newSleepTask(&Args{Duration: 20 * time.Millisecond, Steps: 4})

	var mu sync.Mutex
	var seen []float64
	task.OnProgressChange(func(ev loader.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.NewProgress)
	})

	require.NoError(t, task.WaitForExit(context.Background(), "payload", 2*time.Second))

	assert.Equal(t, "payload", task.Output())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 4
	}, 2*time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, seen)
}

func TestSleep_StopsWhenAborted(t *testing.T) {
	task := newSleepTask(&Args{Duration: time.Hour})

	task.Start(nil, false)
	task.Abort()

	assert.Equal(t, loader.Aborted, task.State())
}

func TestSleep_Fail(t *testing.T) {
	task := newSleepTask(&Args{Duration: time.Millisecond, Steps: 1, Fail: "disk full"})

	err := task.WaitForExit(context.Background(), nil, 2*time.Second)

	assert.EqualError(t, err, "disk full")
}
