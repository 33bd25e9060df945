package integrationtests

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
	"github.com/vk/launchgrid/internal/report"
	"github.com/vk/launchgrid/internal/testutil"
)

const waitBudget = 2 * time.Second

// echoModule registers the "echo" runner: it records its message and
// returns it as the task output.
type echoModule struct {
	mu       sync.Mutex
	messages []string
}

type echoArgs struct {
	Message string `arg:"message,required"`
}

func (m *echoModule) Register(r *registry.Registry) {
	r.RegisterRunner("echo", &registry.RegisteredRunner{
		NewArgs: func() any { return new(echoArgs) },
		Fn: func(_ context.Context, _ *loader.Task, args any, _ any) (any, error) {
			msg := args.(*echoArgs).Message
			m.mu.Lock()
			m.messages = append(m.messages, msg)
			m.mu.Unlock()
			return msg, nil
		},
	})
}

func (m *echoModule) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

// taskStates maps the visible tasks of a finished run to their states.
func taskStates(s report.Snapshot) map[string]string {
	out := make(map[string]string, len(s.Tasks))
	for _, task := range s.Tasks {
		out[task.Name] = task.State
	}
	return out
}

// requireOutput waits until the combined output contains want. Listener
// output for the last transition can land after Run returned.
func requireOutput(t *testing.T, result *testutil.HarnessResult, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(result.LogOutput(), want)
	}, waitBudget, time.Millisecond, "output never contained %q:\n%s", want, result.LogOutput())
}
