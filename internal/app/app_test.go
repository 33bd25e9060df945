package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/launchgrid/internal/hcl"
	"github.com/vk/launchgrid/internal/registry"
	"github.com/vk/launchgrid/internal/report"
	"github.com/vk/launchgrid/modules/sleep"
)

type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func writePipeline(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(src), 0o644))
	return dir
}

func newTestApp(t *testing.T, src string, cfg Config, modules ...registry.Module) (*App, *safeBuffer) {
	t.Helper()
	cfg.PipelinePath = writePipeline(t, src)
	cfg.LogLevel = "debug"
	cfg.NoColor = true
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &safeBuffer{}
	a, err := NewApp(out, appConfig, hcl.NewLoader(), modules...)
	require.NoError(t, err)
	return a, out
}

const sleepPipeline = `
pipeline "nap" {
	task "short" {
		runner = "sleep"
		arguments {
			duration = "%s"
		}
	}
}
`

func TestNewApp_UsesCoreModules(t *testing.T) {
	a, _ := newTestApp(t, `pipeline "p" {}`, Config{})

	assert.Equal(t, []string{"env_vars", "http_request", "print", "sleep", "socketio", "transfer"}, a.Registry().Names())
	assert.Equal(t, "p", a.Root().Name())
}

func TestNewApp_LoadError(t *testing.T) {
	cfg, err := NewConfig(Config{PipelinePath: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)

	_, err = NewApp(io.Discard, cfg, hcl.NewLoader())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load pipeline")
}

func TestNewApp_InputPrecedence(t *testing.T) {
	src := `pipeline "p" { input = { version = "1.0" } }`

	declared, _ := newTestApp(t, src, Config{})
	assert.Equal(t, map[string]any{"version": "1.0"}, declared.input)

	override, _ := newTestApp(t, src, Config{Input: "2.0"})
	assert.Equal(t, "2.0", override.input)
}

func TestApp_Timeout(t *testing.T) {
	a, _ := newTestApp(t, `pipeline "p" { timeout = "1m" }`, Config{})
	assert.Equal(t, time.Minute, a.timeout())

	b, _ := newTestApp(t, `pipeline "p" { timeout = "1m" }`, Config{Timeout: time.Second})
	assert.Equal(t, time.Second, b.timeout())
}

func TestApp_Run(t *testing.T) {
	a, out := newTestApp(t, fmt.Sprintf(sleepPipeline, "5ms"), Config{}, &sleep.Module{})

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, "finished", a.Snapshot().State)
	logs := out.String()
	assert.Contains(t, logs, "🚀 Starting pipeline...")
	assert.Contains(t, logs, "🏁 Pipeline finished.")
	assert.Contains(t, logs, "1/1 tasks done")
}

func TestApp_Run_ForceRestart(t *testing.T) {
	a, _ := newTestApp(t, fmt.Sprintf(sleepPipeline, "5ms"), Config{ForceRestart: true}, &sleep.Module{})

	require.NoError(t, a.Run(context.Background()))

	task := a.Root().LoaderList(false)[0]
	assert.True(t, task.IsForceRestarting())
}

func TestApp_StatusHandlers(t *testing.T) {
	a, _ := newTestApp(t, fmt.Sprintf(sleepPipeline, "5ms"), Config{}, &sleep.Module{})
	srv := httptest.NewServer(a.statusMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap report.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "nap", snap.Pipeline)
	assert.Equal(t, "waiting", snap.State)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "short", snap.Tasks[0].Name)

	resp, err = http.Post(srv.URL+"/status", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApp_Run_ServesStatusWhileRunning(t *testing.T) {
	port := freePort(t)
	a, out := newTestApp(t, fmt.Sprintf(sleepPipeline, "500ms"), Config{StatusPort: port}, &sleep.Module{})

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/status", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var snap report.Snapshot
		if json.NewDecoder(resp.Body).Decode(&snap) != nil {
			return false
		}
		return snap.State == "loading"
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Contains(t, out.String(), "🩺 Shutting down status server...")

	_, err := http.Get(url)
	assert.Error(t, err, "the status server stops with the run")
}
