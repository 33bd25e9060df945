package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/launchgrid/internal/cli"
)

// syncBuffer is written by task goroutines while the test reads it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// A pipeline with a syntax error fails while the app is being built.
	invalidHCL := `
		pipeline "broken" {
			task "print" {
		// Missing closing braces here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0600))

	out := &bytes.Buffer{}
	runErr := run(context.Background(), out, []string{filePath})

	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load pipeline")
	require.Contains(t, runErr.Error(), "failed to parse HCL file")
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	pipeline := `
		pipeline "hello" {
			input = "world"
			task "greet" {
				runner = "print"
			}
		}
	`
	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(pipeline), 0600))

	out := &syncBuffer{}
	err := run(context.Background(), out, []string{"--no-color", filePath})

	require.NoError(t, err)
	require.Contains(t, out.String(), "      world")
	require.Contains(t, out.String(), "1/1 tasks done")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag makes cli.Parse return shouldExit=true.
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
