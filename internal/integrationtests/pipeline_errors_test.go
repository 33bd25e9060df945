package integrationtests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/launchgrid/internal/loader"
	"github.com/vk/launchgrid/internal/registry"
	"github.com/vk/launchgrid/internal/testutil"
)

func noop(context.Context, *loader.Task, any, any) (any, error) { return nil, nil }

func TestPipeline_StartupErrors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		hcl     string
		modules []registry.Module
		wantErr string
	}{
		{
			name: "unknown runner",
			hcl: `pipeline "p" {
				task "t" {
					runner = "nope"
				}
			}`,
			modules: []registry.Module{&echoModule{}},
			wantErr: "unknown runner 'nope'",
		},
		{
			name: "missing required argument",
			hcl: `pipeline "p" {
				task "t" {
					runner = "echo"
				}
			}`,
			modules: []registry.Module{&echoModule{}},
			wantErr: "missing required argument 'message' for runner 'echo'",
		},
		{
			name: "unknown argument",
			hcl: `pipeline "p" {
				task "t" {
					runner = "echo"
					arguments {
						message = "hi"
						color   = "red"
					}
				}
			}`,
			modules: []registry.Module{&echoModule{}},
			wantErr: "runner 'echo' has no argument 'color'",
		},
		{
			name: "unknown reference",
			hcl: `pipeline "p" {
				task "t" {
					runner = "echo"
					arguments {
						message = var.name
					}
				}
			}`,
			modules: []registry.Module{&echoModule{}},
			wantErr: "unknown reference var.name",
		},
		{
			name:    "no pipeline",
			hcl:     `# nothing here`,
			modules: []registry.Module{&echoModule{}},
			wantErr: "no pipeline block found",
		},
		{
			name: "duplicate runner registration",
			hcl:  `pipeline "p" {}`,
			modules: []registry.Module{
				&testutil.SimpleModule{RunnerName: "twice", Runner: &registry.RegisteredRunner{Fn: noop}},
				&testutil.SimpleModule{RunnerName: "twice", Runner: &registry.RegisteredRunner{Fn: noop}},
			},
			wantErr: "application startup panicked",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": tc.hcl}, tc.modules...)

			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.wantErr)
			assert.Nil(t, result.App)
		})
	}
}

func TestPipeline_ArgumentErrorsSurfaceAtRunTime(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"main.hcl": `
			pipeline "p" {
				task "t" {
					runner = "echo"
					arguments {
						message = input.missing
					}
				}
			}
		`,
	}

	result := testutil.RunIntegrationTest(t, files, &echoModule{})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), `task "t"`)
	assert.Equal(t, "failed", result.App.Snapshot().State)
}

func TestPipeline_EmptyPipelineIsANoop(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": `pipeline "empty" {}`}, &echoModule{})

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput(), "No tasks found in pipeline")
}
