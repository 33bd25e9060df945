package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific pipeline loader.
type Loader interface {
	// Load reads the pipeline from the given files or directories, translates
	// it into the format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for format-specific data binding. It is the
// bridge between raw argument expressions and the Go types used by runners.
type Converter interface {
	// EvalContext returns the scope argument expressions are evaluated in
	// when a task runs with the given input.
	EvalContext(input any) (*hcl.EvalContext, error)

	// DecodeArguments evaluates args and stores them in the `arg`-tagged
	// fields of target, which must be a non-nil pointer to a struct.
	DecodeArguments(ctx context.Context, target any, args map[string]hcl.Expression, evalCtx *hcl.EvalContext) error

	// ToCtyValue converts a native Go value into a cty.Value.
	ToCtyValue(v any) (cty.Value, error)

	// FromCtyValue converts a cty.Value into plain Go values (string,
	// float64/int64, bool, []any, map[string]any).
	FromCtyValue(v cty.Value) (any, error)
}
