package hcl

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Converter is the HCL implementation of the config.Converter interface.
type Converter struct {
	environ func() []string
}

// NewConverter creates a new HCL converter reading the process environment.
func NewConverter() *Converter {
	return &Converter{environ: os.Environ}
}

// EvalContext exposes input as `input`, the environment as `env` and a small
// set of string and collection functions.
func (c *Converter) EvalContext(input any) (*hcl.EvalContext, error) {
	in := cty.NullVal(cty.DynamicPseudoType)
	if input != nil {
		v, err := c.ToCtyValue(input)
		if err != nil {
			return nil, fmt.Errorf("cannot expose input to expressions: %w", err)
		}
		in = v
	}

	env := make(map[string]cty.Value)
	for _, kv := range c.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"input": in,
			"env":   cty.ObjectVal(env),
		},
		Functions: functions,
	}, nil
}

// DecodeArguments evaluates args and binds them to the `arg`-tagged fields of
// target. Arguments without a matching field and missing required arguments
// are errors.
func (c *Converter) DecodeArguments(ctx context.Context, target any, args map[string]hcl.Expression, evalCtx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting argument decoding.", "count", len(args))

	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct, got %T", target)
	}
	structVal := ptr.Elem()

	fields := config.ArgumentFields(structVal.Type())
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
	}
	var unknown []string
	for name := range args {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unsupported argument(s): %s", strings.Join(unknown, ", "))
	}

	for _, f := range fields {
		expr, ok := args[f.Name]
		if !ok {
			if f.Required {
				return fmt.Errorf("missing required argument %q", f.Name)
			}
			continue
		}

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("argument %q: %w", f.Name, diags)
		}
		if val.IsNull() && f.Required {
			return fmt.Errorf("required argument %q must not be null", f.Name)
		}
		if err := c.decode(ctx, val, structVal.Field(f.Index).Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode argument %q: %w", f.Name, err)
		}
	}

	logger.Debug("Argument decoding finished.")
	return nil
}

// ToCtyValue converts a native Go value into a cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	return nativeToCty(v)
}

// FromCtyValue converts a cty.Value into plain Go values.
func (c *Converter) FromCtyValue(v cty.Value) (any, error) {
	return ctyToNative(v)
}
