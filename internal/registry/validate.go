package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var durationType = reflect.TypeOf(time.Duration(0))

// ValidateModel checks every task of the pipeline against the registered
// runners: the runner must exist, every argument must map to a field of the
// runner's argument struct, required fields must be set, and literal values
// must be convertible to the field type.
func (r *Registry) ValidateModel(ctx context.Context, m *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	if m == nil || m.Pipeline == nil {
		return fmt.Errorf("registry validation failed: no pipeline")
	}

	var errs []string
	var checked int
	_ = config.Walk(m.Pipeline.Steps, func(n *config.Node) error {
		if n.Kind != config.TaskNode {
			return nil
		}
		checked++
		errs = append(errs, r.validateTask(ctx, n)...)
		return nil
	})

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Pipeline validated against registry.", "tasks", checked)
	return nil
}

func (r *Registry) validateTask(ctx context.Context, n *config.Node) []string {
	handler, ok := r.runners[n.Runner]
	if !ok {
		return []string{fmt.Sprintf("task '%s' (%s): unknown runner '%s'", n.Name, n.Source, n.Runner)}
	}

	if handler.NewArgs == nil {
		if len(n.Arguments) > 0 {
			return []string{fmt.Sprintf("task '%s': runner '%s' takes no arguments", n.Name, n.Runner)}
		}
		return nil
	}

	argsType := reflect.TypeOf(handler.NewArgs())
	if argsType == nil || argsType.Kind() != reflect.Ptr || argsType.Elem().Kind() != reflect.Struct {
		return []string{fmt.Sprintf("runner '%s': NewArgs must return a pointer to a struct, got %v", n.Runner, argsType)}
	}

	var errs []string
	fields := make(map[string]config.ArgumentField)
	for _, f := range config.ArgumentFields(argsType) {
		fields[f.Name] = f
	}

	names := make([]string, 0, len(n.Arguments))
	for name := range n.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, ok := fields[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': runner '%s' has no argument '%s'", n.Name, n.Runner, name))
			continue
		}
		if msg := checkLiteral(ctx, n.Arguments[name], f); msg != "" {
			errs = append(errs, fmt.Sprintf("task '%s', argument '%s': %s", n.Name, name, msg))
		}
	}

	fieldNames := make([]string, 0, len(fields))
	for name := range fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)
	for _, name := range fieldNames {
		if _, ok := n.Arguments[name]; !ok && fields[name].Required {
			errs = append(errs, fmt.Sprintf("task '%s': missing required argument '%s' for runner '%s'", n.Name, name, n.Runner))
		}
	}
	return errs
}

// checkLiteral type-checks expressions that reference no variables and call
// no functions. Everything else is only checked when the task runs.
func checkLiteral(ctx context.Context, expr hcl.Expression, f config.ArgumentField) string {
	if len(expr.Variables()) > 0 || callsFunction(expr) {
		return ""
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return diags.Error()
	}
	if val.IsNull() {
		if f.Required {
			return "required value must not be null"
		}
		return ""
	}

	if f.Type == durationType {
		var raw string
		if err := gocty.FromCtyValue(val, &raw); err != nil {
			return "expected a duration string"
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return err.Error()
		}
		return ""
	}

	switch f.Type.Kind() {
	case reflect.Interface, reflect.Struct:
		return ""
	}
	want, err := gocty.ImpliedType(reflect.Zero(f.Type).Interface())
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Argument type cannot be checked statically.", "field", f.Name, "go_type", f.Type.String())
		return ""
	}
	if want.Equals(cty.DynamicPseudoType) {
		return ""
	}
	if _, err := convert.Convert(val, want); err != nil {
		return fmt.Sprintf("type mismatch: expected %s, got %s", want.FriendlyName(), val.Type().FriendlyName())
	}
	return ""
}

func callsFunction(expr hcl.Expression) bool {
	node, ok := expr.(hclsyntax.Node)
	if !ok {
		return false
	}
	found := false
	hclsyntax.VisitAll(node, func(n hclsyntax.Node) hcl.Diagnostics {
		if _, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			found = true
		}
		return nil
	})
	return found
}
