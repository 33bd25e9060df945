package hcl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/vk/launchgrid/internal/fsutil"
)

// FileExtension is the extension pipeline files are discovered by.
const FileExtension = ".hcl"

// ErrNoPipeline is returned when none of the loaded files defines a pipeline.
var ErrNoPipeline = errors.New("no pipeline block found")

// Loader is the HCL implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and translates the single
// pipeline block they define into the format-agnostic model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, FileExtension)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover pipeline files: %w", err)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	converter := NewConverter()
	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		content, diags := hclFile.Body.Content(fileSchema)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range content.Blocks {
			if model.Pipeline != nil {
				return nil, nil, fmt.Errorf("%s: duplicate pipeline %q, %q is already defined at %s",
					source(block), block.Labels[0], model.Pipeline.Name, model.Pipeline.Source)
			}
			p, err := l.translatePipeline(converter, block)
			if err != nil {
				return nil, nil, err
			}
			model.Pipeline = p
		}
	}

	if model.Pipeline == nil {
		return nil, nil, fmt.Errorf("loading %v: %w", paths, ErrNoPipeline)
	}

	var tasks, combos int
	_ = config.Walk(model.Pipeline.Steps, func(n *config.Node) error {
		if n.Kind == config.ComboNode {
			combos++
		} else {
			tasks++
		}
		return nil
	})
	logger.Debug("HCL loading complete.", "pipeline", model.Pipeline.Name, "tasks", tasks, "combos", combos)
	return model, converter, nil
}

func (l *Loader) translatePipeline(c *Converter, block *hcl.Block) (*config.Pipeline, error) {
	content, diags := block.Body.Content(pipelineSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("in pipeline %q: %w", block.Labels[0], diags)
	}

	p := &config.Pipeline{Name: block.Labels[0], Source: source(block)}

	if attr, ok := content.Attributes["input"]; ok {
		evalCtx, err := c.EvalContext(nil)
		if err != nil {
			return nil, err
		}
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("in pipeline %q, attribute 'input': %w", p.Name, diags)
		}
		p.Input = val
	}
	if attr, ok := content.Attributes["timeout"]; ok {
		d, err := decodeDuration(attr)
		if err != nil {
			return nil, fmt.Errorf("in pipeline %q: %w", p.Name, err)
		}
		p.Timeout = d
	}

	steps, err := l.translateSteps(content.Blocks)
	if err != nil {
		return nil, fmt.Errorf("in pipeline %q: %w", p.Name, err)
	}
	p.Steps = steps
	return p, nil
}

func (l *Loader) translateSteps(blocks hcl.Blocks) ([]*config.Node, error) {
	nodes := make([]*config.Node, 0, len(blocks))
	seen := make(map[string]string, len(blocks))

	for _, block := range blocks {
		name := block.Labels[0]
		if at, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s: duplicate step name %q, first defined at %s", source(block), name, at)
		}
		seen[name] = source(block)

		var (
			n   *config.Node
			err error
		)
		if block.Type == "combo" {
			n, err = l.translateCombo(block)
		} else {
			n, err = l.translateTask(block)
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (l *Loader) translateTask(block *hcl.Block) (*config.Node, error) {
	content, diags := block.Body.Content(taskSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("in task %q: %w", block.Labels[0], diags)
	}

	n := newNode(config.TaskNode, block)
	if diags := gohcl.DecodeExpression(content.Attributes["runner"].Expr, nil, &n.Runner); diags.HasErrors() {
		return nil, fmt.Errorf("in task %q, attribute 'runner': %w", n.Name, diags)
	}
	if err := decodeCommon(n, content.Attributes); err != nil {
		return nil, fmt.Errorf("in task %q: %w", n.Name, err)
	}
	if attr, ok := content.Attributes["reload_window"]; ok {
		d, err := decodeDuration(attr)
		if err != nil {
			return nil, fmt.Errorf("in task %q: %w", n.Name, err)
		}
		n.ReloadWindow = d
	}

	n.Arguments = make(map[string]hcl.Expression)
	for _, args := range content.Blocks {
		attrs, diags := args.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("in task %q, block 'arguments': %w", n.Name, diags)
		}
		for name, attr := range attrs {
			if _, dup := n.Arguments[name]; dup {
				return nil, fmt.Errorf("in task %q: argument %q is defined more than once", n.Name, name)
			}
			n.Arguments[name] = attr.Expr
		}
	}
	return n, nil
}

func (l *Loader) translateCombo(block *hcl.Block) (*config.Node, error) {
	content, diags := block.Body.Content(comboSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("in combo %q: %w", block.Labels[0], diags)
	}

	n := newNode(config.ComboNode, block)
	if err := decodeCommon(n, content.Attributes); err != nil {
		return nil, fmt.Errorf("in combo %q: %w", n.Name, err)
	}
	children, err := l.translateSteps(content.Blocks)
	if err != nil {
		return nil, fmt.Errorf("in combo %q: %w", n.Name, err)
	}
	n.Children = children
	return n, nil
}

func newNode(kind config.NodeKind, block *hcl.Block) *config.Node {
	return &config.Node{
		Kind:   kind,
		Name:   block.Labels[0],
		Weight: 1,
		Block:  true,
		Show:   true,
		Source: source(block),
	}
}

// decodeCommon reads the attributes shared by tasks and combos.
func decodeCommon(n *config.Node, attrs hcl.Attributes) error {
	if attr, ok := attrs["weight"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &n.Weight); diags.HasErrors() {
			return fmt.Errorf("attribute 'weight': %w", diags)
		}
		if n.Weight <= 0 {
			return fmt.Errorf("%s: weight must be positive, got %g", attr.Range.String(), n.Weight)
		}
	}
	if attr, ok := attrs["block"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &n.Block); diags.HasErrors() {
			return fmt.Errorf("attribute 'block': %w", diags)
		}
	}
	if attr, ok := attrs["show"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &n.Show); diags.HasErrors() {
			return fmt.Errorf("attribute 'show': %w", diags)
		}
	}
	return nil
}

func decodeDuration(attr *hcl.Attribute) (time.Duration, error) {
	var raw string
	if diags := gohcl.DecodeExpression(attr.Expr, nil, &raw); diags.HasErrors() {
		return 0, fmt.Errorf("attribute '%s': %w", attr.Name, diags)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: attribute '%s': %w", attr.Range.String(), attr.Name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: attribute '%s' must not be negative", attr.Range.String(), attr.Name)
	}
	return d, nil
}

func source(block *hcl.Block) string {
	return fmt.Sprintf("%s:%d", block.DefRange.Filename, block.DefRange.Start.Line)
}
