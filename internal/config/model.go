package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a pipeline file set.
type Model struct {
	Pipeline *Pipeline
}

// Pipeline is the root of the loader tree.
type Pipeline struct {
	Name string
	// Input is handed to the first step. It is cty.NilVal when not set.
	Input cty.Value
	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration
	Steps   []*Node
	// Source is a human-readable location of the definition, e.g. "main.hcl:1".
	Source string
}

// NodeKind distinguishes task definitions from combo definitions.
type NodeKind int

const (
	// TaskNode runs one runner.
	TaskNode NodeKind = iota
	// ComboNode groups nested nodes.
	ComboNode
)

func (k NodeKind) String() string {
	if k == ComboNode {
		return "combo"
	}
	return "task"
}

// Node is the format-agnostic representation of a `task` or `combo` block.
type Node struct {
	Kind NodeKind
	Name string

	// Runner and Arguments are only set for tasks.
	Runner    string
	Arguments map[string]hcl.Expression
	// ReloadWindow only applies to tasks. Zero keeps a finished task's
	// output until its input changes.
	ReloadWindow time.Duration

	Weight float64
	Block  bool
	Show   bool

	// Children is only set for combos, in declaration order.
	Children []*Node
	Source   string
}

// Walk calls fn for every node in the subtree rooted at each of nodes,
// parents before children.
func Walk(nodes []*Node, fn func(*Node) error) error {
	for _, n := range nodes {
		if err := fn(n); err != nil {
			return err
		}
		if err := Walk(n.Children, fn); err != nil {
			return err
		}
	}
	return nil
}
