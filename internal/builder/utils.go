package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/launchgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// allowedRoots are the variables argument expressions may reference.
var allowedRoots = map[string]struct{}{
	"input": {},
	"env":   {},
}

// formatTraversal converts an hcl.Traversal to a human-readable string for logging.
func formatTraversal(t hcl.Traversal) string {
	var sb strings.Builder
	for i, part := range t {
		switch p := part.(type) {
		case hcl.TraverseRoot:
			sb.WriteString(p.Name)
		case hcl.TraverseAttr:
			sb.WriteRune('.')
			sb.WriteString(p.Name)
		case hcl.TraverseIndex:
			sb.WriteRune('[')
			switch p.Key.Type() {
			case cty.String:
				sb.WriteString(fmt.Sprintf("%q", p.Key.AsString()))
			case cty.Number:
				sb.WriteString(p.Key.AsBigFloat().Text('f', -1))
			default:
				sb.WriteString("...")
			}
			sb.WriteRune(']')
		default:
			if i > 0 {
				sb.WriteRune('.')
			}
			sb.WriteString("?")
		}
	}
	return sb.String()
}

// checkReferences rejects argument expressions referring to variables other
// than input and env.
func checkReferences(n *config.Node) error {
	names := make([]string, 0, len(n.Arguments))
	for name := range n.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, traversal := range n.Arguments[name].Variables() {
			if _, ok := allowedRoots[traversal.RootName()]; ok {
				continue
			}
			return fmt.Errorf("task %q, argument %q: unknown reference %s (only input and env are available)",
				n.Name, name, formatTraversal(traversal))
		}
	}
	return nil
}
