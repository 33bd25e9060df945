package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
	"github.com/vk/launchgrid/internal/loader"
)

var stateStyles = map[loader.State]color.Style{
	loader.Loading:  color.New(color.FgCyan),
	loader.Finished: color.New(color.FgGreen),
	loader.Failed:   color.New(color.FgRed, color.OpBold),
	loader.Aborted:  color.New(color.FgYellow),
}

var stateSymbols = map[loader.State]string{
	loader.Waiting:  "·",
	loader.Loading:  "▶",
	loader.Finished: "✔",
	loader.Failed:   "✖",
	loader.Aborted:  "■",
}

// Console prints one line per state change of every visible task.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
}

// NewConsole creates a console printer. With noColor, lines are written
// without escape codes.
func NewConsole(out io.Writer, noColor bool) *Console {
	return &Console{out: out, noColor: noColor}
}

// Attach starts printing the tasks of root.
func (c *Console) Attach(root loader.Loader) func() {
	return watch(root, c.print, nil)
}

func (c *Console) print(ev loader.StateEvent) {
	l := ev.Loader
	if !isLeaf(l) || !l.Show() || ev.NewState == loader.Waiting {
		return
	}

	line := fmt.Sprintf("%s %-9s %s", stateSymbols[ev.NewState], ev.NewState.Label(), l.Name())
	if ev.NewState == loader.Failed && l.Err() != nil {
		line += ": " + l.Err().Error()
	}
	if style, ok := stateStyles[ev.NewState]; ok && !c.noColor {
		line = style.Sprint(line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Summary prints the final tally of the visible tasks of root.
func (c *Console) Summary(root *loader.Combo) {
	counts := make(map[loader.State]int)
	tasks := root.LoaderList(true)
	for _, l := range tasks {
		counts[l.State()]++
	}

	line := fmt.Sprintf("%d/%d tasks done", counts[loader.Finished], len(tasks))
	if n := counts[loader.Failed]; n > 0 {
		line += fmt.Sprintf(", %d failed", n)
	}
	if n := counts[loader.Aborted]; n > 0 {
		line += fmt.Sprintf(", %d cancelled", n)
	}
	if !c.noColor {
		line = stateStyles[root.State()].Sprint(line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}
