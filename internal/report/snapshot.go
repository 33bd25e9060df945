package report

import (
	"github.com/vk/launchgrid/internal/loader"
)

// TaskStatus is the externally visible status of one task.
type TaskStatus struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Label    string  `json:"label"`
	UIState  string  `json:"ui_state"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// Snapshot is the status of a whole loader tree at one point in time.
type Snapshot struct {
	Pipeline string       `json:"pipeline"`
	State    string       `json:"state"`
	UIState  string       `json:"ui_state"`
	Progress float64      `json:"progress"`
	Error    string       `json:"error,omitempty"`
	Tasks    []TaskStatus `json:"tasks"`
}

// TakeSnapshot captures root and its visible tasks.
func TakeSnapshot(root *loader.Combo) Snapshot {
	s := Snapshot{
		Pipeline: root.Name(),
		State:    root.State().String(),
		UIState:  root.UIState().String(),
		Progress: root.Progress(),
		Error:    errString(root.Err()),
		Tasks:    []TaskStatus{},
	}
	for _, l := range root.LoaderList(true) {
		s.Tasks = append(s.Tasks, TaskStatus{
			ID:       l.ID().String(),
			Name:     l.Name(),
			State:    l.State().String(),
			Label:    l.State().Label(),
			UIState:  l.UIState().String(),
			Progress: l.Progress(),
			Error:    errString(l.Err()),
		})
	}
	return s
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
