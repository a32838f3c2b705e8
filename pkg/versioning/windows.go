package versioning

import (
	"strings"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Window is a contiguous run of known labels with support. To is the last
// supported label of the run, or empty when the run reaches the newest label.
type Window struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

// String renders the window as "v6.0.0-v6.2.0" or "v6.4.0-"
func (w Window) String() string {
	return w.From + "-" + w.To
}

// Windows computes the support windows of a revision map in label order.
// An attribute supported at every known label yields a single open window.
func Windows(revisions schema.Revisions) ([]Window, error) {
	if len(revisions) == 0 {
		return nil, &SchemaError{Message: "empty revisions"}
	}
	entries, err := sortedEntries(revisions)
	if err != nil {
		return nil, &SchemaError{Message: err.Error()}
	}

	var windows []Window
	open := false
	for i, e := range entries {
		switch {
		case e.supported && !open:
			windows = append(windows, Window{From: e.label.String()})
			open = true
		case !e.supported && open:
			windows[len(windows)-1].To = entries[i-1].label.String()
			open = false
		}
	}
	return windows, nil
}

// FormatWindows renders windows as "[v6.0.0-v6.2.0, v6.4.0-]"
func FormatWindows(windows []Window) string {
	parts := make([]string, len(windows))
	for i, w := range windows {
		parts[i] = w.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
