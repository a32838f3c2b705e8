package versioning

import (
	"fmt"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Support is the outcome of resolving one revision map against a target
type Support struct {
	Supported bool
	Reason    string // Empty when supported
}

// Resolve decides whether target is supported by revisions.
//
// The nearest known label at or below target decides. When that label is
// withdrawn, the reason names the label where support was withdrawn and, if
// present, the next label that reinstates it. With no earlier supported label
// the earliest known label is reported; it does not imply that label was ever
// supported.
func Resolve(revisions schema.Revisions, target string) (Support, error) {
	if len(revisions) == 0 {
		return Support{}, &SchemaError{Message: "empty revisions"}
	}

	t, err := ParseLabel(target)
	if err != nil {
		return Support{}, fmt.Errorf("target version: %w", err)
	}

	entries, err := sortedEntries(revisions)
	if err != nil {
		return Support{}, &SchemaError{Message: err.Error()}
	}

	nearest := -1
	for i, e := range entries {
		if e.label.Compare(t) <= 0 {
			nearest = i
		}
	}

	if nearest == -1 {
		return Support{
			Reason: fmt.Sprintf("not supported until in %s", entries[0].label),
		}, nil
	}
	if entries[nearest].supported {
		return Support{Supported: true}, nil
	}

	reinstated := -1
	for i := nearest + 1; i < len(entries); i++ {
		if entries[i].supported {
			reinstated = i
			break
		}
	}

	last := nearest
	for last >= 0 && !entries[last].supported {
		last--
	}
	withdrawn := 0
	if last >= 0 {
		withdrawn = last + 1
	}

	if reinstated == -1 {
		return Support{
			Reason: fmt.Sprintf("not supported since %s", entries[withdrawn].label),
		}, nil
	}
	return Support{
		Reason: fmt.Sprintf("not supported since %s, before %s", entries[withdrawn].label, entries[reinstated].label),
	}, nil
}
