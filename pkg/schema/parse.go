package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks an inconsistent schema document. Errors raised while
// parsing or walking a schema wrap it so callers can use errors.Is.
var ErrMalformed = errors.New("malformed schema")

// ParseError describes a malformed schema node and where it was found
type ParseError struct {
	Path    string // Dotted attribute path (e.g., "srcintf.name")
	Message string
}

// Error returns a formatted error message
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed schema: %s", e.Message)
	}
	return fmt.Sprintf("malformed schema at %s: %s", e.Path, e.Message)
}

// Unwrap allows errors.Is(err, ErrMalformed)
func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

func malformed(path []string, format string, args ...any) error {
	return &ParseError{Path: strings.Join(path, "."), Message: fmt.Sprintf(format, args...)}
}

// Parse builds a typed node from a normalized raw tree
func Parse(raw any) (Node, error) {
	return parseNode(raw, nil, false)
}

// ParseRoot builds the node for a whole schema entry. Entry roots often omit
// "type"; a root with children is treated as a dict.
func ParseRoot(raw any) (Node, error) {
	return parseNode(raw, nil, true)
}

func parseNode(raw any, path []string, root bool) (Node, error) {
	m, ok := raw.(*Map)
	if !ok {
		return nil, malformed(path, "expected an object, got %T", raw)
	}

	revisions, err := parseRevisions(m, path)
	if err != nil {
		return nil, err
	}
	b := base{revisions: revisions, help: m.String("help")}

	typ := m.String("type")
	if typ == "" && root {
		typ = "dict"
	}

	switch typ {
	case "dict":
		children, err := parseChildren(m, path)
		if err != nil {
			return nil, err
		}
		return &Dict{base: b, Children: children}, nil
	case "list":
		if m.Has("children") {
			if m.Has("options") {
				return nil, malformed(path, "list declares both children and options")
			}
			children, err := parseChildren(m, path)
			if err != nil {
				return nil, err
			}
			return &ListOfRecords{base: b, Children: children}, nil
		}
		options, err := parseOptions(m, path)
		if err != nil {
			return nil, err
		}
		return &ListOfScalars{base: b, Options: options}, nil
	case "integer":
		options, err := parseOptions(m, path)
		if err != nil {
			return nil, err
		}
		return &Integer{base: b, Options: options}, nil
	case "string":
		options, err := parseOptions(m, path)
		if err != nil {
			return nil, err
		}
		return &String{base: b, Options: options}, nil
	case "":
		return nil, malformed(path, "missing type")
	default:
		return nil, malformed(path, "unknown type %q", typ)
	}
}

func parseRevisions(m *Map, path []string) (Revisions, error) {
	raw, ok := m.Get("revisions")
	if !ok {
		return nil, malformed(path, "missing revisions")
	}
	rm, ok := raw.(*Map)
	if !ok {
		return nil, malformed(path, "revisions must be an object, got %T", raw)
	}

	revisions := make(Revisions, rm.Len())
	for _, label := range rm.Keys() {
		v, _ := rm.Get(label)
		flag, ok := v.(bool)
		if !ok {
			return nil, malformed(path, "revision %s must be a boolean, got %T", label, v)
		}
		revisions[label] = flag
	}
	return revisions, nil
}

func parseChildren(m *Map, path []string) (Children, error) {
	var children Children

	raw, ok := m.Get("children")
	if !ok {
		return children, nil
	}
	cm, ok := raw.(*Map)
	if !ok {
		return children, malformed(path, "children must be an object, got %T", raw)
	}

	for _, name := range cm.Keys() {
		v, _ := cm.Get(name)
		childPath := append(append([]string(nil), path...), name)
		child, err := parseNode(v, childPath, false)
		if err != nil {
			return children, err
		}
		children.add(name, child)
	}
	return children, nil
}

func parseOptions(m *Map, path []string) ([]Option, error) {
	raw, ok := m.Get("options")
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, malformed(path, "options must be a list, got %T", raw)
	}

	options := make([]Option, 0, len(list))
	for i, item := range list {
		om, ok := item.(*Map)
		if !ok {
			return nil, malformed(path, "option %d must be an object, got %T", i, item)
		}
		value, ok := om.Get("value")
		if !ok {
			return nil, malformed(path, "option %d has no value", i)
		}
		optPath := append(append([]string(nil), path...), fmt.Sprintf("[%v]", value))
		revisions, err := parseRevisions(om, optPath)
		if err != nil {
			return nil, err
		}
		options = append(options, Option{
			Value:     value,
			Revisions: revisions,
			Help:      om.String("help"),
		})
	}
	return options, nil
}
