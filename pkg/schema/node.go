package schema

// Kind identifies a schema node variant
type Kind int

const (
	KindDict Kind = iota
	KindListOfRecords
	KindListOfScalars
	KindInteger
	KindString
)

// String returns the schema "type" spelling of the kind
func (k Kind) String() string {
	switch k {
	case KindDict:
		return "dict"
	case KindListOfRecords, KindListOfScalars:
		return "list"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Revisions maps a firmware version label to whether the attribute is
// supported at that revision
type Revisions map[string]bool

// Node is one attribute definition in the schema tree.
//
// The set of variants is closed: *Dict, *ListOfRecords, *ListOfScalars,
// *Integer and *String. Unknown schema types are rejected by Parse.
type Node interface {
	Kind() Kind
	Revisions() Revisions
	Help() string
	sealed()
}

type base struct {
	revisions Revisions
	help      string
}

func (b base) Revisions() Revisions { return b.revisions }
func (b base) Help() string         { return b.help }
func (base) sealed()                {}

// Children holds child attributes in schema order
type Children struct {
	names []string
	nodes map[string]Node
}

// Names returns the child attribute names in schema order
func (c Children) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// Lookup returns the child schema for name
func (c Children) Lookup(name string) (Node, bool) {
	n, ok := c.nodes[name]
	return n, ok
}

// Len returns the number of children
func (c Children) Len() int { return len(c.names) }

func (c *Children) add(name string, n Node) {
	if c.nodes == nil {
		c.nodes = make(map[string]Node)
	}
	if _, ok := c.nodes[name]; !ok {
		c.names = append(c.names, name)
	}
	c.nodes[name] = n
}

// Option is one enumerated value, gated by its own revisions
type Option struct {
	Value     any
	Revisions Revisions
	Help      string
}

// Dict is a structured attribute with named children
type Dict struct {
	base
	Children Children
}

// ListOfRecords is a table attribute; each element is a record of Children
type ListOfRecords struct {
	base
	Children Children
}

// ListOfScalars is a multi-value attribute drawn from Options
type ListOfScalars struct {
	base
	Options []Option
}

// Integer is a numeric leaf, optionally enumerated
type Integer struct {
	base
	Options []Option
}

// String is a text leaf, optionally enumerated
type String struct {
	base
	Options []Option
}

func (*Dict) Kind() Kind          { return KindDict }
func (*ListOfRecords) Kind() Kind { return KindListOfRecords }
func (*ListOfScalars) Kind() Kind { return KindListOfScalars }
func (*Integer) Kind() Kind       { return KindInteger }
func (*String) Kind() Kind        { return KindString }

// ChildrenOf returns the children of container nodes
func ChildrenOf(n Node) (Children, bool) {
	switch t := n.(type) {
	case *Dict:
		return t.Children, true
	case *ListOfRecords:
		return t.Children, true
	default:
		return Children{}, false
	}
}

// OptionsOf returns the enumerated options of leaf and list-of-scalar nodes
func OptionsOf(n Node) []Option {
	switch t := n.(type) {
	case *ListOfScalars:
		return t.Options
	case *Integer:
		return t.Options
	case *String:
		return t.Options
	default:
		return nil
	}
}
