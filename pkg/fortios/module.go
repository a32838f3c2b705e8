package fortios

import (
	"fmt"
	"sync"

	"github.com/simonhull/firebird-suite/falcon/pkg/modulespec"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
	"github.com/simonhull/firebird-suite/falcon/pkg/versioning"
)

// Module describes one generated CMDB endpoint module
type Module struct {
	Name      string // fortios_firewall_policy
	Path      string // Raw CMDB path, e.g. "firewall"
	Endpoint  string // Raw CMDB name, e.g. "policy"
	Parameter string // Top-level request key, e.g. "firewall_policy"
	MKey      string // Primary key attribute; empty for singleton endpoints

	Documentation string
	Examples      string
	Return        string

	// Schema is the normalized versioned schema as YAML, help text stripped
	Schema string

	// Multilists are comma-separated attribute paths whose list values are
	// sent as a single space-separated string
	Multilists []string

	// Identifiers maps valid attribute names back to their raw spelling
	Identifiers map[string]string

	once sync.Once
	root schema.Node
	err  error
}

// Root parses the embedded schema on first use
func (m *Module) Root() (schema.Node, error) {
	m.once.Do(func() {
		raw, err := schema.DecodeYAML([]byte(m.Schema))
		if err != nil {
			m.err = fmt.Errorf("module %s: %w", m.Name, err)
			return
		}
		m.root, m.err = schema.ParseRoot(raw)
		if m.err != nil {
			m.err = fmt.Errorf("module %s: %w", m.Name, m.err)
		}
	})
	return m.root, m.err
}

// Spec builds the argument specification for the module parameter
func (m *Module) Spec() (*modulespec.Spec, error) {
	root, err := m.Root()
	if err != nil {
		return nil, err
	}
	return modulespec.Build(root)
}

// Check reports which parts of params are unsupported at the target firmware
// version. params is the value of the module parameter, not the whole request.
// Keys may use raw CMDB spellings ("mode-x", "3g-modem").
func (m *Module) Check(params any, target string) (*versioning.Result, error) {
	root, err := m.Root()
	if err != nil {
		return nil, err
	}
	return versioning.Validate(m.Name, root, m.NormalizeParams(params), target)
}

// NormalizeParams rewrites params keys to the attribute names of the embedded
// schema: hyphens to underscores, then raw identifiers to their valid form.
func (m *Module) NormalizeParams(params any) any {
	table := make(naming.Table, len(m.Identifiers))
	for valid, raw := range m.Identifiers {
		table[raw] = valid
	}
	return naming.NormalizeKeys(params, table)
}
