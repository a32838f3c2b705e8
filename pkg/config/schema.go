package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes falcon.yml for editors and CI validation
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		ExpandedStruct: true,
	}

	s := r.Reflect(&Config{})
	s.Title = "falcon configuration"
	s.Description = "Configuration for the FortiOS module generator (falcon.yml)."

	return json.MarshalIndent(s, "", "  ")
}
