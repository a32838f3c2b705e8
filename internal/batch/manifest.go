package batch

import (
	"encoding/json"
	"time"
)

// ManifestFile is the run manifest, relative to the version directory
const ManifestFile = "manifest.json"

// Manifest records what a generation run produced
type Manifest struct {
	RunID         string           `json:"run_id"`
	SchemaVersion string           `json:"schema_version"`
	GeneratedAt   time.Time        `json:"generated_at"`
	Modules       []ManifestModule `json:"modules"`
}

// ManifestModule lists the files written for one module and the identifier
// rewrites it needed
type ManifestModule struct {
	Module      string            `json:"module"`
	Files       []string          `json:"files"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
}

func (m *Manifest) encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
