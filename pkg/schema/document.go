package schema

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// Document is a CMDB schema dump: the API version and one entry per endpoint
type Document struct {
	Version string
	Entries []Entry
}

// Entry is one CMDB endpoint (path + name) and its raw schema tree
type Entry struct {
	Index  int    // Position in the document's results
	Path   string // e.g. "firewall"
	Name   string // e.g. "policy"
	Schema *Map   // Raw, un-normalized schema
}

// Help returns the endpoint's help text
func (e Entry) Help() string {
	return e.Schema.String("help")
}

// MKey returns the primary key attribute of table endpoints
func (e Entry) MKey() string {
	return e.Schema.String("mkey")
}

// MKeyType returns the primary key type ("integer", "string", ...)
func (e Entry) MKeyType() string {
	return e.Schema.String("mkey_type")
}

// HasChildren reports whether the schema declares structural children.
// Entries without children are placeholders that cannot be generated.
func (e Entry) HasChildren() bool {
	return e.Schema.Has("children")
}

// ParseDocument decodes a schema document of the form {version, results: [...]}
func ParseDocument(data []byte) (*Document, error) {
	raw, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	top, ok := raw.(*Map)
	if !ok {
		return nil, fmt.Errorf("schema document must be an object, got %T", raw)
	}

	doc := &Document{Version: top.String("version")}
	if doc.Version == "" {
		return nil, fmt.Errorf("schema document has no version")
	}

	results, _ := top.Get("results")
	list, ok := results.([]any)
	if !ok {
		return nil, fmt.Errorf("schema document results must be a list, got %T", results)
	}

	for i, item := range list {
		m, ok := item.(*Map)
		if !ok {
			return nil, fmt.Errorf("result %d must be an object, got %T", i, item)
		}
		entry := Entry{Index: i, Path: m.String("path"), Name: m.String("name")}
		if entry.Path == "" || entry.Name == "" {
			return nil, fmt.Errorf("result %d is missing path or name", i)
		}
		s, _ := m.Get("schema")
		entry.Schema, _ = s.(*Map)
		if entry.Schema == nil {
			entry.Schema = NewMap()
		}
		doc.Entries = append(doc.Entries, entry)
	}

	return doc, nil
}

// ReadDocument reads and parses a schema document file
func ReadDocument(fsys afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return doc, nil
}

// Tables holds the generator's side inputs
type Tables struct {
	// SpecialAttributes maps a module key (path_name) to attribute paths that
	// need non-default handling.
	SpecialAttributes map[string][][]string
	// Identifiers maps raw attribute spellings that are not valid identifiers
	// to their replacement.
	Identifiers map[string]string
	// VersionAdded maps a module name (fortios_path_name) to the release that
	// introduced it.
	VersionAdded map[string]string
}

// LoadTables reads the side input files. An empty path yields an empty table.
func LoadTables(fsys afero.Fs, specialPath, identifiersPath, versionAddedPath string) (*Tables, error) {
	t := &Tables{
		SpecialAttributes: map[string][][]string{},
		Identifiers:       map[string]string{},
		VersionAdded:      map[string]string{},
	}

	if err := readJSONFile(fsys, specialPath, &t.SpecialAttributes); err != nil {
		return nil, fmt.Errorf("loading special attributes: %w", err)
	}
	if err := readJSONFile(fsys, identifiersPath, &t.Identifiers); err != nil {
		return nil, fmt.Errorf("loading identifier table: %w", err)
	}
	if err := readJSONFile(fsys, versionAddedPath, &t.VersionAdded); err != nil {
		return nil, fmt.Errorf("loading version-added table: %w", err)
	}

	return t, nil
}

func readJSONFile(fsys afero.Fs, path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
