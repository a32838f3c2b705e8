package commands

import (
	"fmt"
	"strings"

	"github.com/simonhull/firebird-suite/falcon/internal/generator"
	"github.com/simonhull/firebird-suite/falcon/pkg/config"
	"github.com/simonhull/firebird-suite/falcon/pkg/fortios"
	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// schemaModules loads the configured schema document and its side tables
type schemaModules struct {
	doc    *schema.Document
	tables *schema.Tables
	gen    *generator.Generator
}

func (a *app) loadSchema(cfg *config.Config) (*schemaModules, error) {
	doc, err := schema.ReadDocument(a.fs, cfg.Schema.File)
	if err != nil {
		return nil, err
	}
	tables, err := schema.LoadTables(a.fs, cfg.Schema.SpecialAttributes, cfg.Schema.Identifiers, cfg.Schema.VersionAdded)
	if err != nil {
		return nil, err
	}
	return &schemaModules{
		doc:    doc,
		tables: tables,
		gen:    generator.New(generator.Options{BaselineVersion: cfg.Generate.BaselineVersion, Logger: a.log}),
	}, nil
}

// module builds the descriptor of the entry named name
func (s *schemaModules) module(name string) (*fortios.Module, error) {
	for _, e := range s.doc.Entries {
		if naming.ModuleName(e.Path, e.Name) == name {
			return s.gen.Module(e, s.doc.Version, s.tables)
		}
	}
	return nil, fmt.Errorf("module %s not found in schema %s", name, s.doc.Version)
}

// registry registers every entry generation would produce. Entries that
// cannot be built are logged and left out.
func (s *schemaModules) registry(cfg *config.Config, log logger.Logger) *fortios.Registry {
	reg := fortios.NewRegistry()
	for _, e := range s.doc.Entries {
		if skipped(e.Path, cfg.Generate.SkipMarkers) || !e.HasChildren() {
			continue
		}
		m, err := s.gen.Module(e, s.doc.Version, s.tables)
		if err == nil {
			err = reg.Register(m)
		}
		if err != nil {
			log.Warn("Module not served", logger.F("error", err))
		}
	}
	return reg
}

func skipped(path string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(path, m) {
			return true
		}
	}
	return false
}
