// Package batch drives generation over a whole schema document.
package batch

import (
	"context"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/simonhull/firebird-suite/falcon/internal/generator"
	"github.com/simonhull/firebird-suite/falcon/pkg/artifact"
	"github.com/simonhull/firebird-suite/falcon/pkg/config"
	"github.com/simonhull/firebird-suite/falcon/pkg/exec"
	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// Formatter formats generated files in place
type Formatter interface {
	Enabled() bool
	Format(ctx context.Context, files []string) error
}

// Driver generates modules for every entry of a schema document
type Driver struct {
	cfg       *config.Config
	fs        afero.Fs
	gen       *generator.Generator
	log       logger.Logger
	formatter Formatter
	out       io.Writer
	runID     func() string
	now       func() time.Time
}

// Option configures a Driver
type Option func(*Driver)

// WithFs sets the filesystem inputs are read from and artifacts written to
func WithFs(fsys afero.Fs) Option {
	return func(d *Driver) { d.fs = fsys }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithFormatter replaces the configured formatter
func WithFormatter(f Formatter) Option {
	return func(d *Driver) { d.formatter = f }
}

// WithWriter sets where operations and diffs are printed
func WithWriter(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithRunID sets the run ID source
func WithRunID(fn func() string) Option {
	return func(d *Driver) { d.runID = fn }
}

// WithClock sets the manifest timestamp source
func WithClock(fn func() time.Time) Option {
	return func(d *Driver) { d.now = fn }
}

// New creates a driver for cfg
func New(cfg *config.Config, opts ...Option) *Driver {
	d := &Driver{
		cfg:   cfg,
		fs:    afero.NewOsFs(),
		log:   logger.NewSilentLogger(),
		out:   os.Stdout,
		runID: uuid.NewString,
		now:   time.Now,
		formatter: &exec.Formatter{
			Command:   cfg.Formatter.Command,
			BatchSize: cfg.Formatter.BatchSize,
			Spinner:   true,
		},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.gen = generator.New(generator.Options{
		TemplatesDir:    cfg.Output.Templates,
		BaselineVersion: cfg.Generate.BaselineVersion,
		Tests:           cfg.Generate.Tests,
		Logger:          d.log,
	})
	return d
}

// RunOptions selects what a run does
type RunOptions struct {
	DryRun bool // List operations without writing
	Check  bool // Print diffs against existing files instead of writing

	// Single generates only the entry at Index. Any error aborts the run.
	Single bool
	Index  int
}

// Summary reports what a run did
type Summary struct {
	RunID   string
	Version string
	Modules []string // Generated modules, in schema order
	Skipped []string // Entries skipped by marker or without children
	Failed  []string // Modules that failed and were skipped
	Files   []string // Files written (or that would be written)
	Removed []string // Stale untestable tests removed
	Drifted []string // Check mode: files that differ from the generated content
}

// Run generates the configured schema document
func (d *Driver) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	doc, err := schema.ReadDocument(d.fs, d.cfg.Schema.File)
	if err != nil {
		return nil, err
	}
	tables, err := schema.LoadTables(d.fs,
		d.cfg.Schema.SpecialAttributes,
		d.cfg.Schema.Identifiers,
		d.cfg.Schema.VersionAdded)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: d.runID(), Version: doc.Version}
	d.log.Info("Loaded schema",
		logger.F("version", doc.Version),
		logger.F("entries", len(doc.Entries)),
		logger.F("run_id", summary.RunID))

	entries, err := d.selectEntries(doc, opts, summary)
	if err != nil {
		return nil, err
	}

	failFast := opts.Single || d.cfg.Generate.OnMalformed == config.OnMalformedFailFast
	workers := d.cfg.Generate.Workers
	if opts.Single {
		workers = 1
	}

	results, err := d.generateAll(ctx, entries, doc.Version, tables, workers, failFast)
	if err != nil {
		return nil, err
	}

	versionDir := filepath.Join(d.cfg.Output.Dir, doc.Version)
	manifest := &Manifest{RunID: summary.RunID, SchemaVersion: doc.Version, GeneratedAt: d.now().UTC()}

	var writes []*artifact.WriteFileOp
	for _, r := range results {
		switch {
		case r.err != nil:
			summary.Failed = append(summary.Failed, r.module)
			continue
		case r.artifacts == nil:
			summary.Skipped = append(summary.Skipped, r.module)
			continue
		}

		summary.Modules = append(summary.Modules, r.artifacts.Module)
		mm := ManifestModule{Module: r.artifacts.Module, Identifiers: r.artifacts.Identifiers}
		for _, f := range r.artifacts.Files {
			if untestable(f.Path, d.cfg.Generate.Untestable) {
				d.log.Debug("Dropping untestable test", logger.F("file", f.Path))
				continue
			}
			writes = append(writes, &artifact.WriteFileOp{
				Path:    filepath.Join(versionDir, filepath.FromSlash(f.Path)),
				Content: f.Content,
			})
			mm.Files = append(mm.Files, f.Path)
		}
		manifest.Modules = append(manifest.Modules, mm)
	}

	if !opts.Single {
		if d.cfg.Generate.Selectors {
			content, err := d.gen.RenderSelectors(doc.Version, generator.Selectors(doc))
			if err != nil {
				return nil, err
			}
			writes = append(writes, &artifact.WriteFileOp{
				Path:    filepath.Join(versionDir, generator.SelectorsFile),
				Content: content,
			})
		}
		if d.cfg.Generate.Manifest && !opts.Check {
			content, err := manifest.encode()
			if err != nil {
				return nil, fmt.Errorf("encoding manifest: %w", err)
			}
			writes = append(writes, &artifact.WriteFileOp{
				Path:    filepath.Join(versionDir, ManifestFile),
				Content: content,
			})
		}
	}

	if opts.Check {
		return summary, d.check(versionDir, writes, summary)
	}
	return summary, d.write(ctx, versionDir, writes, opts.DryRun, summary)
}

// selectEntries picks the entries a run generates
func (d *Driver) selectEntries(doc *schema.Document, opts RunOptions, summary *Summary) ([]schema.Entry, error) {
	if opts.Single {
		if opts.Index < 0 || opts.Index >= len(doc.Entries) {
			return nil, fmt.Errorf("schema index %d out of range (document has %d entries)", opts.Index, len(doc.Entries))
		}
		return []schema.Entry{doc.Entries[opts.Index]}, nil
	}

	entries := make([]schema.Entry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		if marker := d.skipMarker(e.Path); marker != "" {
			d.log.Debug("Skipping entry",
				logger.F("path", e.Path),
				logger.F("name", e.Name),
				logger.F("marker", marker))
			summary.Skipped = append(summary.Skipped, naming.ModuleName(e.Path, e.Name))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (d *Driver) skipMarker(path string) string {
	for _, m := range d.cfg.Generate.SkipMarkers {
		if m != "" && strings.Contains(path, m) {
			return m
		}
	}
	return ""
}

// write commits the staged files, formats them, then applies fixups
func (d *Driver) write(ctx context.Context, versionDir string, writes []*artifact.WriteFileOp, dryRun bool, summary *Summary) error {
	staged := make(map[string]bool, len(writes))
	ops := make([]artifact.Operation, 0, len(writes))
	for _, w := range writes {
		ops = append(ops, w)
		staged[w.Path] = true
		summary.Files = append(summary.Files, w.Path)
	}

	for _, pattern := range d.cfg.Generate.Untestable {
		stale, err := artifact.Glob(d.fs, versionDir, pattern)
		if err != nil {
			return fmt.Errorf("finding untestable tests: %w", err)
		}
		for _, p := range stale {
			if staged[p] {
				continue
			}
			ops = append(ops, &artifact.RemoveFileOp{Path: p})
			summary.Removed = append(summary.Removed, p)
		}
	}

	execOpts := artifact.ExecuteOptions{DryRun: dryRun, Force: true, Writer: d.out}
	if err := artifact.Execute(ctx, d.fs, ops, execOpts); err != nil {
		return err
	}

	if !dryRun && d.formatter != nil && d.formatter.Enabled() {
		goFiles := make([]string, 0, len(summary.Files))
		for _, f := range summary.Files {
			if strings.HasSuffix(f, ".go") {
				goFiles = append(goFiles, f)
			}
		}
		d.log.Info("Formatting generated files", logger.F("files", len(goFiles)))
		if err := d.formatter.Format(ctx, goFiles); err != nil {
			return fmt.Errorf("formatter failed: %w", err)
		}
	}

	fixups := make([]artifact.Operation, 0, len(d.cfg.Fixups))
	for _, f := range d.cfg.Fixups {
		p := filepath.Join(versionDir, filepath.FromSlash(f.File))
		if !staged[p] {
			continue
		}
		fixups = append(fixups, &artifact.RewriteFileOp{Path: p, Label: fixupLabel(f), Rewrite: fixupFunc(f)})
	}
	if len(fixups) == 0 {
		return nil
	}
	return artifact.Execute(ctx, d.fs, fixups, execOpts)
}

// check prints a unified diff for every staged file that differs on disk
func (d *Driver) check(versionDir string, writes []*artifact.WriteFileOp, summary *Summary) error {
	fixups := make(map[string]config.Fixup, len(d.cfg.Fixups))
	for _, f := range d.cfg.Fixups {
		fixups[filepath.Join(versionDir, filepath.FromSlash(f.File))] = f
	}
	formatting := d.formatter != nil && d.formatter.Enabled()

	for _, w := range writes {
		want := w.Content
		if formatting && strings.HasSuffix(w.Path, ".go") {
			formatted, err := format.Source(want)
			if err != nil {
				d.log.Warn("Generated file does not format", logger.F("file", w.Path), logger.F("error", err))
			} else {
				want = formatted
			}
		}
		if f, ok := fixups[w.Path]; ok {
			want = fixupFunc(f)(want)
		}

		diff, err := artifact.Drift(d.fs, w.Path, want)
		if err != nil {
			return err
		}
		summary.Files = append(summary.Files, w.Path)
		if diff != "" {
			summary.Drifted = append(summary.Drifted, w.Path)
			fmt.Fprint(d.out, diff)
		}
	}
	return nil
}
