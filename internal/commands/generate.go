package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/falcon/internal/batch"
	"github.com/simonhull/firebird-suite/falcon/pkg/output"
)

func (a *app) generateCmd() *cobra.Command {
	var index int
	var dryRun, check bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate modules from the CMDB schema",
		Long: `Generate one module per CMDB endpoint of the schema document.

Files are written under <output>/<version>/<path>/: the module source, an
example request and a test. Entries whose path contains a skip marker are
ignored, and malformed entries are skipped unless on_malformed is fail_fast.

Examples:
  falcon generate
  falcon generate --index 42       # one entry, by position in the schema
  falcon generate --dry-run        # list the files without writing
  falcon generate --check          # diff against the files on disk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			opts := batch.RunOptions{DryRun: dryRun, Check: check}
			if cmd.Flags().Changed("index") {
				opts.Single = true
				opts.Index = index
			}

			d := batch.New(cfg,
				batch.WithFs(a.fs),
				batch.WithLogger(a.log),
				batch.WithWriter(cmd.OutOrStdout()))

			summary, err := d.Run(ctx, opts)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			return report(summary, opts)
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "Generate only the schema entry at this position")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&check, "check", false, "Print diffs against existing files instead of writing")
	cmd.Flags().IntP("workers", "w", 0, "Number of generation workers (default: CPU count)")
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().StringP("schema", "s", "", "Schema document")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "check")
	a.bind(cmd, "generate.workers", "workers")
	a.bind(cmd, "output.dir", "output")
	a.bind(cmd, "schema.file", "schema")

	return cmd
}

// report prints a run summary. Check mode fails when any file drifted.
func report(s *batch.Summary, opts batch.RunOptions) error {
	output.Verbose(fmt.Sprintf("Run %s", s.RunID))

	for _, m := range s.Failed {
		output.Warn(fmt.Sprintf("Skipped malformed schema: %s", m))
	}
	for _, p := range s.Removed {
		output.Step("Removed untestable test: " + p)
	}

	switch {
	case opts.Check:
		if len(s.Drifted) > 0 {
			return fmt.Errorf("%d of %d files differ from the schema: %s",
				len(s.Drifted), len(s.Files), strings.Join(s.Drifted, ", "))
		}
		output.Success(fmt.Sprintf("All %d files are up to date for %s", len(s.Files), s.Version))
	case opts.Single:
		for _, p := range s.Files {
			output.Generated(p)
		}
		output.Success(fmt.Sprintf("Generated %s", strings.Join(s.Modules, ", ")))
	case opts.DryRun:
		output.Info(fmt.Sprintf("Would generate %d modules (%d files) for %s", len(s.Modules), len(s.Files), s.Version))
	default:
		output.Success(fmt.Sprintf("Generated %d modules for %s", len(s.Modules), s.Version))
		if len(s.Skipped) > 0 {
			output.Verbose(fmt.Sprintf("Skipped: %s", strings.Join(s.Skipped, ", ")))
		}
	}
	return nil
}
