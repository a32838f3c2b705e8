package artifact

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// ExecuteOptions configures execution behavior
type ExecuteOptions struct {
	DryRun bool
	Force  bool
	Writer io.Writer // Where to write output (defaults to os.Stdout)
}

// Execute validates all operations, then commits them in one transaction.
// With DryRun the operations are only reported.
func Execute(ctx context.Context, fsys afero.Fs, ops []Operation, opts ExecuteOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	// Phase 1: Validate all operations
	for _, op := range ops {
		if err := op.Validate(ctx, fsys, opts.Force); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	// Phase 2: Execute or report
	if opts.DryRun {
		for _, op := range ops {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", op.Description())
		}
		return nil
	}

	tx := NewTransaction(fsys)
	tx.Add(ops...)
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	for _, op := range ops {
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
	}
	return nil
}
