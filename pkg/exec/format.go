package exec

import (
	"context"
	"fmt"
)

// DefaultBatchSize bounds how many files are passed to one formatter process
const DefaultBatchSize = 200

// Formatter runs a code formatter over generated files
type Formatter struct {
	Executor  *Executor
	Command   []string // e.g. ["gofmt", "-w"]; empty disables formatting
	BatchSize int
	Spinner   bool
}

// Enabled reports whether a formatter command is configured
func (f *Formatter) Enabled() bool {
	return len(f.Command) > 0
}

// Format runs the formatter over files and waits for every batch to finish.
// It stops at the first failing batch.
func (f *Formatter) Format(ctx context.Context, files []string) error {
	if !f.Enabled() || len(files) == 0 {
		return nil
	}

	executor := f.Executor
	if executor == nil {
		executor = NewExecutor(nil)
	}
	size := f.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	name, base := f.Command[0], f.Command[1:]
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))

		args := append(append([]string(nil), base...), files[start:end]...)
		var err error
		if f.Spinner {
			msg := fmt.Sprintf("Formatting files %d-%d of %d", start+1, end, len(files))
			err = executor.RunWithSpinner(ctx, msg, name, args...)
		} else {
			err = executor.Run(ctx, name, args...)
		}
		if err != nil {
			return fmt.Errorf("formatting files %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}
