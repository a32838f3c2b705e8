package batch

import (
	"context"
	"sync"

	"github.com/simonhull/firebird-suite/falcon/internal/generator"
	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
	"github.com/simonhull/firebird-suite/falcon/pkg/naming"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// generateJob is one schema entry queued for generation
type generateJob struct {
	pos   int // Position among the selected entries
	entry schema.Entry
}

// generateResult holds the outcome of one job
type generateResult struct {
	pos       int
	module    string
	artifacts *generator.Artifacts
	err       error
}

// generateAll renders entries on numWorkers goroutines. Results are returned
// in entry order. With failFast the first error cancels the remaining jobs.
func (d *Driver) generateAll(ctx context.Context, entries []schema.Entry, version string, tables *schema.Tables, numWorkers int, failFast bool) ([]generateResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if numWorkers <= 0 {
		numWorkers = 1
	}

	jobs := make(chan generateJob, len(entries))
	results := make(chan generateResult, len(entries))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go d.generateWorker(ctx, version, tables, jobs, results, &wg)
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for i, e := range entries {
			select {
			case <-ctx.Done():
				return
			case jobs <- generateJob{pos: i, entry: e}:
			}
		}
	}()

	// Wait for workers to finish
	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]generateResult, len(entries))
	received := make([]bool, len(entries))
	var firstErr error

	for result := range results {
		ordered[result.pos] = result
		received[result.pos] = true

		if result.err == nil {
			continue
		}
		if failFast {
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		d.log.Error("Failed to generate module",
			logger.F("module", result.module),
			logger.F("error", result.err))
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := ordered[:0]
	for i, r := range ordered {
		if received[i] {
			out = append(out, r)
		}
	}
	return out, nil
}

// generateWorker processes generation jobs until the queue closes
func (d *Driver) generateWorker(ctx context.Context, version string, tables *schema.Tables, jobs <-chan generateJob, results chan<- generateResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return
		default:
		}

		module := naming.ModuleName(job.entry.Path, job.entry.Name)
		d.log.Info("Parsing schema",
			logger.F("module", module),
			logger.F("iteration", job.pos),
			logger.F("position", job.entry.Index))

		artifacts, err := d.gen.Generate(job.entry, version, tables)
		results <- generateResult{pos: job.pos, module: module, artifacts: artifacts, err: err}
	}
}
