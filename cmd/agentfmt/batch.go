package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/stream"
	"github.com/agentfmt/agentfmt/internal/vendor"
)

// runFiles drives one pipeline per input path. A single path writes
// straight through to its destination; multiple paths run concurrently
// (golang.org/x/sync/errgroup) against a shared *stream.Engine — safe
// because the engine holds no per-run state — each with its own renderer,
// buffered so concurrent output never interleaves, then flushed to the
// destination in input order once every pipeline has finished.
func runFiles(ctx context.Context, paths []string, opts runOptions) error {
	engine := stream.New(vendor.Default(), nil)

	if len(paths) == 1 {
		dest, closeDest, err := openOutput(opts.Output)
		if err != nil {
			return err
		}
		defer closeDest()

		stats, code, runErr := processFile(ctx, engine, paths[0], opts, dest)
		if opts.Stats {
			printStats(os.Stderr, stats)
		}
		if code != 0 {
			return exitError{code: code, err: runErr}
		}
		return nil
	}

	buffers := make([]bytes.Buffer, len(paths))
	statsByPath := make([]fileStats, len(paths))
	codes := make([]int, len(paths))
	runErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			stats, code, err := processFile(gctx, engine, path, opts, &buffers[i])
			statsByPath[i] = stats
			codes[i] = code
			runErrs[i] = err
			return nil // per-file failures are reported, not fatal to the group
		})
	}
	// errgroup's own error is unused: each file's outcome is tracked
	// independently above so one file's failure doesn't cancel the rest.
	_ = g.Wait()

	dest, closeDest, err := openOutput(opts.Output)
	if err != nil {
		return err
	}
	defer closeDest()

	worstCode := 0
	var firstErr error
	for i, path := range paths {
		if len(paths) > 1 {
			fmt.Fprintf(dest, "==> %s <==\n", path)
		}
		_, _ = io.Copy(dest, &buffers[i])
		if codes[i] != 0 {
			worstCode = codes[i]
			if firstErr == nil {
				firstErr = runErrs[i]
			}
		}
	}
	if opts.Stats {
		printStatsTable(os.Stderr, statsByPath)
	}
	if worstCode != 0 {
		return exitError{code: worstCode, err: firstErr}
	}
	return nil
}

// openOutput resolves the --output flag to a destination writer. An empty
// path means stdout; closeDest is always safe to defer.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// exitError carries the process exit code a failed run should surface,
// alongside the underlying error for the top-level diagnostic message.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return "agentfmt: failed"
	}
	return e.err.Error()
}

func sortedKinds(counts map[events.Kind]int) []events.Kind {
	kinds := make([]events.Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
