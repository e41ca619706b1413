package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/format"
	"github.com/agentfmt/agentfmt/internal/render"
	"github.com/agentfmt/agentfmt/internal/stream"
	"github.com/agentfmt/agentfmt/internal/vendor"
)

// runOptions is the fully-resolved set of knobs a single-file or multi-file
// run needs, after flags/config/viper layering.
type runOptions struct {
	Vendor           string
	Format           format.Encoding
	CollapseTools    bool
	HideTools        bool
	HideCost         bool
	HideDebug        bool
	Only             map[events.Kind]bool
	ColorDisabled    bool
	CompactMode      *bool
	Output           string
	PaceEventsPerSec float64
	Stats            bool
}

// fileStats accumulates the --stats summary table for one file.
type fileStats struct {
	path       string
	lines      int
	kindCounts map[events.Kind]int
	errorCount int
}

// processFile runs the full pipeline against a single input and writes
// rendered chunks to w, returning per-kind stats for --stats and the exit
// code the CLI should use for this file (spec §6: "0 on success ... 1 on
// fatal I/O error or invalid configuration"). engine is shared across
// concurrent files — a *stream.Engine wraps an immutable parser registry
// and carries no per-run state, so sharing it is safe; only the renderer
// built per call is per-stream state (spec §5).
func processFile(ctx context.Context, engine *stream.Engine, path string, opts runOptions, w io.Writer) (fileStats, int, error) {
	if opts.Vendor != vendor.AutoVendor {
		if _, ok := engine.Registry().Lookup(opts.Vendor); !ok {
			return fileStats{}, 1, fmt.Errorf("agentfmt: unknown vendor %q", opts.Vendor)
		}
	}

	src, err := openInput(path)
	if err != nil {
		return fileStats{}, 1, err
	}
	defer src.Close()

	renderer, err := format.NewRenderer(opts.Format, render.Options{
		CollapseTools: opts.CollapseTools,
		HideTools:     opts.HideTools,
		HideCost:      opts.HideCost,
		HideDebug:     opts.HideDebug,
		ColorDisabled: opts.ColorDisabled,
		CompactMode:   resolveCompactMode(opts),
		EventFilter:   opts.Only,
	})
	if err != nil {
		return fileStats{}, 1, err
	}

	var limiter *rate.Limiter
	if opts.PaceEventsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.PaceEventsPerSec), 1)
	}

	stats := fileStats{path: path, kindCounts: make(map[events.Kind]int)}
	seq := engine.Run(ctx, src, stream.Options{
		Vendor:          opts.Vendor,
		ContinueOnError: true,
		EmitDebugEvents: opts.Stats,
	})

	var fatal error
	seq(func(ev events.Event, err error) bool {
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fatal = err
			}
			return false
		}
		stats.lines++
		stats.kindCounts[ev.Kind]++
		if ev.Kind == events.KindError {
			stats.errorCount++
		}
		if limiter != nil {
			_ = limiter.Wait(ctx)
		}
		if chunk := renderer.Render(ev); chunk != "" {
			fmt.Fprint(w, chunk)
		}
		return true
	})

	if flushed := renderer.Flush(); flushed != "" {
		fmt.Fprint(w, flushed)
	}

	if fatal != nil {
		var fe *stream.FatalError
		if errors.As(fatal, &fe) {
			return stats, 1, fe
		}
		return stats, 1, fatal
	}
	return stats, 0, nil
}

func resolveCompactMode(opts runOptions) bool {
	if opts.CompactMode != nil {
		return *opts.CompactMode
	}
	return opts.Format == format.JSON
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
