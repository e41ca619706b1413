// Package stream composes the Line Reader and the vendor Parser Registry
// into the lazy (line, line_number) -> []events.Event pipeline, implementing
// vendor resolution and the error-recovery policy.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/lines"
	"github.com/agentfmt/agentfmt/internal/vendor"
)

// FatalError is raised when the stream cannot continue: an explicit
// continue_on_error=false stop, or the consecutive-error limit being
// reached. It is distinct from a recoverable events.ErrorFields Error event,
// which stays inside the normal event flow.
type FatalError struct {
	Reason string
	Cause  error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stream: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("stream: %s", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Cause }

// Options configures a stream Engine run (spec §3 StreamOptions).
type Options struct {
	// Vendor is a registered parser name, or vendor.AutoVendor to detect
	// from the first line.
	Vendor string
	// ContinueOnError, if false, stops the stream at the first parse error
	// (after emitting its Error event).
	ContinueOnError bool
	// EmitDebugEvents controls emission of the detection event and the
	// end-of-stream summary event.
	EmitDebugEvents bool
	// MaxConsecutiveErrors stops the stream with a FatalError once this many
	// parse errors occur back-to-back. Zero selects the default of 100.
	MaxConsecutiveErrors int
	// LineReaderOptions configures the underlying Line Reader.
	LineReaderOptions lines.Options
}

func (o Options) normalized() Options {
	if o.Vendor == "" {
		o.Vendor = vendor.AutoVendor
	}
	if o.MaxConsecutiveErrors <= 0 {
		o.MaxConsecutiveErrors = 100
	}
	return o
}

// Engine runs the Stream Engine algorithm (spec §4.4) against a constructor-
// injected Registry, keeping the core free of global state (spec §9).
type Engine struct {
	registry *vendor.Registry
	logger   *slog.Logger
}

// Registry returns the Engine's Parser Registry, so a caller (e.g. a CLI
// front-end) can validate a vendor name before streaming starts instead of
// discovering it line-by-line as recoverable Error events.
func (e *Engine) Registry() *vendor.Registry { return e.registry }

// New constructs an Engine. A nil logger falls back to slog.Default.
func New(registry *vendor.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// Summary is the terminal accounting emitted as a Debug event when
// EmitDebugEvents is set (spec §4.4 step 4).
type Summary struct {
	RunID           string  `json:"run_id"`
	TotalLines      int     `json:"totalLines"`
	SuccessfulLines int     `json:"successfulLines"`
	ErrorLines      int     `json:"errorLines"`
	SuccessRate     float64 `json:"successRate"`
}

// Run constructs the lazy Event sequence for src. The returned iterator
// yields (Event, error); a non-nil error is always the final value yielded,
// and is either io.EOF-wrapping completion or a *FatalError. Consumers that
// stop pulling release all resources: Run closes src (if closeable) when the
// iterator function returns, regardless of how iteration ended.
func (e *Engine) Run(ctx context.Context, src io.Reader, opts Options) iter.Seq2[events.Event, error] {
	opts = opts.normalized()
	runID := uuid.NewString()

	return func(yield func(events.Event, error) bool) {
		reader, err := lines.New(src, opts.LineReaderOptions)
		if err != nil {
			yield(events.Event{}, &FatalError{Reason: "failed to construct line reader", Cause: err})
			return
		}
		defer reader.Close()

		var (
			parser             vendor.Parser
			total, successful  int
			errorLines         int
			consecutiveErrors  int
		)

		for {
			if ctx.Err() != nil {
				yield(events.Event{}, &FatalError{Reason: "context canceled", Cause: ctx.Err()})
				return
			}

			ln, readErr := reader.ReadLine()
			if ln.LineNumber != 0 {
				total++

				if parser == nil {
					p, selErr := e.resolveParser(opts, ln.Text)
					if selErr != nil {
						errorLines++
						consecutiveErrors++
						if !yield(events.NewError(selErr.Error()), nil) {
							return
						}
						if !opts.ContinueOnError {
							yield(events.Event{}, &FatalError{Reason: "vendor detection failed", Cause: selErr})
							return
						}
						if consecutiveErrors >= opts.MaxConsecutiveErrors {
							yield(events.Event{}, &FatalError{
								Reason: fmt.Sprintf("reached max_consecutive_errors=%d", opts.MaxConsecutiveErrors),
								Cause:  selErr,
							})
							return
						}
						continue
					}
					parser = p
					if opts.EmitDebugEvents && opts.Vendor == vendor.AutoVendor {
						if !yield(events.NewDebug(map[string]any{"detected": parser.Name(), "line_number": ln.LineNumber}), nil) {
							return
						}
					}
				}

				if ln.Overflowed {
					if !yield(events.NewError(fmt.Sprintf("line %d: line exceeded maximum length and was split", ln.LineNumber)), nil) {
						return
					}
				}

				evs, parseErr := parser.Parse(ln.Text, ln.LineNumber)
				if parseErr == nil {
					for _, ev := range evs {
						if !yield(ev, nil) {
							return
						}
					}
					successful++
					consecutiveErrors = 0
				} else {
					errorLines++
					consecutiveErrors++
					msg := parseErr.Error()
					e.logger.Debug("parse error", "line_number", ln.LineNumber, "error", msg)
					if !yield(events.NewError(prefixWithLine(ln.LineNumber, msg)), nil) {
						return
					}
					if opts.EmitDebugEvents {
						var pe *events.ParseError
						debug := map[string]any{"line_number": ln.LineNumber, "line": events.TruncateLine(ln.Text), "error": msg}
						if errors.As(parseErr, &pe) {
							debug["error"] = pe.ToJSON()
						}
						if !yield(events.NewDebug(debug), nil) {
							return
						}
					}
					if !opts.ContinueOnError {
						yield(events.Event{}, &FatalError{Reason: "parse error with continue_on_error=false", Cause: parseErr})
						return
					}
					if consecutiveErrors >= opts.MaxConsecutiveErrors {
						yield(events.Event{}, &FatalError{
							Reason: fmt.Sprintf("reached max_consecutive_errors=%d", opts.MaxConsecutiveErrors),
							Cause:  parseErr,
						})
						return
					}
				}
			}

			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					if opts.EmitDebugEvents && total > 0 {
						rate := float64(successful) / float64(total)
						summary := Summary{RunID: runID, TotalLines: total, SuccessfulLines: successful, ErrorLines: errorLines, SuccessRate: rate}
						if !yield(events.NewDebug(summary), nil) {
							return
						}
					}
					yield(events.Event{}, io.EOF)
					return
				}
				yield(events.Event{}, &FatalError{Reason: "line reader failure", Cause: readErr})
				return
			}
		}
	}
}

func (e *Engine) resolveParser(opts Options, firstLine string) (vendor.Parser, error) {
	if opts.Vendor == vendor.AutoVendor {
		return e.registry.Select(vendor.AutoVendor, &firstLine)
	}
	return e.registry.Select(opts.Vendor, nil)
}

func prefixWithLine(lineNumber int, msg string) string {
	prefix := fmt.Sprintf("line %d:", lineNumber)
	if len(msg) >= len(prefix) && msg[:len(prefix)] == prefix {
		return msg
	}
	return fmt.Sprintf("line %d: %s", lineNumber, msg)
}

// CollectAll materializes the full event sequence into memory. Documented
// as test-only; not part of the streaming path (spec §4.4).
func CollectAll(seq iter.Seq2[events.Event, error]) ([]events.Event, error) {
	var out []events.Event
	var finalErr error
	seq(func(ev events.Event, err error) bool {
		if err != nil {
			if !errors.Is(err, io.EOF) {
				finalErr = err
			}
			return false
		}
		out = append(out, ev)
		return true
	})
	return out, finalErr
}
