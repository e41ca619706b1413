// Package format wires the Stream Engine to a chosen Renderer, yielding
// string chunks in the selected output encoding (spec §4.6).
package format

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
	"github.com/agentfmt/agentfmt/internal/render/ansi"
	"github.com/agentfmt/agentfmt/internal/render/html"
	"github.com/agentfmt/agentfmt/internal/render/jsonrender"
	"github.com/agentfmt/agentfmt/internal/stream"
)

// Encoding selects which renderer Format constructs.
type Encoding string

const (
	ANSI Encoding = "ansi"
	HTML Encoding = "html"
	JSON Encoding = "json"
)

// Options configures a Format run: the output Encoding, the shared
// render.Options, and the underlying Stream Engine's Options.
//
// CompactMode overrides render.Options.CompactMode once the per-encoding
// default is resolved: nil selects the spec default for Encoding (JSON:
// true/line-delimited, ANSI: false/two-blank-line spacing between
// messages), a non-nil value is used verbatim.
type Options struct {
	Encoding    Encoding
	RenderOpts  render.Options
	StreamOpts  stream.Options
	CompactMode *bool
}

// normalized fills in per-encoding FormatOptions defaults the spec assigns
// (e.g. JSON's compact_mode defaults to true) before a renderer is built.
func (o Options) normalized() Options {
	switch {
	case o.CompactMode != nil:
		o.RenderOpts.CompactMode = *o.CompactMode
	case o.Encoding == JSON:
		o.RenderOpts.CompactMode = true
	}
	return o
}

// NewRenderer constructs the renderer named by opts.Encoding.
func NewRenderer(encoding Encoding, opts render.Options) (render.Renderer, error) {
	switch encoding {
	case ANSI:
		return ansi.New(opts), nil
	case HTML:
		return html.New(opts), nil
	case JSON:
		return jsonrender.New(opts), nil
	default:
		return nil, fmt.Errorf("format: unknown encoding %q", encoding)
	}
}

// Run builds the Stream Engine's event sequence and the configured
// Renderer, yielding (chunk, error) pairs. The final pair is always an
// error: io.EOF on clean completion (after Flush), or the stream's
// *stream.FatalError. Flush output is always yielded before the terminal
// error, win or lose (spec §4.6 step 4: "On normal completion or
// exception... yield flush()").
func Run(ctx context.Context, engine *stream.Engine, src io.Reader, opts Options) iter.Seq2[string, error] {
	opts = opts.normalized()

	return func(yield func(string, error) bool) {
		renderer, err := NewRenderer(opts.Encoding, opts.RenderOpts)
		if err != nil {
			yield("", err)
			return
		}

		seq := engine.Run(ctx, src, opts.StreamOpts)
		var terminal error
		seq(func(ev events.Event, err error) bool {
			if err != nil {
				terminal = err
				return false
			}
			if chunk := renderer.Render(ev); chunk != "" {
				if !yield(chunk, nil) {
					terminal = errStopped
					return false
				}
			}
			return true
		})

		if flushed := renderer.Flush(); flushed != "" {
			if !yield(flushed, nil) {
				return
			}
		}
		if terminal != nil && terminal != errStopped {
			yield("", terminal)
		} else if terminal == nil {
			yield("", io.EOF)
		}
	}
}

// errStopped is a sentinel marking "the consumer stopped pulling", so Run
// does not yield a spurious terminal error after an early stop.
var errStopped = fmt.Errorf("format: consumer stopped")
