// Package jsonrender is the identity JSON renderer: one record per event,
// compact or pretty-printed, optionally timestamped (spec §4.5.3).
package jsonrender

import (
	"encoding/json"
	"time"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
)

// Renderer has no per-event state, so a single instance may in principle be
// reused across pipelines — it is still constructed per-stream like the
// other renderers for API consistency (spec §5).
type Renderer struct {
	opts render.Options
}

// New constructs a Renderer.
func New(opts render.Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render renders a single event as one line-delimited JSON record (compact
// mode) or a pretty-printed block (non-compact mode).
func (r *Renderer) Render(ev events.Event) string {
	if !r.opts.Allowed(ev.Kind) {
		return ""
	}
	w := ev.ToWire()
	if r.opts.ShowTimestamps {
		w.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	var b []byte
	var err error
	if r.opts.CompactMode {
		b, err = json.Marshal(w)
	} else {
		b, err = json.MarshalIndent(w, "", "  ")
	}
	if err != nil {
		return ""
	}
	return string(b) + "\n"
}

// RenderBatch renders evs in order.
func (r *Renderer) RenderBatch(evs []events.Event) string {
	return render.RenderBatchWith(r.Render, evs)
}

// Flush has nothing to emit: the JSON renderer carries no per-event state.
func (r *Renderer) Flush() string {
	return ""
}
