// Package render defines the common Renderer contract shared by the ANSI,
// HTML, and JSON renderers (spec §4.5).
package render

import "github.com/agentfmt/agentfmt/internal/events"

// Renderer turns normalized events into output-format string chunks. A
// Renderer instance is per-stream state and MUST NOT be shared across
// pipelines (spec §5); a Registry/Parser is shareable, a Renderer is not.
type Renderer interface {
	// Render renders a single event, returning "" if it is suppressed by
	// the renderer's options.
	Render(ev events.Event) string
	// RenderBatch renders a slice of events; equals the concatenation of
	// Render calls in order.
	RenderBatch(evs []events.Event) string
	// Flush emits any closing/residual content (unclosed tool blocks,
	// interruption markers) and clears internal state.
	Flush() string
}

// Options are the FormatOptions common to every renderer (spec §3).
type Options struct {
	CollapseTools  bool
	HideTools      bool
	HideCost       bool
	HideDebug      bool
	ColorDisabled  bool
	CompactMode    bool
	ShowTimestamps bool
	EventFilter    map[events.Kind]bool // non-empty: only these kinds render
}

// Allowed reports whether k passes HideTools/HideCost/HideDebug and
// EventFilter, shared by all three renderers.
func (o Options) Allowed(k events.Kind) bool {
	switch k {
	case events.KindTool:
		if o.HideTools {
			return false
		}
	case events.KindCost:
		if o.HideCost {
			return false
		}
	case events.KindDebug:
		if o.HideDebug {
			return false
		}
	}
	if len(o.EventFilter) > 0 && !o.EventFilter[k] {
		return false
	}
	return true
}

// RenderBatchWith is the shared RenderBatch implementation; each concrete
// renderer's RenderBatch delegates to this with its own Render method.
func RenderBatchWith(render func(events.Event) string, evs []events.Event) string {
	var sb []byte
	for _, ev := range evs {
		sb = append(sb, render(ev)...)
	}
	return string(sb)
}
