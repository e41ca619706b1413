// Package html renders normalized events as semantic HTML fragments (no
// enclosing document), with a fixed escape table applied to every
// interpolated value before any markup transform runs.
package html

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
)

// maxCollapsedBufferBytes mirrors the ANSI renderer's bound for the
// per-tool collapsed buffer cap (spec §9 open question; see DESIGN.md).
const maxCollapsedBufferBytes = 64 * 1024

const unserializablePlaceholder = `"<unserializable>"`

type toolState struct {
	buf       strings.Builder
	truncated bool
}

// Renderer is per-stream state; do not share across concurrent pipelines
// (spec §5).
type Renderer struct {
	opts  render.Options
	tools map[string]*toolState
}

// New constructs a Renderer.
func New(opts render.Options) *Renderer {
	return &Renderer{opts: opts, tools: make(map[string]*toolState)}
}

// Render renders a single event.
func (r *Renderer) Render(ev events.Event) string {
	if !r.opts.Allowed(ev.Kind) {
		return ""
	}
	switch ev.Kind {
	case events.KindMessage:
		return r.renderMessage(ev.Message)
	case events.KindTool:
		return r.renderTool(ev.Tool)
	case events.KindCost:
		return r.renderCost(ev.Cost)
	case events.KindError:
		return r.renderError(ev.Error)
	case events.KindDebug:
		return r.renderDebug(ev.Debug)
	default:
		return r.renderUnknown(ev)
	}
}

// RenderBatch renders evs in order.
func (r *Renderer) RenderBatch(evs []events.Event) string {
	return render.RenderBatchWith(r.Render, evs)
}

// Flush closes any open tool blocks with an interruption marker.
func (r *Renderer) Flush() string {
	if len(r.tools) == 0 {
		return ""
	}
	var sb strings.Builder
	for name := range r.tools {
		sb.WriteString(fmt.Sprintf(`<div class="tool-interrupted" data-tool="%s">interrupted</div></div></div>`, escape(name)))
	}
	r.tools = make(map[string]*toolState)
	return sb.String()
}

func roleClass(role events.Role) string {
	switch role {
	case events.RoleUser, events.RoleAssistant, events.RoleSystem:
		return string(role)
	default:
		return "unknown"
	}
}

func roleIcon(role events.Role) string {
	switch role {
	case events.RoleUser:
		return "👤"
	case events.RoleAssistant:
		return "🤖"
	case events.RoleSystem:
		return "⚙️"
	default:
		return "❓"
	}
}

func (r *Renderer) renderMessage(m *events.MessageFields) string {
	role := roleClass(m.Role)
	content := applyInlineMarkup(escape(m.Text))
	return fmt.Sprintf(
		`<div class="message message-%s"><div class="message-header">%s %s</div><div class="message-content">%s</div></div>`,
		role, roleIcon(m.Role), role, content,
	)
}

func toolKey(name string) (key, label string) {
	if name == "" {
		return "unknown-tool", "unknown-tool"
	}
	return name, name
}

func (r *Renderer) renderTool(tf *events.ToolFields) string {
	key, _ := toolKey(tf.Name)
	escapedName := escape(key)
	switch tf.Phase {
	case events.PhaseStart:
		r.tools[key] = &toolState{}
		return fmt.Sprintf(`<div class="tool-execution" data-tool="%s"><div class="tool-output">`, escapedName)

	case events.PhaseStdout, events.PhaseStderr:
		st, ok := r.tools[key]
		if !ok {
			return ""
		}
		cls := "tool-stdout"
		if tf.Phase == events.PhaseStderr {
			cls = "tool-stderr"
		}
		text := escape(tf.Text)
		if r.opts.CollapseTools {
			appendBounded(st, text)
			return ""
		}
		return fmt.Sprintf(`<div class="%s">%s</div>`, cls, applyNewlines(text))

	case events.PhaseEnd:
		st, ok := r.tools[key]
		status := "success"
		if tf.HasExit && tf.ExitCode != 0 {
			status = "error"
		}
		if !ok {
			// Orphan end with no prior start: tolerate by emitting just the
			// status marker, with no output/wrapper divs to close.
			return fmt.Sprintf(`<div class="tool-end %s">%s</div>`, status, status)
		}
		delete(r.tools, key)
		var summary string
		if st.buf.Len() > 0 {
			s := st.buf.String()
			if st.truncated {
				s += " …[truncated]"
			}
			summary = fmt.Sprintf(`<div class="tool-stdout">%s</div>`, applyNewlines(s))
		}
		return fmt.Sprintf(`%s</div><div class="tool-end %s">%s</div></div>`, summary, status, status)

	default:
		return ""
	}
}

func appendBounded(st *toolState, text string) {
	remaining := maxCollapsedBufferBytes - st.buf.Len()
	if remaining <= 0 {
		st.truncated = true
		return
	}
	if len(text)+1 > remaining {
		cut := remaining - 1
		if cut < 0 {
			cut = 0
		}
		st.buf.WriteString(text[:cut])
		st.truncated = true
		return
	}
	st.buf.WriteString(text)
	st.buf.WriteString("\n")
}

func (r *Renderer) renderCost(c *events.CostFields) string {
	delta := c.DeltaUSD
	if !isFinite(delta) {
		delta = 0
	}
	sign := ""
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	return fmt.Sprintf(`<div class="cost">%s$%.4f</div>`, sign, delta)
}

func (r *Renderer) renderError(e *events.ErrorFields) string {
	return fmt.Sprintf(`<div class="error-message">%s</div>`, escape(e.Message))
}

func (r *Renderer) renderDebug(d *events.DebugFields) string {
	return fmt.Sprintf(`<pre class="debug-content">%s</pre>`, escape(safeJSONPretty(d.Raw)))
}

func (r *Renderer) renderUnknown(ev events.Event) string {
	b, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return `<div class="unknown-event"><pre>` + escape(unserializablePlaceholder) + `</pre></div>`
	}
	return `<div class="unknown-event"><pre>` + escape(string(b)) + `</pre></div>`
}

func safeJSONPretty(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return unserializablePlaceholder
	}
	return string(b)
}

// htmlEscaper is the fixed substitution table spec §4.5.2 requires verbatim.
// html.EscapeString maps `"` to &#34; rather than &quot;, so it isn't used
// here (see DESIGN.md).
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escape(s string) string {
	return htmlEscaper.Replace(s)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
