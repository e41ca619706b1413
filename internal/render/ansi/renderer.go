// Package ansi renders normalized events as colored terminal text, mirroring
// the teacher's event_display.go two-line emoji-prefixed format.
package ansi

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
)

// maxCollapsedBufferBytes bounds the per-tool collapsed-output buffer
// (spec §9 open question: cap not quantified by the source; see DESIGN.md).
const maxCollapsedBufferBytes = 64 * 1024

const truncationMarker = " …[truncated]"

type toolState struct {
	startTime time.Time
	collapsed bool
	buf       strings.Builder
	truncated bool
}

// Renderer is a stateful, single-stream ANSI renderer. Not safe to share
// across concurrent pipelines (spec §5).
type Renderer struct {
	opts  render.Options
	tools map[string]*toolState
}

// New constructs a Renderer. opts.ColorDisabled suppresses all escape
// sequences, matching fatih/color's global color.NoColor toggle scoped to
// this renderer's own Color instances.
func New(opts render.Options) *Renderer {
	return &Renderer{opts: opts, tools: make(map[string]*toolState)}
}

func (r *Renderer) colored(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	if r.opts.ColorDisabled {
		c.DisableColor()
	}
	return c
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
		return ""
	}
}

// RenderBatch renders evs in order.
func (r *Renderer) RenderBatch(evs []events.Event) string {
	return render.RenderBatchWith(r.Render, evs)
}

// Flush emits a warning for every still-open tool and clears state.
func (r *Renderer) Flush() string {
	if len(r.tools) == 0 {
		return ""
	}
	var sb strings.Builder
	yellow := r.colored(color.FgYellow)
	for name := range r.tools {
		sb.WriteString(yellow.Sprintf("⚠️  tool still running: %s", sanitizeESC(name)))
		sb.WriteString("\n")
	}
	r.tools = make(map[string]*toolState)
	return sb.String()
}

func (r *Renderer) trailingBlankLines() string {
	if r.opts.CompactMode {
		return "\n"
	}
	return "\n\n"
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
	headerColor := r.colored(color.FgCyan, color.Bold)
	header := headerColor.Sprintf("%s %s:", roleIcon(m.Role), string(m.Role))

	content := applyInlineTransforms(sanitizeESC(m.Text), r)

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, line := range strings.Split(content, "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(r.trailingBlankLines())
	return sb.String()
}

func (r *Renderer) renderTool(tf *events.ToolFields) string {
	name := sanitizeESC(tf.Name)
	switch tf.Phase {
	case events.PhaseStart:
		st := &toolState{startTime: time.Now(), collapsed: r.opts.CollapseTools}
		r.tools[tf.Name] = st
		wrench := r.colored(color.FgBlue)
		line := wrench.Sprintf("🔧 %s", name)
		if summary := paramSummary(tf.Name, tf.Text); summary != "" {
			line += " [" + sanitizeESC(summary) + "]"
		}
		return line + "\n"

	case events.PhaseStdout, events.PhaseStderr:
		st, ok := r.tools[tf.Name]
		if !ok {
			return ""
		}
		text := sanitizeESC(tf.Text)
		if st.collapsed {
			appendBounded(st, text)
			return ""
		}
		prefixColor := r.colored(color.FgWhite)
		if tf.Phase == events.PhaseStderr {
			prefixColor = r.colored(color.FgRed)
		}
		var sb strings.Builder
		for _, line := range strings.Split(text, "\n") {
			sb.WriteString(prefixColor.Sprint("  │ "))
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		return sb.String()

	case events.PhaseEnd:
		st, ok := r.tools[tf.Name]
		if !ok {
			return fmt.Sprintf("%s (duration unknown)\n", statusLine(r, name, tf))
		}
		duration := time.Since(st.startTime).Milliseconds()
		var sb strings.Builder
		if st.collapsed && st.buf.Len() > 0 {
			summary := truncateRunes(st.buf.String(), 100)
			if st.truncated {
				summary += truncationMarker
			}
			sb.WriteString("  └─ ")
			sb.WriteString(summary)
			sb.WriteString("\n")
		}
		sb.WriteString(statusLineWithDuration(r, name, tf, duration))
		sb.WriteString("\n")
		delete(r.tools, tf.Name)
		return sb.String()

	default:
		return ""
	}
}

func statusLine(r *Renderer, name string, tf *events.ToolFields) string {
	if !tf.HasExit || tf.ExitCode == 0 {
		return r.colored(color.FgGreen).Sprintf("✅ %s", name)
	}
	return r.colored(color.FgRed).Sprintf("❌ %s failed (exit %d)", name, tf.ExitCode)
}

func statusLineWithDuration(r *Renderer, name string, tf *events.ToolFields, durationMS int64) string {
	if !tf.HasExit || tf.ExitCode == 0 {
		return r.colored(color.FgGreen).Sprintf("✅ %s (%dms)", name, durationMS)
	}
	return r.colored(color.FgRed).Sprintf("❌ %s failed (exit %d) (%dms)", name, tf.ExitCode, durationMS)
}

func appendBounded(st *toolState, text string) {
	remaining := maxCollapsedBufferBytes - st.buf.Len()
	if remaining <= 0 {
		st.truncated = true
		return
	}
	if len(text)+1 > remaining {
		st.buf.WriteString(text[:max(0, remaining-1)])
		st.truncated = true
		return
	}
	st.buf.WriteString(text)
	st.buf.WriteString("\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
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
	col := r.colored(color.FgYellow)
	return col.Sprintf("💰 %s$%.4f", sign, delta) + "\n"
}

func (r *Renderer) renderError(e *events.ErrorFields) string {
	col := r.colored(color.FgRed, color.Bold)
	return col.Sprintf("🚨 %s", sanitizeESC(e.Message)) + "\n"
}

func (r *Renderer) renderDebug(d *events.DebugFields) string {
	b, err := json.Marshal(d.Raw)
	if err != nil {
		b = []byte(`"<unserializable>"`)
	}
	col := r.colored(color.FgHiBlack)
	return col.Sprintf("🐛 %s", sanitizeESC(string(b))) + "\n"
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
