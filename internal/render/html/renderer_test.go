package html

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
)

func TestRenderMessageEscapesScriptTags(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewMessage(events.RoleUser, "<script>alert(1)</script>"))
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, out, "<script")
}

func TestRenderMessageWrapsDivs(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewMessage(events.RoleAssistant, "hi"))
	assert.Contains(t, out, `class="message message-assistant"`)
	assert.Contains(t, out, `class="message-content"`)
}

func TestRenderMessageUnknownRoleFallsBackToUnknown(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.Event{Kind: events.KindMessage, Message: &events.MessageFields{Role: events.Role("weird"), Text: "x"}})
	assert.Contains(t, out, "message-unknown")
}

func TestInlineMarkupCodeBoldItalic(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewMessage(events.RoleUser, "`code` **bold** *italic*\nnext"))
	assert.Contains(t, out, "<code>code</code>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.Contains(t, out, "<br>")
}

func TestInlineCodeGuardsNestedMarkup(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewMessage(events.RoleUser, "`**not bold**`"))
	assert.Contains(t, out, "<code>**not bold**</code>")
	assert.NotContains(t, out, "<strong>")
}

func TestToolLifecycle(t *testing.T) {
	r := New(render.Options{})
	start := r.Render(events.NewToolStart("bash", ""))
	assert.Contains(t, start, `data-tool="bash"`)

	out := r.Render(events.NewToolOutput("bash", events.PhaseStdout, "line1"))
	assert.Contains(t, out, `class="tool-stdout"`)

	end := r.Render(events.NewToolEnd("bash", 0))
	assert.Contains(t, end, `tool-end success`)
}

func TestToolLifecycleMissingNameBecomesUnknownTool(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewToolStart("", ""))
	assert.Contains(t, out, `data-tool="unknown-tool"`)
}

func TestCostFormatting(t *testing.T) {
	r := New(render.Options{})
	assert.Contains(t, r.Render(events.NewCost(-2.5)), "-$2.5000")
}

func TestErrorDiv(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewError("bad <thing>"))
	assert.Contains(t, out, `class="error-message"`)
	assert.Contains(t, out, "&lt;thing&gt;")
}

func TestDebugPrettyPrintsRaw(t *testing.T) {
	r := New(render.Options{})
	out := r.Render(events.NewDebug(map[string]any{"x": 1}))
	assert.Contains(t, out, `class="debug-content"`)
	assert.Contains(t, out, `"x"`)
}

func TestFlushClosesOpenToolsWithInterruptedMarker(t *testing.T) {
	r := New(render.Options{})
	r.Render(events.NewToolStart("bash", ""))
	out := r.Flush()
	assert.Contains(t, out, "tool-interrupted")
	assert.Empty(t, r.Flush())
}

func TestCollapsedBufferBoundedByCap(t *testing.T) {
	r := New(render.Options{CollapseTools: true})
	r.Render(events.NewToolStart("bash", ""))
	big := strings.Repeat("y", maxCollapsedBufferBytes+500)
	r.Render(events.NewToolOutput("bash", events.PhaseStdout, big))
	end := r.Render(events.NewToolEnd("bash", 0))
	assert.Contains(t, end, "[truncated]")
}

func TestRenderBatchEqualsConcatenation(t *testing.T) {
	r1 := New(render.Options{})
	r2 := New(render.Options{})
	evs := []events.Event{events.NewMessage(events.RoleUser, "a"), events.NewCost(1)}
	var concat string
	for _, ev := range evs {
		concat += r1.Render(ev)
	}
	require.Equal(t, concat, r2.RenderBatch(evs))
}
