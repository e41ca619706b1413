package ansi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
)

func TestRenderMessageTwoLineBlock(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	out := r.Render(events.NewMessage(events.RoleAssistant, "Hello"))
	assert.Contains(t, out, "assistant:")
	assert.Contains(t, out, "  Hello")
}

func TestRenderMessageInlineMarkup(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	out := r.Render(events.NewMessage(events.RoleUser, "see `code` and **bold** and *italic*"))
	assert.Contains(t, out, "code")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "italic")
}

func TestRenderMessageFencedBlockVerbatim(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	out := r.Render(events.NewMessage(events.RoleAssistant, "before\n```\nline1\nline2\n```\nafter"))
	assert.Contains(t, out, "line1")
	assert.Contains(t, out, "line2")
}

func TestRenderEscapesRawESCBytes(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	out := r.Render(events.NewMessage(events.RoleUser, "\x1b[31mRED\x1b[0m"))
	assert.NotContains(t, out, "\x1b[31m")
	assert.Contains(t, out, `\x1b[31m`)
}

func TestRenderToolLifecycleCollapsed(t *testing.T) {
	r := New(render.Options{ColorDisabled: true, CollapseTools: true})
	out := r.Render(events.NewToolStart("bash", `{"command":"ls -la"}`))
	assert.Contains(t, out, "bash")
	assert.Contains(t, out, "ls -la")

	mid := r.Render(events.NewToolOutput("bash", events.PhaseStdout, "some output"))
	assert.Empty(t, mid)

	end := r.Render(events.NewToolEnd("bash", 0))
	assert.Contains(t, end, "some output")
	assert.Contains(t, end, "✅ bash")
}

func TestRenderToolLifecycleUncollapsedFailure(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	r.Render(events.NewToolStart("bash", ""))
	out := r.Render(events.NewToolOutput("bash", events.PhaseStderr, "boom"))
	assert.Contains(t, out, "│")
	assert.Contains(t, out, "boom")

	end := r.Render(events.NewToolEnd("bash", 2))
	assert.Contains(t, end, "failed (exit 2)")
}

func TestRenderToolOrphanOutputIsNoOp(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	out := r.Render(events.NewToolOutput("ghost", events.PhaseStdout, "x"))
	assert.Empty(t, out)
}

func TestRenderCostFormatting(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	out := r.Render(events.NewCost(0.0025))
	assert.Contains(t, out, "$0.0025")

	out = r.Render(events.NewCost(-1.5))
	assert.Contains(t, out, "-$1.5000")
}

func TestRenderHideToolsAndCost(t *testing.T) {
	r := New(render.Options{ColorDisabled: true, HideTools: true, HideCost: true})
	assert.Empty(t, r.Render(events.NewToolStart("bash", "")))
	assert.Empty(t, r.Render(events.NewCost(1)))
}

func TestFlushWarnsOpenTools(t *testing.T) {
	r := New(render.Options{ColorDisabled: true})
	r.Render(events.NewToolStart("bash", ""))
	out := r.Flush()
	assert.Contains(t, out, "tool still running: bash")
	assert.Empty(t, r.Flush())
}

func TestCollapsedBufferBoundedByCap(t *testing.T) {
	r := New(render.Options{ColorDisabled: true, CollapseTools: true})
	r.Render(events.NewToolStart("bash", ""))
	big := strings.Repeat("x", maxCollapsedBufferBytes+1000)
	r.Render(events.NewToolOutput("bash", events.PhaseStdout, big))
	end := r.Render(events.NewToolEnd("bash", 0))
	assert.Contains(t, end, truncationMarker[1:]) // "[truncated]" substring survives summary truncation
}

func TestParamSummaryHeuristics(t *testing.T) {
	assert.Equal(t, "→ foo.go", paramSummary("Write", `{"file_path":"foo.go"}`))
	assert.Equal(t, `→ "TODO" in src`, paramSummary("Grep", `{"pattern":"TODO","path":"src"}`))
	assert.Equal(t, "", paramSummary("Unknown", `{"x":1}`))
}

func TestRenderBatchEqualsConcatenation(t *testing.T) {
	r1 := New(render.Options{ColorDisabled: true})
	r2 := New(render.Options{ColorDisabled: true})
	evs := []events.Event{events.NewMessage(events.RoleUser, "a"), events.NewCost(1)}
	var concat string
	for _, ev := range evs {
		concat += r1.Render(ev)
	}
	require.Equal(t, concat, r2.RenderBatch(evs))
}
