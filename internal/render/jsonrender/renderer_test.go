package jsonrender

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/render"
)

func TestCompactModeOneLinePerEvent(t *testing.T) {
	r := New(render.Options{CompactMode: true})
	out := r.Render(events.NewMessage(events.RoleAssistant, "Hello"))
	assert.JSONEq(t, `{"t":"msg","role":"assistant","text":"Hello"}`, out[:len(out)-1])
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestPrettyModeIsMultiLine(t *testing.T) {
	r := New(render.Options{CompactMode: false})
	out := r.Render(events.NewMessage(events.RoleUser, "hi"))
	assert.Contains(t, out, "\n  ")
}

func TestShowTimestampsAddsField(t *testing.T) {
	r := New(render.Options{CompactMode: true, ShowTimestamps: true})
	out := r.Render(events.NewCost(1))
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.NotEmpty(t, m["timestamp"])
}

func TestHideAndFilterSuppressEvents(t *testing.T) {
	r := New(render.Options{CompactMode: true, HideCost: true})
	assert.Empty(t, r.Render(events.NewCost(1)))

	r2 := New(render.Options{CompactMode: true, EventFilter: map[events.Kind]bool{events.KindMessage: true}})
	assert.Empty(t, r2.Render(events.NewCost(1)))
	assert.NotEmpty(t, r2.Render(events.NewMessage(events.RoleUser, "x")))
}

func TestFlushIsAlwaysEmpty(t *testing.T) {
	r := New(render.Options{})
	assert.Empty(t, r.Flush())
}

func TestRenderBatchEqualsConcatenation(t *testing.T) {
	r1 := New(render.Options{CompactMode: true})
	r2 := New(render.Options{CompactMode: true})
	evs := []events.Event{events.NewMessage(events.RoleUser, "a"), events.NewCost(1)}
	var concat string
	for _, ev := range evs {
		concat += r1.Render(ev)
	}
	require.Equal(t, concat, r2.RenderBatch(evs))
}
