package events

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventConstructorsSetExactlyOneKind(t *testing.T) {
	cases := []Event{
		NewMessage(RoleAssistant, "hi"),
		NewToolStart("bash", `{"command":"ls"}`),
		NewToolOutput("bash", PhaseStdout, "a\nb"),
		NewToolEnd("bash", 1),
		NewCost(0.002),
		NewError("boom"),
		NewDebug(map[string]any{"x": 1}),
	}
	for _, ev := range cases {
		count := 0
		if ev.Message != nil {
			count++
		}
		if ev.Tool != nil {
			count++
		}
		if ev.Cost != nil {
			count++
		}
		if ev.Error != nil {
			count++
		}
		if ev.Debug != nil {
			count++
		}
		assert.Equal(t, 1, count, "event %+v should have exactly one payload set", ev)
	}
}

func TestWireCompactMessage(t *testing.T) {
	ev := NewMessage(RoleAssistant, "Hello")
	b, err := ev.MarshalCompact()
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"msg","role":"assistant","text":"Hello"}`, string(b))
}

func TestWireCostNonFiniteRendersZero(t *testing.T) {
	ev := NewCost(math.NaN())
	b, err := ev.MarshalCompact()
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"cost","delta_usd":0}`, string(b))

	ev = NewCost(math.Inf(1))
	b, err = ev.MarshalCompact()
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"cost","delta_usd":0}`, string(b))
}

func TestParseErrorUnwrapAndJSONProjection(t *testing.T) {
	cause := errors.New("unexpected token")
	pe := &ParseError{
		Message:       "invalid JSON",
		Vendor:        "A",
		Line:          "not json",
		Cause:         cause,
		LineNumber:    3,
		HasLineNumber: true,
	}
	assert.ErrorIs(t, pe, cause)
	assert.Contains(t, pe.Error(), "line 3")

	proj := pe.ToJSON()
	assert.Equal(t, 3, proj.LineNumber)
	assert.Equal(t, "unexpected token", proj.Cause)
	// Line must never appear in the JSON projection.
	assert.NotContains(t, fieldsOf(proj), "not json")
}

func fieldsOf(v ParseErrorJSON) string {
	return v.Message + v.Vendor + v.Cause + v.ExpectedFormat
}

func TestTruncateLine(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, TruncateLine(short))

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	out := TruncateLine(string(long))
	assert.LessOrEqual(t, len(out), maxParseErrorLineLen+len("…"))
}
