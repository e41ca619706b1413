package events

import (
	"encoding/json"
	"math"
)

// wireTag is the short "t" discriminator used on the wire (JSON renderer
// and ParseError-adjacent Debug payloads), matching scenario S1 in spec.md:
// {"t":"msg","role":"assistant","text":"Hello"}.
type wireTag string

const (
	wireMessage wireTag = "msg"
	wireTool    wireTag = "tool"
	wireCost    wireTag = "cost"
	wireError   wireTag = "error"
	wireDebug   wireTag = "debug"
)

// Wire is the line-delimited JSON projection of an Event. Fields that do
// not apply to the event's kind are omitted.
type Wire struct {
	T         wireTag `json:"t"`
	Role      string  `json:"role,omitempty"`
	Text      string  `json:"text,omitempty"`
	Name      string  `json:"name,omitempty"`
	Phase     string  `json:"phase,omitempty"`
	ExitCode  *int    `json:"exit_code,omitempty"`
	DeltaUSD  *float64 `json:"delta_usd,omitempty"`
	Message   string  `json:"message,omitempty"`
	Raw       any     `json:"raw,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// ToWire projects e into its wire representation. Non-finite Cost values
// are normalized to zero, per spec §3's renderer tolerance rule (the JSON
// renderer is a renderer like any other).
func (e Event) ToWire() Wire {
	switch e.Kind {
	case KindMessage:
		return Wire{T: wireMessage, Role: string(e.Message.Role), Text: e.Message.Text}
	case KindTool:
		w := Wire{T: wireTool, Name: e.Tool.Name, Phase: string(e.Tool.Phase), Text: e.Tool.Text}
		if e.Tool.HasExit {
			ec := e.Tool.ExitCode
			w.ExitCode = &ec
		}
		return w
	case KindCost:
		d := e.Cost.DeltaUSD
		if !isFinite(d) {
			d = 0
		}
		return Wire{T: wireCost, DeltaUSD: &d}
	case KindError:
		return Wire{T: wireError, Message: e.Error.Message}
	case KindDebug:
		return Wire{T: wireDebug, Raw: e.Debug.Raw}
	default:
		return Wire{T: wireDebug}
	}
}

// MarshalCompact encodes e as a single-line JSON record.
func (e Event) MarshalCompact() ([]byte, error) {
	return json.Marshal(e.ToWire())
}

// MarshalPretty encodes e as an indented multi-line JSON record.
func (e Event) MarshalPretty() ([]byte, error) {
	return json.MarshalIndent(e.ToWire(), "", "  ")
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
