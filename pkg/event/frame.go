package event

import "encoding/json"

// Frame kinds accepted from the push stream. Anything else is ignored.
const (
	FrameHistory   = "history"
	FrameNewEvents = "new_events"
)

// Frame is one inbound websocket message: a snapshot of recent events
// ("history") or an incremental batch ("new_events"), both newest-first.
type Frame struct {
	Type   string  `json:"type"`
	Events []Event `json:"events"`
}

// DecodeFrame parses a raw websocket payload. It returns ok=false for
// payloads that are not JSON, carry an unrecognized type, or are missing
// the event array; callers drop such frames without touching any state.
func DecodeFrame(data []byte) (Frame, bool) {
	var probe struct {
		Type   string          `json:"type"`
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Frame{}, false
	}
	if probe.Type != FrameHistory && probe.Type != FrameNewEvents {
		return Frame{}, false
	}
	if len(probe.Events) == 0 {
		return Frame{}, false
	}
	var events []Event
	if err := json.Unmarshal(probe.Events, &events); err != nil {
		return Frame{}, false
	}
	return Frame{Type: probe.Type, Events: events}, true
}
