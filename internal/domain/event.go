package domain

import "encoding/json"

// Event is the discriminated union broadcast to dashboard subscribers.
// Each variant marshals to a flat JSON object with a "type" discriminator;
// events carry no sequence number, ordering is per-subscriber only.
type Event interface {
	EventType() string
}

type ConnectedEvent struct {
	Timestamp float64 `json:"timestamp"`
}

func (ConnectedEvent) EventType() string { return "connected" }

func (e ConnectedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string  `json:"type"`
		Timestamp float64 `json:"timestamp"`
	}{e.EventType(), e.Timestamp})
}

type HeartbeatEvent struct {
	Timestamp float64 `json:"timestamp"`
}

func (HeartbeatEvent) EventType() string { return "heartbeat" }

func (e HeartbeatEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string  `json:"type"`
		Timestamp float64 `json:"timestamp"`
	}{e.EventType(), e.Timestamp})
}

type AlertEvent struct {
	Alert Alert `json:"alert"`
}

func (AlertEvent) EventType() string { return "alert" }

func (e AlertEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Alert Alert  `json:"alert"`
	}{e.EventType(), e.Alert})
}

type AckEvent struct {
	AlertID string `json:"alert_id"`
}

func (AckEvent) EventType() string { return "ack" }

func (e AckEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		AlertID string `json:"alert_id"`
	}{e.EventType(), e.AlertID})
}

type NLPEvent struct {
	Intent string         `json:"intent"`
	Text   string         `json:"text"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
	TTS    string         `json:"tts,omitempty"`
}

func (NLPEvent) EventType() string { return "nlp" }

func (e NLPEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string         `json:"type"`
		Intent string         `json:"intent"`
		Text   string         `json:"text"`
		Action string         `json:"action"`
		Data   map[string]any `json:"data,omitempty"`
		TTS    string         `json:"tts,omitempty"`
		OK     bool           `json:"ok"`
	}{e.EventType(), e.Intent, e.Text, e.Action, e.Data, e.TTS, true})
}
