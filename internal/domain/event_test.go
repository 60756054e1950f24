package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshal_TypeDiscriminator(t *testing.T) {
	identity := "alice"
	tests := []struct {
		name     string
		event    Event
		wantType string
	}{
		{"connected", ConnectedEvent{Timestamp: 1700000000.5}, "connected"},
		{"heartbeat", HeartbeatEvent{Timestamp: 1700000030.5}, "heartbeat"},
		{"alert", AlertEvent{Alert: Alert{ID: "alert_1", Status: StatusSuspicious, Identity: &identity}}, "alert"},
		{"ack", AckEvent{AlertID: "alert_1"}, "ack"},
		{"nlp", NLPEvent{Intent: "stop", Text: "Patrol stopped.", Action: "stop_patrol"}, "nlp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.event)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, tt.wantType, decoded["type"])
			assert.Equal(t, tt.wantType, tt.event.EventType())
		})
	}
}

func TestAlertEventMarshal_CarriesFullAlert(t *testing.T) {
	conf := 0.92
	event := AlertEvent{Alert: Alert{
		ID:         "alert_1700000000000_ab12cd34",
		Timestamp:  1700000000.123,
		Status:     StatusSuspicious,
		Confidence: &conf,
		Meta:       map[string]any{"zone": "gate"},
	}}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded struct {
		Type  string `json:"type"`
		Alert Alert  `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "alert", decoded.Type)
	assert.Equal(t, event.Alert.ID, decoded.Alert.ID)
	assert.Equal(t, conf, *decoded.Alert.Confidence)
	assert.Equal(t, "gate", decoded.Alert.Meta["zone"])
	assert.False(t, decoded.Alert.Acknowledged)
}

func TestNLPEventMarshal_IncludesOKFlag(t *testing.T) {
	raw, err := json.Marshal(NLPEvent{Intent: "status", Text: "System status: 0 total alerts.", Action: "none"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["ok"])
	assert.NotContains(t, decoded, "tts")
}
