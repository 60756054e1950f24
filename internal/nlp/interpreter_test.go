package nlp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patrolbot/hub/internal/domain"
)

type stubCounts struct {
	counts domain.AlertCounts
	err    error
}

func (s stubCounts) CountAlerts(ctx context.Context) (domain.AlertCounts, error) {
	return s.counts, s.err
}

func TestInterpreter_Classify(t *testing.T) {
	interp := NewInterpreter(stubCounts{counts: domain.AlertCounts{Total: 2, Unacknowledged: 1, Suspicious: 2}})

	tests := []struct {
		name       string
		text       string
		wantIntent string
		wantAction string
	}{
		{"stop", "please stop now", IntentStop, ActionStopPatrol},
		{"halt", "HALT immediately", IntentStop, ActionStopPatrol},
		{"start", "begin the round", IntentStart, ActionStartPatrol},
		{"patrol keyword starts", "go on patrol", IntentStart, ActionStartPatrol},
		{"follow", "follow that person", IntentFollow, ActionFollow},
		{"return home", "go back to base", IntentReturnHome, ActionReturnHome},
		{"greet", "say hello to our guest", IntentGreet, ActionGreet},
		{"investigate", "inspect the east gate", IntentInvestigate, ActionInvestigate},
		{"alarm", "sound the alarm", IntentAlarm, ActionSoundAlarm},
		{"status", "give me a report", IntentStatus, ActionNone},
		{"unknown", "make me a sandwich", IntentUnknown, ActionNone},
		{"empty", "", IntentUnknown, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interp.Classify(context.Background(), tt.text)
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.NotEmpty(t, got.Text)
		})
	}
}

// Rule order is fixed: status outranks stop even when both keywords appear.
func TestInterpreter_FirstMatchWins(t *testing.T) {
	interp := NewInterpreter(stubCounts{})

	got := interp.Classify(context.Background(), "what's the status, then stop")
	assert.Equal(t, IntentStatus, got.Intent)
	assert.Equal(t, ActionNone, got.Action)

	// "alert" appears in rule 8 but "check" matches rule 7 first.
	got = interp.Classify(context.Background(), "check that alert")
	assert.Equal(t, IntentInvestigate, got.Intent)
}

func TestInterpreter_StatusSummary(t *testing.T) {
	interp := NewInterpreter(stubCounts{counts: domain.AlertCounts{
		Total: 5, Unacknowledged: 2, Friendly: 1, Unknown: 3, Suspicious: 1,
	}})

	got := interp.Classify(context.Background(), "status")
	assert.Equal(t, IntentStatus, got.Intent)
	assert.Equal(t,
		"System status: 5 total alerts. 2 unacknowledged. 1 friendly, 3 unknown, 1 suspicious detections.",
		got.Text)
	assert.Equal(t, 5, got.Data["total"])
	assert.Equal(t, 2, got.Data["unacknowledged"])
}

func TestInterpreter_StatusDegradesOnStoreFailure(t *testing.T) {
	interp := NewInterpreter(stubCounts{err: errors.New("database locked")})

	got := interp.Classify(context.Background(), "status please")
	assert.Equal(t, IntentStatus, got.Intent)
	assert.Equal(t, ActionNone, got.Action)
	assert.Contains(t, got.Text, "Error retrieving status")
	assert.Contains(t, got.Text, "database locked")
	assert.Nil(t, got.Data)
}

func TestInterpreter_CaseInsensitive(t *testing.T) {
	interp := NewInterpreter(stubCounts{})

	got := interp.Classify(context.Background(), "PLEASE STOP NOW")
	assert.Equal(t, IntentStop, got.Intent)
}
