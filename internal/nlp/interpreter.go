package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrolbot/hub/internal/domain"
)

// Intents the interpreter can produce.
const (
	IntentStatus      = "status"
	IntentStop        = "stop"
	IntentStart       = "start"
	IntentFollow      = "follow"
	IntentReturnHome  = "return_home"
	IntentGreet       = "greet"
	IntentInvestigate = "investigate"
	IntentAlarm       = "alarm"
	IntentUnknown     = "unknown"
)

// Robot actions attached to intents.
const (
	ActionNone        = "none"
	ActionStopPatrol  = "stop_patrol"
	ActionStartPatrol = "start_patrol"
	ActionFollow      = "follow"
	ActionReturnHome  = "return_home"
	ActionGreet       = "greet"
	ActionInvestigate = "investigate"
	ActionSoundAlarm  = "sound_alarm"
)

const helpText = "I did not understand that command. Try: status, start, stop, investigate, or return home."

// Result is the structured intent for one command.
type Result struct {
	Intent string         `json:"intent"`
	Text   string         `json:"text"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

// StatusSource provides the aggregate counts behind the status intent.
type StatusSource interface {
	CountAlerts(ctx context.Context) (domain.AlertCounts, error)
}

// rule is one row of the keyword table. Rules are evaluated top to bottom
// and the first match wins; later rules are never consulted even when their
// keywords also appear in the input.
type rule struct {
	keywords []string
	intent   string
	action   string
	text     string
}

var rules = []rule{
	{keywords: []string{"status", "report", "what", "how many"}, intent: IntentStatus},
	{keywords: []string{"stop", "halt", "pause"}, intent: IntentStop, action: ActionStopPatrol,
		text: "Patrol stopped. Awaiting further instructions."},
	{keywords: []string{"start", "resume", "begin", "patrol"}, intent: IntentStart, action: ActionStartPatrol,
		text: "Patrol started. Monitoring for intruders."},
	{keywords: []string{"follow"}, intent: IntentFollow, action: ActionFollow,
		text: "Following mode activated. I will track the target."},
	{keywords: []string{"home", "return", "base"}, intent: IntentReturnHome, action: ActionReturnHome,
		text: "Returning to home position."},
	{keywords: []string{"greet", "hello", "hi", "wave"}, intent: IntentGreet, action: ActionGreet,
		text: "Hello! I am your security assistant."},
	{keywords: []string{"investigate", "check", "inspect"}, intent: IntentInvestigate, action: ActionInvestigate,
		text: "Investigating the area. Stand by."},
	{keywords: []string{"alarm", "alert", "sound"}, intent: IntentAlarm, action: ActionSoundAlarm,
		text: "Alarm activated!"},
}

// Interpreter maps free text to intents with deterministic, case-insensitive
// keyword matching.
type Interpreter struct {
	status StatusSource
}

func NewInterpreter(status StatusSource) *Interpreter {
	return &Interpreter{status: status}
}

// Classify resolves the command. The status intent reads live aggregate
// counts, so classification is not a pure function of the text alone.
func (i *Interpreter) Classify(ctx context.Context, text string) Result {
	text = strings.ToLower(strings.TrimSpace(text))

	for _, r := range rules {
		if !containsAny(text, r.keywords) {
			continue
		}
		if r.intent == IntentStatus {
			return i.statusResult(ctx)
		}
		return Result{Intent: r.intent, Text: r.text, Action: r.action}
	}

	return Result{Intent: IntentUnknown, Text: helpText, Action: ActionNone}
}

func (i *Interpreter) statusResult(ctx context.Context) Result {
	counts, err := i.status.CountAlerts(ctx)
	if err != nil {
		// Degrade to a spoken error instead of failing the command.
		return Result{
			Intent: IntentStatus,
			Text:   fmt.Sprintf("Error retrieving status: %v", err),
			Action: ActionNone,
		}
	}

	text := fmt.Sprintf(
		"System status: %d total alerts. %d unacknowledged. %d friendly, %d unknown, %d suspicious detections.",
		counts.Total, counts.Unacknowledged, counts.Friendly, counts.Unknown, counts.Suspicious,
	)

	return Result{
		Intent: IntentStatus,
		Text:   text,
		Action: ActionNone,
		Data: map[string]any{
			"total":          counts.Total,
			"unacknowledged": counts.Unacknowledged,
			"friendly":       counts.Friendly,
			"unknown":        counts.Unknown,
			"suspicious":     counts.Suspicious,
		},
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
