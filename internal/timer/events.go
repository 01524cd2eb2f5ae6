package timer

import (
	"time"

	"pomodoro/timer/internal/model"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventStateChange     EventType = "state_change"
	EventProgress        EventType = "progress"
	EventSessionComplete EventType = "session_complete"
)

// CompletionEvent describes a countdown that reached zero.
type CompletionEvent struct {
	CompletedMode model.Mode    `json:"completedMode"`
	NextMode      model.Mode    `json:"nextMode"`
	Session       model.Session `json:"session"`
}

// Event is an engine update for observers.
type Event struct {
	Type       EventType        `json:"type"`
	State      State            `json:"state"`
	Completion *CompletionEvent `json:"completion,omitempty"`
	At         time.Time        `json:"at"`
}

// SessionRecorder receives sealed sessions. Record must not block.
type SessionRecorder interface {
	Record(session model.Session)
}

// Alerter is notified when a countdown finishes. Alert must not block.
type Alerter interface {
	Alert(alert model.Alert)
}

type nopRecorder struct{}

func (nopRecorder) Record(model.Session) {}

type nopAlerter struct{}

func (nopAlerter) Alert(model.Alert) {}
