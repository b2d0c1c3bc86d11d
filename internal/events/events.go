package events

import (
	"time"

	"github.com/carlosrm22/lazaro/internal/settings"
)

// Kind defines the type of a published event.
type Kind string

const (
	BreakDue       Kind = "break_due"
	BreakStarted   Kind = "break_started"
	BreakTick      Kind = "break_tick"
	BreakCompleted Kind = "break_completed"
	BreakSnoozed   Kind = "break_snoozed"
	BreakSkipped   Kind = "break_skipped"
	DailyReset     Kind = "daily_reset"
	Info           Kind = "info"
	Warn           Kind = "warn"
	Error          Kind = "error"
)

// Payload carries the break context of an event, when there is one.
type Payload struct {
	BreakKind        settings.BreakKind `json:"break_kind,omitempty"`
	RemainingSeconds *int64             `json:"remaining_seconds,omitempty"`
	StrictMode       bool               `json:"strict_mode"`
}

// Event is one discrete, ordered state transition.
type Event struct {
	ID      string    `json:"id"`
	Seq     uint64    `json:"seq"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Payload Payload   `json:"payload"`
	At      time.Time `json:"at"`
}

// Remaining is a helper for building payloads.
func Remaining(d time.Duration) *int64 {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return &secs
}
