package engine

import (
	"time"

	"github.com/carlosrm22/lazaro/internal/settings"
)

// Status is where a track is in its cycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusSnoozed Status = "snoozed"
)

// Block is the restriction left behind by a completed daily-limit break.
type Block string

const (
	BlockNone        Block = "none"
	BlockAcknowledge Block = "acknowledge"
	BlockUntilReset  Block = "until_reset"
)

type trackState struct {
	kind         settings.BreakKind
	status       Status
	elapsed      time.Duration
	remaining    time.Duration
	snoozedUntil time.Time
	pendingSince time.Time
	snoozesUsed  int
}

// reset starts a new cycle from zero.
func (t *trackState) reset() {
	t.status = StatusIdle
	t.elapsed = 0
	t.remaining = 0
	t.snoozedUntil = time.Time{}
	t.pendingSince = time.Time{}
	t.snoozesUsed = 0
}

// demote returns the track to idle without losing its elapsed time.
func (t *trackState) demote() {
	t.status = StatusIdle
	t.remaining = 0
	t.snoozedUntil = time.Time{}
	t.pendingSince = time.Time{}
}
