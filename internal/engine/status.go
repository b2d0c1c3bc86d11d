package engine

import (
	"time"

	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/settings"
)

// TrackSnapshot is the polled view of one track.
type TrackSnapshot struct {
	Kind             settings.BreakKind `json:"kind"`
	Status           Status             `json:"status"`
	Enabled          bool               `json:"enabled"`
	ElapsedSeconds   int64              `json:"elapsed_seconds"`
	IntervalSeconds  int64              `json:"interval_seconds"`
	RemainingSeconds *int64             `json:"remaining_seconds,omitempty"`
	SnoozedUntil     *time.Time         `json:"snoozed_until,omitempty"`
}

// Snapshot is a read-only projection of the runtime state. It is built from
// the state itself, never from buffered events.
type Snapshot struct {
	Running          bool               `json:"running"`
	PendingBreak     settings.BreakKind `json:"pending_break,omitempty"`
	ActiveBreak      settings.BreakKind `json:"active_break,omitempty"`
	RemainingSeconds *int64             `json:"remaining_seconds,omitempty"`
	NextBreakKind    settings.BreakKind `json:"next_break_kind,omitempty"`
	NextBreakSeconds *int64             `json:"next_break_seconds,omitempty"`
	StrictMode       bool               `json:"strict_mode"`
	LastEvent        events.Kind        `json:"last_event,omitempty"`
	Block            Block              `json:"block"`
	Tracks           []TrackSnapshot    `json:"tracks"`
}

// Status returns the current snapshot.
func (e *Engine) Status() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	snap := Snapshot{
		Running:    e.running,
		StrictMode: e.settings.BlockLevel == settings.Strict,
		LastEvent:  e.lastEvent,
		Block:      e.block,
		Tracks:     make([]TrackSnapshot, 0, len(settings.Kinds)),
	}

	if t := e.pendingLocked(); t != nil {
		snap.PendingBreak = t.kind
	}
	if e.active != "" {
		snap.ActiveBreak = e.active
		snap.RemainingSeconds = events.Remaining(e.tracks[e.active].remaining)
	} else {
		snap.NextBreakKind, snap.NextBreakSeconds = e.nextBreakLocked(now)
	}

	for _, kind := range settings.Kinds {
		t := e.tracks[kind]
		track := e.settings.Track(kind)
		ts := TrackSnapshot{
			Kind:            kind,
			Status:          t.status,
			Enabled:         track.Enabled(),
			ElapsedSeconds:  int64(t.elapsed / time.Second),
			IntervalSeconds: int64(track.Interval / time.Second),
		}
		switch t.status {
		case StatusActive:
			ts.RemainingSeconds = events.Remaining(t.remaining)
		case StatusSnoozed:
			until := t.snoozedUntil
			ts.SnoozedUntil = &until
			ts.RemainingSeconds = events.Remaining(until.Sub(now))
		case StatusIdle:
			if track.Enabled() {
				ts.RemainingSeconds = events.Remaining(track.Interval - t.elapsed)
			}
		}
		snap.Tracks = append(snap.Tracks, ts)
	}
	return snap
}

// nextBreakLocked finds the idle or snoozed track that will be due first.
// Ties go to the higher-priority kind. The daily limit only counts if it
// would fire before the next reset.
func (e *Engine) nextBreakLocked(now time.Time) (settings.BreakKind, *int64) {
	var (
		best     settings.BreakKind
		bestLeft time.Duration
		found    bool
	)
	nextReset := nextResetAfter(now, e.settings.DailyResetTime)

	for _, kind := range settings.Kinds {
		t := e.tracks[kind]
		track := e.settings.Track(kind)
		if !track.Enabled() || e.suppressedLocked(kind) {
			continue
		}

		var left time.Duration
		switch t.status {
		case StatusIdle:
			left = track.Interval - t.elapsed
		case StatusSnoozed:
			left = t.snoozedUntil.Sub(now)
		default:
			continue
		}
		if left < 0 {
			left = 0
		}
		if kind == settings.DailyLimit && !now.Add(left).Before(nextReset) {
			continue
		}
		if !found || left < bestLeft {
			best, bestLeft, found = kind, left, true
		}
	}

	if !found {
		return "", nil
	}
	return best, events.Remaining(bestLeft)
}

func nextResetAfter(now time.Time, tod settings.TimeOfDay) time.Time {
	y, m, d := now.Date()
	reset := time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, now.Location())
	if !reset.After(now) {
		reset = reset.AddDate(0, 0, 1)
	}
	return reset
}

// dayStart is the most recent reset at or before now.
func dayStart(now time.Time, tod settings.TimeOfDay) time.Time {
	return nextResetAfter(now, tod).AddDate(0, 0, -1)
}
