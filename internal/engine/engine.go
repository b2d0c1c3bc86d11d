package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/settings"
	"github.com/carlosrm22/lazaro/internal/stats"
)

// activityRollup is how much unreported active time is batched before it is
// handed to the stats aggregator.
const activityRollup = time.Minute

const flushTimeout = 5 * time.Second

// Autostarter installs the login entries for a startup mode.
type Autostarter interface {
	Apply(mode settings.StartupMode) error
}

// Options tune the scheduler beyond what a profile carries.
type Options struct {
	TickInterval time.Duration
	// MediumGrace is how long a pending break waits before medium policy
	// starts it. Zero means the track's snooze duration.
	MediumGrace           time.Duration
	StrictSnoozeAllowance int
	Autostarter           Autostarter
	Clock                 func() time.Time
}

// Engine is the break scheduler. Every command and tick runs under one lock.
type Engine struct {
	mu sync.Mutex

	opts     Options
	now      func() time.Time
	stats    *stats.Aggregator
	pub      *events.Publisher
	settings settings.Settings

	tracks     map[settings.BreakKind]*trackState
	active     settings.BreakKind
	running    bool
	lastTick   time.Time
	lastBucket int64
	lastEvent  events.Kind
	block      Block
	unrolled   time.Duration
}

// New creates a stopped engine using cfg until ApplySettings says otherwise.
func New(cfg settings.Settings, agg *stats.Aggregator, pub *events.Publisher, opts Options) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.StrictSnoozeAllowance < 0 {
		opts.StrictSnoozeAllowance = 0
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	e := &Engine{
		opts:       opts,
		now:        clock,
		stats:      agg,
		pub:        pub,
		settings:   cfg,
		tracks:     make(map[settings.BreakKind]*trackState, len(settings.Kinds)),
		lastBucket: agg.CurrentBucket(),
		block:      BlockNone,
	}
	for _, kind := range settings.Kinds {
		e.tracks[kind] = &trackState{kind: kind, status: StatusIdle}
	}
	return e
}

// Run drives the tick loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	log.Println("Break engine started")

	for {
		select {
		case <-ctx.Done():
			log.Println("Break engine shutting down...")
			e.mu.Lock()
			e.rollupLocked()
			e.mu.Unlock()
			if err := e.flush(); err != nil {
				log.Printf("Failed to save stats on shutdown: %v", err)
			}
			return nil
		case <-ticker.C:
			e.Reconcile()
		}
	}
}

// Reconcile applies the wall-clock time elapsed since the last tick. It is
// called by the ticker and after the host wakes from sleep.
func (e *Engine) Reconcile() {
	e.Tick(e.now())
}

// HandleSleep brings state up to date and saves the counters before the host
// suspends.
func (e *Engine) HandleSleep() {
	e.mu.Lock()
	e.tickLocked(e.now())
	e.rollupLocked()
	e.mu.Unlock()

	if err := e.flush(); err != nil {
		log.Printf("Failed to save stats before sleep: %v", err)
	}
}

// HandleWake applies the time spent suspended in one step.
func (e *Engine) HandleWake() {
	e.Reconcile()
}

// Tick advances the state machine to now.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	e.tickLocked(now)
	e.mu.Unlock()

	if err := e.flush(); err != nil {
		log.Printf("Failed to save stats: %v", err)
		e.pub.Publish(events.Event{Kind: events.Error, Message: fmt.Sprintf("saving stats failed: %v", err)})
	}
}

func (e *Engine) tickLocked(now time.Time) {
	if !e.running {
		return
	}
	delta := now.Sub(e.lastTick)
	if delta < 0 {
		delta = 0
	}
	e.lastTick = now

	dailyDelta := delta
	if e.rolloverLocked(now) {
		// Only the part of the delta after the reset counts toward the new day.
		if since := now.Sub(dayStart(now, e.settings.DailyResetTime)); since < dailyDelta {
			dailyDelta = since
		}
	}

	if e.active != "" {
		t := e.tracks[e.active]
		t.remaining -= delta
		if t.remaining <= 0 {
			// Time past the end of the break is ordinary elapsed time.
			leftover := -t.remaining
			e.completeLocked(now, t)
			if leftover > 0 {
				e.accumulateLocked(now, leftover, min(leftover, dailyDelta))
				e.applyPolicyLocked(now)
			}
			return
		}
		e.emitLocked(now, events.BreakTick, t.kind, events.Remaining(t.remaining), fmt.Sprintf("%s break in progress", label(t.kind)))
		return
	}

	e.accumulateLocked(now, delta, dailyDelta)
	e.applyPolicyLocked(now)
}

// rolloverLocked resets the daily track when the reset time has been crossed.
func (e *Engine) rolloverLocked(now time.Time) bool {
	if stats.DayBucket(now, e.settings.DailyResetTime.Offset()) > e.stats.CurrentBucket() {
		// Time accumulated so far belongs to the day that is ending.
		e.rollupLocked()
	}
	e.stats.RolloverIfNeeded(now)

	bucket := e.stats.CurrentBucket()
	if bucket == e.lastBucket {
		return false
	}
	crossed := bucket > e.lastBucket
	e.lastBucket = bucket
	if !crossed {
		return false
	}

	if e.active == settings.DailyLimit {
		e.active = ""
	}
	e.tracks[settings.DailyLimit].reset()
	e.block = BlockNone
	e.emitLocked(now, events.DailyReset, "", nil, "Daily reset applied")
	return true
}

func (e *Engine) accumulateLocked(now time.Time, delta, dailyDelta time.Duration) {
	for _, kind := range settings.Kinds {
		t := e.tracks[kind]
		track := e.settings.Track(kind)
		if !track.Enabled() || e.suppressedLocked(kind) {
			continue
		}
		switch t.status {
		case StatusIdle:
			if kind == settings.DailyLimit {
				t.elapsed += dailyDelta
			} else {
				t.elapsed += delta
			}
			if t.elapsed >= track.Interval {
				e.markDueLocked(now, t)
			}
		case StatusSnoozed:
			if !now.Before(t.snoozedUntil) {
				e.markDueLocked(now, t)
			}
		}
	}

	e.unrolled += delta
	if e.unrolled >= activityRollup {
		e.rollupLocked()
	}
}

func (e *Engine) markDueLocked(now time.Time, t *trackState) {
	t.status = StatusPending
	t.pendingSince = now
	t.snoozedUntil = time.Time{}
	duration := e.settings.Track(t.kind).Duration
	e.emitLocked(now, events.BreakDue, t.kind, events.Remaining(duration), fmt.Sprintf("%s break due", label(t.kind)))
}

func (e *Engine) applyPolicyLocked(now time.Time) {
	t := e.pendingLocked()
	if t == nil {
		return
	}
	p := policyFor(e.settings.BlockLevel)
	if !p.autoStart {
		return
	}
	if p.useGrace {
		grace := e.opts.MediumGrace
		if grace == 0 {
			grace = e.settings.Track(t.kind).Snooze
		}
		if now.Sub(t.pendingSince) < grace {
			return
		}
	}
	e.startLocked(now, t)
}

func (e *Engine) startLocked(now time.Time, t *trackState) {
	t.status = StatusActive
	t.remaining = e.settings.Track(t.kind).Duration
	t.snoozedUntil = time.Time{}
	e.active = t.kind
	e.emitLocked(now, events.BreakStarted, t.kind, events.Remaining(t.remaining), fmt.Sprintf("%s break started", label(t.kind)))
}

// completeLocked records a finished break and resets the tracks it covers.
func (e *Engine) completeLocked(now time.Time, t *trackState) {
	kind := t.kind
	e.active = ""
	active := e.unrolled.Truncate(time.Second)
	e.unrolled -= active

	switch kind {
	case settings.Micro:
		e.stats.RecordCompletion(kind, active)
		e.tracks[settings.Micro].reset()
	case settings.Rest:
		e.stats.RecordCompletion(kind, active)
		e.tracks[settings.Rest].reset()
		e.tracks[settings.Micro].reset()
	case settings.DailyLimit:
		e.stats.RecordDailyLimitHit()
		e.stats.RecordActivity(active)
		for _, other := range e.tracks {
			other.reset()
		}
		e.block = policyFor(e.settings.BlockLevel).dailyLimitBlock
	}

	e.emitLocked(now, events.BreakCompleted, kind, events.Remaining(0), fmt.Sprintf("%s break completed", label(kind)))
}

// suppressedLocked reports whether a block keeps kind from counting down.
func (e *Engine) suppressedLocked(kind settings.BreakKind) bool {
	switch e.block {
	case BlockAcknowledge:
		return kind != settings.DailyLimit
	case BlockUntilReset:
		return true
	}
	return false
}

// pendingLocked returns the highest-priority pending track that no block holds back.
func (e *Engine) pendingLocked() *trackState {
	for _, kind := range settings.Kinds {
		t := e.tracks[kind]
		if t.status == StatusPending && !e.suppressedLocked(kind) {
			return t
		}
	}
	return nil
}

// rollupLocked hands whole seconds to the aggregator and keeps the fraction
// for the next roll-up.
func (e *Engine) rollupLocked() {
	whole := e.unrolled.Truncate(time.Second)
	if whole <= 0 {
		return
	}
	e.stats.RecordActivity(whole)
	e.unrolled -= whole
}

func (e *Engine) emitLocked(now time.Time, kind events.Kind, breakKind settings.BreakKind, remaining *int64, message string) {
	e.pub.Publish(events.Event{
		Kind:    kind,
		Message: message,
		Payload: events.Payload{
			BreakKind:        breakKind,
			RemainingSeconds: remaining,
			StrictMode:       e.settings.BlockLevel == settings.Strict,
		},
		At: now,
	})
	e.lastEvent = kind
}

// flush persists stats outside the engine lock.
func (e *Engine) flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return e.stats.Flush(ctx)
}

// flushCommand surfaces a persistence failure to the caller of op.
func (e *Engine) flushCommand(op string) error {
	return apperr.Wrap(apperr.KindPersistence, op, e.flush())
}

// ApplySettings adopts new settings at once. A running break keeps its
// remaining time; a new reset time moves the day boundary without a reset.
func (e *Engine) ApplySettings(next settings.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	prev := e.settings
	e.settings = next

	if next.DailyResetTime != prev.DailyResetTime {
		e.stats.Rebase(now, next.DailyResetTime.Offset())
		e.lastBucket = e.stats.CurrentBucket()
	}

	for _, kind := range settings.Kinds {
		t := e.tracks[kind]
		if !next.Track(kind).Enabled() && t.status != StatusActive {
			t.reset()
		}
	}

	if next.BlockLevel != prev.BlockLevel {
		switch next.BlockLevel {
		case settings.Soft:
			e.block = BlockNone
		case settings.Medium:
			if e.block == BlockUntilReset {
				e.block = BlockAcknowledge
			}
		}
	}

	e.emitLocked(now, events.Info, "", nil, "Settings updated")
}

// Settings returns the settings the engine is running with.
func (e *Engine) Settings() settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func label(kind settings.BreakKind) string {
	switch kind {
	case settings.Micro:
		return "Micro"
	case settings.Rest:
		return "Rest"
	case settings.DailyLimit:
		return "Daily limit"
	}
	return string(kind)
}
