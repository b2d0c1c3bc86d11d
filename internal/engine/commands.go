package engine

import (
	"fmt"
	"log"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/settings"
)

// StartRuntime arms the scheduler. Elapsed time is kept, so this resumes.
func (e *Engine) StartRuntime() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	now := e.now()
	e.running = true
	e.lastTick = now
	e.emitLocked(now, events.Info, "", nil, "Runtime started")
	return nil
}

// StopRuntime freezes the scheduler. Active, pending and snoozed tracks go
// back to idle with their elapsed time; an interrupted break records nothing.
func (e *Engine) StopRuntime() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	now := e.now()
	e.tickLocked(now)
	for _, t := range e.tracks {
		if t.status != StatusIdle {
			t.demote()
		}
	}
	e.active = ""
	e.running = false
	e.rollupLocked()
	e.emitLocked(now, events.Info, "", nil, "Runtime stopped")
	e.mu.Unlock()

	return e.flushCommand("stop_runtime")
}

// StartPendingBreak starts the highest-priority pending break.
func (e *Engine) StartPendingBreak() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	const op = "start_pending_break"
	if !e.running {
		return apperr.New(apperr.KindNotRunning, op, "runtime is not running")
	}
	if e.active != "" {
		return apperr.New(apperr.KindAlreadyActive, op, "%s break is already active", e.active)
	}
	t := e.pendingLocked()
	if t == nil {
		return apperr.New(apperr.KindNoPendingBreak, op, "no break is pending")
	}
	e.startLocked(e.now(), t)
	return nil
}

// SnoozePendingBreak postpones the highest-priority pending break by its
// snooze duration and counts it as skipped.
func (e *Engine) SnoozePendingBreak() error {
	const op = "snooze_pending_break"

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return apperr.New(apperr.KindNotRunning, op, "runtime is not running")
	}
	p := policyFor(e.settings.BlockLevel)
	if e.active != "" && p.lockActive {
		e.mu.Unlock()
		return apperr.New(apperr.KindPolicy, op, "active break cannot be snoozed under %s policy", e.settings.BlockLevel)
	}
	t := e.pendingLocked()
	if t == nil {
		e.mu.Unlock()
		return apperr.New(apperr.KindNoPendingBreak, op, "no break is pending")
	}
	if p.limitSnoozes && t.snoozesUsed >= e.opts.StrictSnoozeAllowance {
		e.mu.Unlock()
		return apperr.New(apperr.KindPolicy, op, "snooze allowance for this %s break is used up", t.kind)
	}

	now := e.now()
	t.status = StatusSnoozed
	t.snoozedUntil = now.Add(e.settings.Track(t.kind).Snooze)
	t.pendingSince = now
	t.snoozesUsed++
	e.stats.RecordSkip(t.kind)
	e.emitLocked(now, events.BreakSnoozed, t.kind, nil,
		fmt.Sprintf("%s break snoozed until %s", label(t.kind), t.snoozedUntil.Format("15:04:05")))
	e.mu.Unlock()

	return e.flushCommand(op)
}

// TriggerBreak starts kind now. A different running break is ended without
// recording anything.
func (e *Engine) TriggerBreak(kind settings.BreakKind) error {
	const op = "trigger_break"
	if _, err := settings.ParseBreakKind(string(kind)); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return apperr.New(apperr.KindNotRunning, op, "runtime is not running")
	}
	if e.active == kind {
		return apperr.New(apperr.KindAlreadyActive, op, "%s break is already active", kind)
	}
	if e.active != "" {
		e.tracks[e.active].demote()
		e.active = ""
	}
	e.startLocked(e.now(), e.tracks[kind])
	return nil
}

// SkipBreak ends the running break early and counts it as skipped.
func (e *Engine) SkipBreak() error {
	const op = "skip_break"

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return apperr.New(apperr.KindNotRunning, op, "runtime is not running")
	}
	if e.active == "" {
		e.mu.Unlock()
		return apperr.New(apperr.KindNoPendingBreak, op, "no break is active")
	}
	if policyFor(e.settings.BlockLevel).lockActive {
		e.mu.Unlock()
		return apperr.New(apperr.KindPolicy, op, "active break cannot be skipped under %s policy", e.settings.BlockLevel)
	}

	now := e.now()
	t := e.tracks[e.active]
	e.active = ""
	t.reset()
	e.stats.RecordSkip(t.kind)
	e.emitLocked(now, events.BreakSkipped, t.kind, nil, fmt.Sprintf("%s break skipped", label(t.kind)))
	e.mu.Unlock()

	return e.flushCommand(op)
}

// AcknowledgeBlock lifts the block left by a daily-limit break, where the
// policy allows it. Without a block it does nothing.
func (e *Engine) AcknowledgeBlock() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.block == BlockNone {
		return nil
	}
	if e.block == BlockUntilReset || !policyFor(e.settings.BlockLevel).acknowledgeable {
		return apperr.New(apperr.KindPolicy, "acknowledge_block", "block holds until the daily reset")
	}
	e.block = BlockNone
	e.emitLocked(e.now(), events.Info, "", nil, "Daily limit acknowledged")
	return nil
}

// SetStartupMode hands mode to the autostart collaborator. The installer
// runs outside the engine lock.
func (e *Engine) SetStartupMode(mode settings.StartupMode) error {
	if _, err := settings.ParseStartupMode(string(mode)); err != nil {
		return err
	}
	if e.opts.Autostarter != nil {
		if err := e.opts.Autostarter.Apply(mode); err != nil {
			log.Printf("Failed to apply startup mode %s: %v", mode, err)
			return apperr.Wrap(apperr.KindPersistence, "set_startup_mode", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitLocked(e.now(), events.Info, "", nil, fmt.Sprintf("Startup mode set to %s", mode))
	return nil
}
