package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/engine"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/profile"
	"github.com/carlosrm22/lazaro/internal/settings"
	"github.com/carlosrm22/lazaro/internal/stats"
)

type recordingAutostarter struct {
	modes []settings.StartupMode
}

func (r *recordingAutostarter) Apply(mode settings.StartupMode) error {
	r.modes = append(r.modes, mode)
	return nil
}

type fixture struct {
	svc   *Service
	eng   *engine.Engine
	pub   *events.Publisher
	auto  *recordingAutostarter
	now   time.Time
	store *stats.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	profiles, err := profile.Open(filepath.Join(t.TempDir(), profile.FileName))
	require.NoError(t, err)

	store, err := stats.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	active := profiles.Get()
	agg, err := stats.NewAggregator(ctx, store, now, active.DailyResetTime.Offset())
	require.NoError(t, err)
	agg.SetClock(func() time.Time { return now })

	pub := events.NewPublisher(64)
	auto := &recordingAutostarter{}
	eng := engine.New(active, agg, pub, engine.Options{
		StrictSnoozeAllowance: 1,
		Autostarter:           auto,
		Clock:                 func() time.Time { return now },
	})

	return &fixture{
		svc:   New(profiles, eng, agg, pub),
		eng:   eng,
		pub:   pub,
		auto:  auto,
		now:   now,
		store: store,
	}
}

func TestUpdateSettingsReachesEngine(t *testing.T) {
	f := newFixture(t)

	next := f.svc.GetSettings()
	next.MicroInterval = 7 * time.Minute
	next.BlockLevel = settings.Strict

	stored, err := f.svc.UpdateSettings(next)
	require.NoError(t, err)
	assert.Equal(t, next, stored)
	assert.Equal(t, next, f.svc.GetSettings())
	assert.Equal(t, next, f.eng.Settings())
	assert.True(t, f.svc.GetRuntimeStatus().StrictMode)
}

func TestUpdateSettingsRejectsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	before := f.svc.GetSettings()

	bad := before
	bad.MicroDuration = -time.Second
	_, err := f.svc.UpdateSettings(bad)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, before, f.svc.GetSettings())
	assert.Equal(t, before, f.eng.Settings())
}

func TestActivateProfileIdempotentWithoutEvent(t *testing.T) {
	f := newFixture(t)
	custom := settings.Default()
	custom.BlockLevel = settings.Soft
	_, err := f.svc.SaveProfile(profile.Profile{ID: "calm", Name: "Calm", Settings: custom})
	require.NoError(t, err)

	require.NoError(t, f.svc.ActivateProfile("calm"))
	assert.Equal(t, settings.Soft, f.eng.Settings().BlockLevel)
	seq := f.pub.LastSeq()

	require.NoError(t, f.svc.ActivateProfile("calm"))
	assert.Equal(t, seq, f.pub.LastSeq())

	err = f.svc.ActivateProfile("missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRemoveProfile(t *testing.T) {
	f := newFixture(t)
	err := f.svc.RemoveProfile(settings.DefaultProfileID)
	assert.True(t, errors.Is(err, apperr.ErrProtected))

	_, err = f.svc.SaveProfile(profile.Profile{ID: "spare", Settings: settings.Default()})
	require.NoError(t, err)
	require.NoError(t, f.svc.RemoveProfile("spare"))
	assert.Len(t, f.svc.ListProfiles(), 1)
}

func TestSetStartupModeStoresToggles(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.SetStartupMode("xdg_and_systemd"))
	assert.Equal(t, []settings.StartupMode{settings.XDGAndSystemd}, f.auto.modes)
	assert.Equal(t, settings.Startup{XDG: true, SystemdUser: true}, f.svc.GetSettings().Startup)

	require.NoError(t, f.svc.SetStartupMode("xdg_only"))
	assert.Equal(t, settings.Startup{XDG: true}, f.svc.GetSettings().Startup)

	err := f.svc.SetStartupMode("rc.local")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Len(t, f.auto.modes, 2)
}

func TestSetStartupModeKeepsActiveProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SaveProfile(profile.Profile{ID: "calm", Settings: settings.Default()})
	require.NoError(t, err)
	require.NoError(t, f.svc.ActivateProfile("calm"))

	require.NoError(t, f.svc.SetStartupMode("xdg_and_systemd"))
	current := f.svc.GetSettings()
	assert.Equal(t, "calm", current.ActiveProfileID)
	assert.Equal(t, settings.Startup{XDG: true, SystemdUser: true}, current.Startup)

	for _, p := range f.svc.ListProfiles() {
		if p.ID == settings.DefaultProfileID {
			assert.Equal(t, settings.Default().Startup, p.Settings.Startup)
		}
	}
}

func TestRuntimeCommands(t *testing.T) {
	f := newFixture(t)

	err := f.svc.TriggerBreak("micro")
	assert.True(t, errors.Is(err, apperr.ErrNotRunning))

	require.NoError(t, f.svc.StartRuntime())
	assert.True(t, f.svc.GetRuntimeStatus().Running)

	err = f.svc.TriggerBreak("siesta")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	require.NoError(t, f.svc.TriggerBreak("micro"))
	assert.Equal(t, settings.Micro, f.svc.GetRuntimeStatus().ActiveBreak)

	require.NoError(t, f.svc.SkipBreak())
	assert.Equal(t, uint32(1), f.svc.GetWeeklyStats().Skipped)

	err = f.svc.StartPendingBreak()
	assert.True(t, errors.Is(err, apperr.ErrNoPendingBreak))
	err = f.svc.SnoozePendingBreak()
	assert.True(t, errors.Is(err, apperr.ErrNoPendingBreak))
	require.NoError(t, f.svc.AcknowledgeBlock())

	require.NoError(t, f.svc.StopRuntime())
	assert.False(t, f.svc.GetRuntimeStatus().Running)

	// The skip was flushed to SQLite by the command.
	snap, ok, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(1), snap.Weekly.Skipped)
}

func TestEventsSinceAndSubscribe(t *testing.T) {
	f := newFixture(t)
	ch, unsubscribe := f.svc.Subscribe(8)
	defer unsubscribe()

	require.NoError(t, f.svc.StartRuntime())
	ev := <-ch
	assert.Equal(t, events.Info, ev.Kind)

	replay := f.svc.EventsSince(0)
	require.NotEmpty(t, replay)
	assert.Equal(t, ev.ID, replay[len(replay)-1].ID)
	assert.Empty(t, f.svc.EventsSince(ev.Seq))
}

func TestDailyHistory(t *testing.T) {
	f := newFixture(t)
	history := f.svc.GetDailyHistory(7)
	require.Len(t, history, 7)
	assert.Equal(t, "2026-03-02", history[len(history)-1].Day)
	assert.Equal(t, "2026-02-24", history[0].Day)
}
