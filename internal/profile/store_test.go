package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/settings"
)

type changeRecorder struct {
	mu   sync.Mutex
	seen []settings.Settings
}

func (r *changeRecorder) record(s settings.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *changeRecorder) last() settings.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1]
}

func openTestStore(t *testing.T) (*Store, *changeRecorder) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	rec := &changeRecorder{}
	s.OnChange(rec.record)
	return s, rec
}

func TestOpenCreatesDefault(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := os.Stat(s.Path())
	require.NoError(t, err)

	got := s.Get()
	want := settings.Default()
	assert.Equal(t, want, got)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, settings.DefaultProfileID, list[0].ID)
	assert.Empty(t, list[0].Settings.ActiveProfileID)
}

func TestUpdateSettingsRoundTrip(t *testing.T) {
	s, rec := openTestStore(t)

	next := settings.Default()
	next.MicroInterval = 10 * time.Minute
	next.BlockLevel = settings.Strict
	next.Notifications.SoundTheme = settings.ThemeBell
	next.DailyResetTime = settings.TimeOfDay{Hour: 5, Minute: 30}

	stored, err := s.Update(next)
	require.NoError(t, err)
	assert.Equal(t, next, stored)
	assert.Equal(t, next, s.Get())
	assert.Equal(t, 1, rec.count())
}

func TestUpdateWithEmptyProfileIDTargetsActive(t *testing.T) {
	s, _ := openTestStore(t)

	next := settings.Default()
	next.ActiveProfileID = ""
	next.RestDuration = 7 * time.Minute

	stored, err := s.Update(next)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultProfileID, stored.ActiveProfileID)
	assert.Equal(t, 7*time.Minute, s.Get().RestDuration)
}

func TestUpdateOntoOtherProfileActivatesIt(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Save(Profile{ID: "focus", Settings: settings.Default()})
	require.NoError(t, err)

	next := settings.Default()
	next.ActiveProfileID = "focus"
	next.MicroDuration = 30 * time.Second

	stored, err := s.Update(next)
	require.NoError(t, err)
	assert.Equal(t, next, stored)
	assert.Equal(t, "focus", s.ActiveID())
	assert.Equal(t, settings.Default().MicroDuration, s.List()[0].Settings.MicroDuration)
}

func TestUpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*settings.Settings)
		kind   apperr.Kind
	}{
		{"negative duration", func(s *settings.Settings) { s.RestSnooze = -time.Second }, apperr.KindValidation},
		{"bad reset time", func(s *settings.Settings) { s.DailyResetTime = settings.TimeOfDay{Hour: 24} }, apperr.KindValidation},
		{"unknown block level", func(s *settings.Settings) { s.BlockLevel = "harsh" }, apperr.KindValidation},
		{"unknown sound theme", func(s *settings.Settings) { s.Notifications.SoundTheme = "gong" }, apperr.KindValidation},
		{"unknown profile", func(s *settings.Settings) { s.ActiveProfileID = "ghost" }, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := openTestStore(t)
			next := settings.Default()
			tt.mutate(&next)

			_, err := s.Update(next)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, settings.Default(), s.Get())
			assert.Zero(t, rec.count())
		})
	}
}

func TestSetStartupTargetsActiveProfile(t *testing.T) {
	s, rec := openTestStore(t)
	_, err := s.Save(Profile{ID: "focus", Settings: settings.Default()})
	require.NoError(t, err)
	require.NoError(t, s.Activate("focus"))
	seen := rec.count()

	stored, err := s.SetStartup(settings.Startup{XDG: true, SystemdUser: true})
	require.NoError(t, err)
	assert.Equal(t, "focus", stored.ActiveProfileID)
	assert.True(t, stored.Startup.SystemdUser)
	assert.Equal(t, seen+1, rec.count())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, settings.Default().Startup, list[0].Settings.Startup)
	assert.True(t, list[1].Settings.Startup.SystemdUser)

	// Same toggles again is a no-op.
	_, err = s.SetStartup(settings.Startup{XDG: true, SystemdUser: true})
	require.NoError(t, err)
	assert.Equal(t, seen+1, rec.count())
}

func TestSetStartupNeverChangesActiveProfile(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Save(Profile{ID: "focus", Settings: settings.Default()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Activate("focus"))
	}()
	for i := 0; i < 50; i++ {
		_, err := s.SetStartup(settings.Startup{XDG: true, SystemdUser: i%2 == 0})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, "focus", s.ActiveID())
}

func TestSaveProfileUpserts(t *testing.T) {
	s, rec := openTestStore(t)

	created, err := s.Save(Profile{ID: "night", Name: "  ", Settings: settings.Default()})
	require.NoError(t, err)
	assert.Equal(t, "night", created.Name)
	assert.Zero(t, rec.count())

	custom := settings.Default()
	custom.MicroInterval = 0
	updated, err := s.Save(Profile{ID: "night", Name: "Night shift", Settings: custom})
	require.NoError(t, err)
	assert.Equal(t, "Night shift", updated.Name)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "default", list[0].ID)
	assert.Equal(t, "night", list[1].ID)
	assert.Equal(t, time.Duration(0), list[1].Settings.MicroInterval)
}

func TestSaveProfileRejectsBadID(t *testing.T) {
	s, _ := openTestStore(t)
	for _, id := range []string{"", "Has Caps", "../etc", "-lead", "a/b"} {
		_, err := s.Save(Profile{ID: id, Settings: settings.Default()})
		assert.True(t, errors.Is(err, apperr.ErrValidation), "id %q", id)
	}
}

func TestSaveActiveProfileNotifies(t *testing.T) {
	s, rec := openTestStore(t)
	custom := settings.Default()
	custom.RestInterval = time.Hour

	_, err := s.Save(Profile{ID: settings.DefaultProfileID, Name: "Default", Settings: custom})
	require.NoError(t, err)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, time.Hour, rec.last().RestInterval)
}

func TestActivateIsIdempotent(t *testing.T) {
	s, rec := openTestStore(t)
	custom := settings.Default()
	custom.BlockLevel = settings.Soft
	_, err := s.Save(Profile{ID: "gentle", Settings: custom})
	require.NoError(t, err)

	require.NoError(t, s.Activate("gentle"))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "gentle", rec.last().ActiveProfileID)
	assert.Equal(t, settings.Soft, rec.last().BlockLevel)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.Activate("gentle"))
	assert.Equal(t, 1, rec.count())

	again, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestActivateUnknown(t *testing.T) {
	s, _ := openTestStore(t)
	err := s.Activate("ghost")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, settings.DefaultProfileID, s.ActiveID())
}

func TestRemoveDefaultAlwaysFails(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Save(Profile{ID: "other", Settings: settings.Default()})
	require.NoError(t, err)
	require.NoError(t, s.Activate("other"))

	err = s.Remove(settings.DefaultProfileID)
	assert.True(t, errors.Is(err, apperr.ErrProtected))
	assert.Len(t, s.List(), 2)
}

func TestRemoveActiveFallsBackToDefault(t *testing.T) {
	s, rec := openTestStore(t)
	custom := settings.Default()
	custom.MicroDuration = time.Minute
	_, err := s.Save(Profile{ID: "temp", Settings: custom})
	require.NoError(t, err)
	require.NoError(t, s.Activate("temp"))

	require.NoError(t, s.Remove("temp"))
	assert.Equal(t, settings.DefaultProfileID, s.ActiveID())
	assert.Equal(t, settings.Default(), rec.last())

	err = s.Remove("temp")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	s, err := Open(path)
	require.NoError(t, err)

	custom := settings.Default()
	custom.DailyLimit = 2 * time.Hour
	_, err = s.Save(Profile{ID: "short-day", Name: "Short day", Settings: custom})
	require.NoError(t, err)
	require.NoError(t, s.Activate("short-day"))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "short-day", reopened.ActiveID())
	assert.Equal(t, 2*time.Hour, reopened.Get().DailyLimit)
	assert.Equal(t, s.List(), reopened.List())
}

func TestFailedWriteRollsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	s, err := Open(filepath.Join(dir, FileName))
	require.NoError(t, err)

	// Replace the directory with a plain file so every write fails.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	_, err = s.Save(Profile{ID: "lost", Settings: settings.Default()})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Len(t, s.List(), 1)

	next := settings.Default()
	next.MicroInterval = time.Hour
	_, err = s.Update(next)
	require.Error(t, err)
	assert.Equal(t, settings.Default(), s.Get())
}

func TestOpenRepairsMissingDefaultAndDanglingActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	raw := `version: 1
active_profile_id: vanished
profiles:
  work:
    id: work
    name: Work
    settings:
      micro_interval_seconds: 600
      micro_duration_seconds: 30
      micro_snooze_seconds: 60
      rest_interval_seconds: 3600
      rest_duration_seconds: 600
      rest_snooze_seconds: 300
      daily_limit_seconds: 28800
      daily_limit_snooze_seconds: 600
      daily_reset_time: "04:00"
      block_level: soft
      desktop_notifications: true
      overlay_notifications: false
      sound_notifications: false
      sound_theme: chime
      startup_xdg: true
      startup_systemd_user: false
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultProfileID, s.ActiveID())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "work", list[1].ID)
	assert.Equal(t, 10*time.Minute, list[1].Settings.MicroInterval)
	assert.Equal(t, settings.ThemeChime, list[1].Settings.Notifications.SoundTheme)
}

func TestOpenRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("profiles: [unclosed"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	s, err := Open(path)
	require.NoError(t, err)
	rec := &changeRecorder{}
	s.OnChange(rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	// Another instance of the store edits the same file.
	other, err := Open(path)
	require.NoError(t, err)
	custom := settings.Default()
	custom.MicroInterval = 20 * time.Minute
	_, err = other.Update(custom)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return rec.count() > 0 && rec.last().MicroInterval == 20*time.Minute
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 20*time.Minute, s.Get().MicroInterval)
}
