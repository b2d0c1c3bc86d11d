package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrm22/lazaro/internal/apperr"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        TimeOfDay
		expectError bool
	}{
		{"Reset at four", "04:00", TimeOfDay{Hour: 4}, false},
		{"Single digit hour", "7:30", TimeOfDay{Hour: 7, Minute: 30}, false},
		{"Last minute of day", "23:59", TimeOfDay{Hour: 23, Minute: 59}, false},
		{"Hour out of range", "24:00", TimeOfDay{}, true},
		{"Minute out of range", "12:60", TimeOfDay{}, true},
		{"Missing minutes", "12", TimeOfDay{}, true},
		{"Short minutes", "12:5", TimeOfDay{}, true},
		{"Not a number", "ab:cd", TimeOfDay{}, true},
		{"Empty string", "", TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayOffset(t *testing.T) {
	assert.Equal(t, 4*time.Hour+30*time.Minute, TimeOfDay{Hour: 4, Minute: 30}.Offset())
	assert.Equal(t, "04:30", TimeOfDay{Hour: 4, Minute: 30}.String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"Negative micro interval", func(s *Settings) { s.MicroInterval = -time.Second }},
		{"Negative rest snooze", func(s *Settings) { s.RestSnooze = -time.Minute }},
		{"Negative daily limit", func(s *Settings) { s.DailyLimit = -time.Hour }},
		{"Bad reset time", func(s *Settings) { s.DailyResetTime = TimeOfDay{Hour: 25} }},
		{"Unknown block level", func(s *Settings) { s.BlockLevel = "brutal" }},
		{"Unknown sound theme", func(s *Settings) { s.Notifications.SoundTheme = "kazoo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestZeroIntervalDisablesTrack(t *testing.T) {
	s := Default()
	s.MicroInterval = 0

	assert.NoError(t, s.Validate())
	assert.False(t, s.Track(Micro).Enabled())
	assert.True(t, s.Track(Rest).Enabled())
	assert.Equal(t, DailyLimitBreakDuration, s.Track(DailyLimit).Duration)
}

func TestWireRoundTrip(t *testing.T) {
	s := Default()
	s.BlockLevel = Strict
	s.DailyResetTime = TimeOfDay{Hour: 5, Minute: 15}
	s.Notifications.SoundTheme = ThemeBell

	got, err := s.ToWire().Settings()
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestWireRejectsInvalidInput(t *testing.T) {
	w := Default().ToWire()
	w.DailyResetTime = "4am"
	_, err := w.Settings()
	assert.ErrorIs(t, err, apperr.ErrValidation)

	w = Default().ToWire()
	w.MicroSnoozeSeconds = -5
	_, err = w.Settings()
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// Would wrap to a small positive duration.
	w = Default().ToWire()
	w.MicroIntervalSeconds = 18446744074
	_, err = w.Settings()
	assert.ErrorIs(t, err, apperr.ErrValidation)

	w = Default().ToWire()
	w.DailyLimitSeconds = maxSeconds + 1
	_, err = w.Settings()
	assert.ErrorIs(t, err, apperr.ErrValidation)

	w = Default().ToWire()
	w.DailyLimitSeconds = maxSeconds
	s, err := w.Settings()
	assert.NoError(t, err)
	assert.Equal(t, time.Duration(maxSeconds)*time.Second, s.DailyLimit)
}

func TestParseBreakKind(t *testing.T) {
	kind, err := ParseBreakKind("rest")
	assert.NoError(t, err)
	assert.Equal(t, Rest, kind)

	_, err = ParseBreakKind("nap")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Greater(t, DailyLimit.Priority(), Rest.Priority())
	assert.Greater(t, Rest.Priority(), Micro.Priority())
}

func TestNormalizeTruncatesToSeconds(t *testing.T) {
	s := Default()
	s.MicroDuration = 20*time.Second + 400*time.Millisecond
	assert.Equal(t, 20*time.Second, s.Normalize().MicroDuration)
}

func TestParseStartupMode(t *testing.T) {
	mode, err := ParseStartupMode("xdg_and_systemd")
	require.NoError(t, err)
	assert.Equal(t, Startup{XDG: true, SystemdUser: true}, mode.Startup())

	mode, err = ParseStartupMode(" xdg_only ")
	require.NoError(t, err)
	assert.Equal(t, Startup{XDG: true}, mode.Startup())

	_, err = ParseStartupMode("launchd")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
