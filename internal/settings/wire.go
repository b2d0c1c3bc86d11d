package settings

import (
	"math"
	"time"

	"github.com/carlosrm22/lazaro/internal/apperr"
)

// Wire is the flat form used on disk and over IPC.
type Wire struct {
	MicroIntervalSeconds    int64  `json:"micro_interval_seconds" yaml:"micro_interval_seconds"`
	MicroDurationSeconds    int64  `json:"micro_duration_seconds" yaml:"micro_duration_seconds"`
	MicroSnoozeSeconds      int64  `json:"micro_snooze_seconds" yaml:"micro_snooze_seconds"`
	RestIntervalSeconds     int64  `json:"rest_interval_seconds" yaml:"rest_interval_seconds"`
	RestDurationSeconds     int64  `json:"rest_duration_seconds" yaml:"rest_duration_seconds"`
	RestSnoozeSeconds       int64  `json:"rest_snooze_seconds" yaml:"rest_snooze_seconds"`
	DailyLimitSeconds       int64  `json:"daily_limit_seconds" yaml:"daily_limit_seconds"`
	DailyLimitSnoozeSeconds int64  `json:"daily_limit_snooze_seconds" yaml:"daily_limit_snooze_seconds"`
	DailyResetTime          string `json:"daily_reset_time" yaml:"daily_reset_time"`
	BlockLevel              string `json:"block_level" yaml:"block_level"`
	DesktopNotifications    bool   `json:"desktop_notifications" yaml:"desktop_notifications"`
	OverlayNotifications    bool   `json:"overlay_notifications" yaml:"overlay_notifications"`
	SoundNotifications      bool   `json:"sound_notifications" yaml:"sound_notifications"`
	SoundTheme              string `json:"sound_theme" yaml:"sound_theme"`
	StartupXDG              bool   `json:"startup_xdg" yaml:"startup_xdg"`
	StartupSystemdUser      bool   `json:"startup_systemd_user" yaml:"startup_systemd_user"`
	ActiveProfileID         string `json:"active_profile_id,omitempty" yaml:"active_profile_id,omitempty"`
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// maxSeconds is the largest second count a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

func fromSeconds(field string, n int64) (time.Duration, error) {
	if n < 0 || n > maxSeconds {
		return 0, apperr.New(apperr.KindValidation, "validate_settings", "%s out of range: %d", field, n)
	}
	return time.Duration(n) * time.Second, nil
}

// ToWire converts s to its flat form.
func (s Settings) ToWire() Wire {
	return Wire{
		MicroIntervalSeconds:    seconds(s.MicroInterval),
		MicroDurationSeconds:    seconds(s.MicroDuration),
		MicroSnoozeSeconds:      seconds(s.MicroSnooze),
		RestIntervalSeconds:     seconds(s.RestInterval),
		RestDurationSeconds:     seconds(s.RestDuration),
		RestSnoozeSeconds:       seconds(s.RestSnooze),
		DailyLimitSeconds:       seconds(s.DailyLimit),
		DailyLimitSnoozeSeconds: seconds(s.DailyLimitSnooze),
		DailyResetTime:          s.DailyResetTime.String(),
		BlockLevel:              string(s.BlockLevel),
		DesktopNotifications:    s.Notifications.Desktop,
		OverlayNotifications:    s.Notifications.Overlay,
		SoundNotifications:      s.Notifications.Sound,
		SoundTheme:              string(s.Notifications.SoundTheme),
		StartupXDG:              s.Startup.XDG,
		StartupSystemdUser:      s.Startup.SystemdUser,
		ActiveProfileID:         s.ActiveProfileID,
	}
}

// Settings parses and validates the flat form.
func (w Wire) Settings() (Settings, error) {
	resetTime, err := ParseTimeOfDay(w.DailyResetTime)
	if err != nil {
		return Settings{}, &apperr.Error{Kind: apperr.KindValidation, Op: "validate_settings", Err: err}
	}
	s := Settings{
		DailyResetTime: resetTime,
		BlockLevel:     BlockLevel(w.BlockLevel),
		Notifications: Notifications{
			Desktop:    w.DesktopNotifications,
			Overlay:    w.OverlayNotifications,
			Sound:      w.SoundNotifications,
			SoundTheme: SoundTheme(w.SoundTheme),
		},
		Startup: Startup{
			XDG:         w.StartupXDG,
			SystemdUser: w.StartupSystemdUser,
		},
		ActiveProfileID: w.ActiveProfileID,
	}
	durations := []struct {
		field string
		n     int64
		dst   *time.Duration
	}{
		{"micro_interval_seconds", w.MicroIntervalSeconds, &s.MicroInterval},
		{"micro_duration_seconds", w.MicroDurationSeconds, &s.MicroDuration},
		{"micro_snooze_seconds", w.MicroSnoozeSeconds, &s.MicroSnooze},
		{"rest_interval_seconds", w.RestIntervalSeconds, &s.RestInterval},
		{"rest_duration_seconds", w.RestDurationSeconds, &s.RestDuration},
		{"rest_snooze_seconds", w.RestSnoozeSeconds, &s.RestSnooze},
		{"daily_limit_seconds", w.DailyLimitSeconds, &s.DailyLimit},
		{"daily_limit_snooze_seconds", w.DailyLimitSnoozeSeconds, &s.DailyLimitSnooze},
	}
	for _, d := range durations {
		v, err := fromSeconds(d.field, d.n)
		if err != nil {
			return Settings{}, err
		}
		*d.dst = v
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
