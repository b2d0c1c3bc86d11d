package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carlosrm22/lazaro/internal/apperr"
)

// DefaultProfileID is the reserved profile that always exists.
const DefaultProfileID = "default"

// BreakKind names one independently timed track.
type BreakKind string

const (
	Micro      BreakKind = "micro"
	Rest       BreakKind = "rest"
	DailyLimit BreakKind = "daily_limit"
)

// Kinds is ordered from highest to lowest priority.
var Kinds = []BreakKind{DailyLimit, Rest, Micro}

// ParseBreakKind validates a wire value.
func ParseBreakKind(value string) (BreakKind, error) {
	switch kind := BreakKind(strings.TrimSpace(value)); kind {
	case Micro, Rest, DailyLimit:
		return kind, nil
	}
	return "", apperr.New(apperr.KindValidation, "parse_break_kind", "invalid break kind %q", value)
}

// Priority orders simultaneously due tracks. Higher wins.
func (kind BreakKind) Priority() int {
	switch kind {
	case DailyLimit:
		return 2
	case Rest:
		return 1
	}
	return 0
}

// BlockLevel is the strictness policy for due breaks.
type BlockLevel string

const (
	Soft   BlockLevel = "soft"
	Medium BlockLevel = "medium"
	Strict BlockLevel = "strict"
)

func (level BlockLevel) Valid() bool {
	switch level {
	case Soft, Medium, Strict:
		return true
	}
	return false
}

// SoundTheme selects the sound played by the front end.
type SoundTheme string

const (
	ThemeDefault SoundTheme = "default"
	ThemeChime   SoundTheme = "chime"
	ThemeBell    SoundTheme = "bell"
	ThemeSilent  SoundTheme = "silent"
)

func (theme SoundTheme) Valid() bool {
	switch theme {
	case ThemeDefault, ThemeChime, ThemeBell, ThemeSilent:
		return true
	}
	return false
}

// TimeOfDay is a local wall-clock time, "HH:MM" in text form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "H:MM" or "HH:MM" between 00:00 and 23:59.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected 'HH:MM'", value)
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected 'HH:MM'", value)
	}
	tod := TimeOfDay{Hour: hour, Minute: minute}
	if !tod.Valid() {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", value)
	}
	return tod, nil
}

func (tod TimeOfDay) Valid() bool {
	return tod.Hour >= 0 && tod.Hour <= 23 && tod.Minute >= 0 && tod.Minute <= 59
}

// Offset is the time elapsed since local midnight.
func (tod TimeOfDay) Offset() time.Duration {
	return time.Duration(tod.Hour)*time.Hour + time.Duration(tod.Minute)*time.Minute
}

func (tod TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", tod.Hour, tod.Minute)
}

func (tod TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(tod.String()), nil
}

func (tod *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*tod = parsed
	return nil
}

type Notifications struct {
	Desktop    bool
	Overlay    bool
	Sound      bool
	SoundTheme SoundTheme
}

type Startup struct {
	XDG         bool
	SystemdUser bool
}

// Settings is one validated configuration bundle. Values are compared with ==.
type Settings struct {
	MicroInterval time.Duration
	MicroDuration time.Duration
	MicroSnooze   time.Duration

	RestInterval time.Duration
	RestDuration time.Duration
	RestSnooze   time.Duration

	DailyLimit       time.Duration
	DailyLimitSnooze time.Duration
	DailyResetTime   TimeOfDay

	BlockLevel    BlockLevel
	Notifications Notifications
	Startup       Startup

	ActiveProfileID string
}

// Default returns the stock bundle used for the default profile.
func Default() Settings {
	return Settings{
		MicroInterval:    180 * time.Second,
		MicroDuration:    20 * time.Second,
		MicroSnooze:      150 * time.Second,
		RestInterval:     45 * time.Minute,
		RestDuration:     5 * time.Minute,
		RestSnooze:       3 * time.Minute,
		DailyLimit:       4 * time.Hour,
		DailyLimitSnooze: 20 * time.Minute,
		DailyResetTime:   TimeOfDay{Hour: 4},
		BlockLevel:       Medium,
		Notifications: Notifications{
			Desktop:    true,
			Overlay:    true,
			Sound:      true,
			SoundTheme: ThemeDefault,
		},
		Startup: Startup{
			XDG: true,
		},
		ActiveProfileID: DefaultProfileID,
	}
}

// Track holds the timing of one break kind.
type Track struct {
	Interval time.Duration
	Duration time.Duration
	Snooze   time.Duration
}

// Enabled reports whether the track counts down at all.
func (track Track) Enabled() bool {
	return track.Interval > 0
}

// DailyLimitBreakDuration is how long the daily-limit break lasts.
const DailyLimitBreakDuration = 60 * time.Second

// Track returns the timing for kind.
func (s Settings) Track(kind BreakKind) Track {
	switch kind {
	case Micro:
		return Track{Interval: s.MicroInterval, Duration: s.MicroDuration, Snooze: s.MicroSnooze}
	case Rest:
		return Track{Interval: s.RestInterval, Duration: s.RestDuration, Snooze: s.RestSnooze}
	case DailyLimit:
		return Track{Interval: s.DailyLimit, Duration: DailyLimitBreakDuration, Snooze: s.DailyLimitSnooze}
	}
	return Track{}
}

// Validate checks every invariant except the existence of ActiveProfileID,
// which only the profile store can judge.
func (s Settings) Validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"micro_interval", s.MicroInterval},
		{"micro_duration", s.MicroDuration},
		{"micro_snooze", s.MicroSnooze},
		{"rest_interval", s.RestInterval},
		{"rest_duration", s.RestDuration},
		{"rest_snooze", s.RestSnooze},
		{"daily_limit", s.DailyLimit},
		{"daily_limit_snooze", s.DailyLimitSnooze},
	}
	for _, d := range durations {
		if d.value < 0 {
			return apperr.New(apperr.KindValidation, "validate_settings", "%s must not be negative", d.name)
		}
	}
	if !s.DailyResetTime.Valid() {
		return apperr.New(apperr.KindValidation, "validate_settings", "invalid daily_reset_time %s", s.DailyResetTime)
	}
	if !s.BlockLevel.Valid() {
		return apperr.New(apperr.KindValidation, "validate_settings", "unknown block_level %q", s.BlockLevel)
	}
	if !s.Notifications.SoundTheme.Valid() {
		return apperr.New(apperr.KindValidation, "validate_settings", "unknown sound_theme %q", s.Notifications.SoundTheme)
	}
	return nil
}

// Normalize truncates durations to whole seconds.
func (s Settings) Normalize() Settings {
	s.MicroInterval = s.MicroInterval.Truncate(time.Second)
	s.MicroDuration = s.MicroDuration.Truncate(time.Second)
	s.MicroSnooze = s.MicroSnooze.Truncate(time.Second)
	s.RestInterval = s.RestInterval.Truncate(time.Second)
	s.RestDuration = s.RestDuration.Truncate(time.Second)
	s.RestSnooze = s.RestSnooze.Truncate(time.Second)
	s.DailyLimit = s.DailyLimit.Truncate(time.Second)
	s.DailyLimitSnooze = s.DailyLimitSnooze.Truncate(time.Second)
	return s
}

// StartupMode selects which autostart entries are installed.
type StartupMode string

const (
	XDGOnly       StartupMode = "xdg_only"
	XDGAndSystemd StartupMode = "xdg_and_systemd"
)

func ParseStartupMode(value string) (StartupMode, error) {
	switch mode := StartupMode(strings.TrimSpace(value)); mode {
	case XDGOnly, XDGAndSystemd:
		return mode, nil
	}
	return "", apperr.New(apperr.KindValidation, "set_startup_mode", "invalid startup mode %q", value)
}

// Startup returns the toggles a mode stands for.
func (mode StartupMode) Startup() Startup {
	return Startup{XDG: true, SystemdUser: mode == XDGAndSystemd}
}
