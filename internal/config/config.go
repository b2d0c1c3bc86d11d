package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	BusSession = "session"
	BusSystem  = "system"
)

// Duration is a time.Duration written as a Go duration string ("1s", "2m30s").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))
	if str == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", str)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	StateDir string `toml:"state_dir"`
	Bus      string `toml:"bus"`

	TickInterval Duration `toml:"tick_interval"`
	// MediumGrace of 0 means each track waits its own snooze duration.
	MediumGrace           Duration `toml:"medium_grace"`
	StrictSnoozeAllowance *int     `toml:"strict_snooze_allowance"`

	EventBuffer  int `toml:"event_buffer"`
	EventHistory int `toml:"event_history"`

	Notify   *bool  `toml:"notify"`
	AppName  string `toml:"app_name"`
	ExecPath string `toml:"exec_path"`
}

// SetDefault fills every unset value.
func (c *Config) SetDefault() {
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir()
	}
	if c.Bus == "" {
		c.Bus = BusSession
	}
	if c.TickInterval <= 0 {
		c.TickInterval = Duration(time.Second)
	}
	if c.StrictSnoozeAllowance == nil {
		defaultVal := 1
		c.StrictSnoozeAllowance = &defaultVal
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 16
	}
	if c.EventHistory <= 0 {
		c.EventHistory = 128
	}
	if c.Notify == nil {
		defaultVal := true
		c.Notify = &defaultVal
	}
	if c.AppName == "" {
		c.AppName = "Lazaro"
	}
	if c.ExecPath == "" {
		c.ExecPath = "lazarod"
	}
}

// Validate rejects values SetDefault cannot repair.
func (c *Config) Validate() error {
	if c.Bus != BusSession && c.Bus != BusSystem {
		return fmt.Errorf("bus must be %q or %q, got %q", BusSession, BusSystem, c.Bus)
	}
	if c.StrictSnoozeAllowance != nil && *c.StrictSnoozeAllowance < 0 {
		return fmt.Errorf("strict_snooze_allowance must not be negative")
	}
	return nil
}

// DefaultStateDir follows XDG_DATA_HOME, falling back to ~/.local/share.
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "lazaro")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "lazaro")
}

// DefaultPath is lazarod.toml under the user config directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "lazaro", "lazarod.toml"), nil
}

// LoadConfigFromFile reads path. A missing file yields the defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LoadConfigFromBytes(nil)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadConfigFromBytes(data)
}

func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config toml: %w", err)
	}
	config.SetDefault()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
