package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlosrm22/lazaro/internal/settings"
)

const (
	DesktopFileName = "io.github.carlosrm22.lazaro.desktop"
	UnitFileName    = "lazaro.service"
)

// Autostart writes the login entries that launch the daemon.
type Autostart struct {
	ConfigDir string
	AppName   string
	ExecPath  string
}

// NewAutostart resolves the user config directory ($XDG_CONFIG_HOME or ~/.config).
func NewAutostart(appName, execPath string) (*Autostart, error) {
	if appName == "" {
		return nil, fmt.Errorf("autostart: app name is empty")
	}
	if execPath == "" {
		return nil, fmt.Errorf("autostart: exec path is empty")
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("autostart: resolve config dir: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return &Autostart{ConfigDir: configDir, AppName: appName, ExecPath: execPath}, nil
}

// Apply always installs the XDG desktop entry. The systemd user unit is
// written for xdg_and_systemd and removed for xdg_only.
func (a *Autostart) Apply(mode settings.StartupMode) error {
	if _, err := settings.ParseStartupMode(string(mode)); err != nil {
		return err
	}
	if err := a.writeDesktopEntry(); err != nil {
		return err
	}
	if mode == settings.XDGAndSystemd {
		return a.writeUserUnit()
	}
	return a.removeUserUnit()
}

func (a *Autostart) DesktopEntryPath() string {
	return filepath.Join(a.ConfigDir, "autostart", DesktopFileName)
}

func (a *Autostart) UnitPath() string {
	return filepath.Join(a.ConfigDir, "systemd", "user", UnitFileName)
}

func (a *Autostart) writeDesktopEntry() error {
	path := a.DesktopEntryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("enable autostart: create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(buildDesktopEntry(a.AppName, a.ExecPath)), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write desktop entry: %w", err)
	}
	return nil
}

func (a *Autostart) writeUserUnit() error {
	path := a.UnitPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("enable systemd unit: create unit dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(buildUserUnit(a.AppName, a.ExecPath)), 0o644); err != nil {
		return fmt.Errorf("enable systemd unit: write unit: %w", err)
	}
	return nil
}

func (a *Autostart) removeUserUnit() error {
	if err := os.Remove(a.UnitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disable systemd unit: remove unit: %w", err)
	}
	return nil
}

func quoteExec(execPath string) string {
	if strings.Contains(execPath, " ") && !strings.HasPrefix(execPath, `"`) {
		return `"` + execPath + `"`
	}
	return execPath
}

func buildDesktopEntry(appName, execPath string) string {
	return fmt.Sprintf(
		`[Desktop Entry]
Type=Application
Name=%s
Comment=Personalized break reminder
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`,
		appName,
		quoteExec(execPath),
	)
}

func buildUserUnit(appName, execPath string) string {
	return fmt.Sprintf(
		`[Unit]
Description=%s break reminder
After=graphical-session.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure

[Install]
WantedBy=default.target
`,
		appName,
		quoteExec(execPath),
	)
}
