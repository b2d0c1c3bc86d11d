package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Lazaro theme for lazctl output.

const (
	IconBreak = "☕"
	IconClock = "⏱️"
	IconStats = "📊"
	IconUser  = "👤"
	IconBlock = "⛔"
	IconDone  = "✅"
	IconWarn  = "⚠️"
	IconEvent = "🔔"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// StatusText colours a track status or block value.
func StatusText(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "idle", "none":
		return Muted.Render(s)
	case "active":
		return Good.Render(s)
	case "pending", "snoozed", "acknowledge":
		return Warn.Render(s)
	case "until_reset":
		return Bad.Render(s)
	default:
		return Muted.Render(status)
	}
}

func EnabledText(enabled bool) string {
	if enabled {
		return Good.Render("enabled")
	}
	return Muted.Render("disabled")
}

// Seconds renders a second count as 1h02m03s, 4m05s or 20s.
func Seconds(n int64) string {
	if n < 0 {
		n = 0
	}
	d := time.Duration(n) * time.Second
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	s := int64(d%time.Minute) / int64(time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
