package platform

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/settings"
)

const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Notification is one org.freedesktop.Notifications message.
type Notification struct {
	AppName    string
	ReplacesID uint32
	Icon       string
	Summary    string
	Body       string
	Urgency    byte
	Timeout    time.Duration
}

// Sender delivers a notification and returns the id the server assigned.
type Sender interface {
	Notify(n Notification) (uint32, error)
}

// DBusSender talks to the notification daemon on the session bus.
type DBusSender struct {
	conn *dbus.Conn
}

func NewDBusSender(conn *dbus.Conn) *DBusSender {
	return &DBusSender{conn: conn}
}

func (s *DBusSender) Notify(n Notification) (uint32, error) {
	obj := s.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		n.AppName,
		n.ReplacesID,
		n.Icon,
		n.Summary,
		n.Body,
		[]string{},
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(n.Urgency),
		},
		int32(n.Timeout/time.Millisecond),
	)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	return id, nil
}

// Notifier turns break events into desktop notifications. Each new
// notification replaces the previous one so only the latest stays on screen.
type Notifier struct {
	sender  Sender
	appName string
	enabled func() settings.Notifications

	mu     sync.Mutex
	lastID uint32
}

// NewNotifier sends through sender while enabled reports desktop
// notifications on. A nil enabled means always on.
func NewNotifier(sender Sender, appName string, enabled func() settings.Notifications) *Notifier {
	return &Notifier{sender: sender, appName: appName, enabled: enabled}
}

// Run consumes events until ctx is done or the channel closes.
func (n *Notifier) Run(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := n.Handle(ev); err != nil {
				log.Printf("Failed to notify %s: %v", ev.Kind, err)
			}
		}
	}
}

// Handle sends the notification for ev, if ev warrants one.
func (n *Notifier) Handle(ev events.Event) error {
	if n.enabled != nil && !n.enabled().Desktop {
		return nil
	}
	msg, ok := n.build(ev)
	if !ok {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	msg.ReplacesID = n.lastID
	id, err := n.sender.Notify(msg)
	if err != nil {
		return err
	}
	n.lastID = id
	return nil
}

func (n *Notifier) build(ev events.Event) (Notification, bool) {
	msg := Notification{
		AppName: n.appName,
		Icon:    "appointment-soon",
		Urgency: UrgencyNormal,
		Timeout: 10 * time.Second,
	}
	if ev.Payload.StrictMode {
		msg.Urgency = UrgencyCritical
	}

	var remaining time.Duration
	if ev.Payload.RemainingSeconds != nil {
		remaining = time.Duration(*ev.Payload.RemainingSeconds) * time.Second
	}

	switch ev.Kind {
	case events.BreakDue:
		msg.Summary = "Time for a break"
		msg.Body = fmt.Sprintf("%s: take %s away from the screen", ev.Message, formatTimeRemaining(remaining))
	case events.BreakStarted:
		msg.Summary = "Break started"
		msg.Body = fmt.Sprintf("%s, %s left", ev.Message, formatTimeRemaining(remaining))
	case events.BreakCompleted:
		msg.Summary = "Break finished"
		msg.Body = ev.Message
		msg.Urgency = UrgencyLow
	case events.DailyReset:
		msg.Summary = "New day"
		msg.Body = ev.Message
		msg.Urgency = UrgencyLow
	case events.Error:
		msg.Summary = "Lazaro error"
		msg.Body = ev.Message
		msg.Icon = "dialog-warning"
		msg.Urgency = UrgencyCritical
	default:
		return Notification{}, false
	}
	return msg, true
}

// formatTimeRemaining formats a duration into a human-readable string.
func formatTimeRemaining(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d hour(s) %d minute(s)", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%d minute(s)", minutes)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
