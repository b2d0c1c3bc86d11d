package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"

	"github.com/carlosrm22/lazaro/internal/engine"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/profile"
	"github.com/carlosrm22/lazaro/internal/settings"
	"github.com/carlosrm22/lazaro/internal/stats"
)

// Client calls a running daemon. Errors are typed the same way the service
// types them.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func Dial(bus string) (*Client, error) {
	conn, err := Connect(bus)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, obj: conn.Object(ServiceName, dbus.ObjectPath(ObjectPath))}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(method string, out any, args ...interface{}) error {
	call := c.obj.Call(InterfaceName+"."+method, 0, args...)
	if call.Err != nil {
		return FromDBusError(call.Err)
	}
	if out == nil {
		return nil
	}
	var payload string
	if err := call.Store(&payload); err != nil {
		return fmt.Errorf("%s: read reply: %w", method, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", method, err)
	}
	return nil
}

func (c *Client) GetSettings() (settings.Settings, error) {
	var wire settings.Wire
	if err := c.call("GetSettings", &wire); err != nil {
		return settings.Settings{}, err
	}
	return wire.Settings()
}

func (c *Client) UpdateSettings(next settings.Settings) (settings.Settings, error) {
	payload, err := json.Marshal(next.ToWire())
	if err != nil {
		return settings.Settings{}, err
	}
	var wire settings.Wire
	if err := c.call("UpdateSettings", &wire, string(payload)); err != nil {
		return settings.Settings{}, err
	}
	return wire.Settings()
}

func (c *Client) GetWeeklyStats() (stats.WeeklyStats, error) {
	var out stats.WeeklyStats
	err := c.call("GetWeeklyStats", &out)
	return out, err
}

func (c *Client) GetDailyHistory(days int) ([]stats.DailyStats, error) {
	var out []stats.DailyStats
	err := c.call("GetDailyHistory", &out, int32(days))
	return out, err
}

func (c *Client) GetRuntimeStatus() (engine.Snapshot, error) {
	var out engine.Snapshot
	err := c.call("GetRuntimeStatus", &out)
	return out, err
}

func (c *Client) ListProfiles() ([]profile.Profile, error) {
	var wires []ProfileWire
	if err := c.call("ListProfiles", &wires); err != nil {
		return nil, err
	}
	out := make([]profile.Profile, 0, len(wires))
	for _, w := range wires {
		p, err := w.Profile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) SaveProfile(p profile.Profile) (profile.Profile, error) {
	payload, err := json.Marshal(ToProfileWire(p))
	if err != nil {
		return profile.Profile{}, err
	}
	var wire ProfileWire
	if err := c.call("SaveProfile", &wire, string(payload)); err != nil {
		return profile.Profile{}, err
	}
	return wire.Profile()
}

func (c *Client) ActivateProfile(id string) error {
	return c.call("ActivateProfile", nil, id)
}

func (c *Client) RemoveProfile(id string) error {
	return c.call("RemoveProfile", nil, id)
}

func (c *Client) StartRuntime() error       { return c.call("StartRuntime", nil) }
func (c *Client) StopRuntime() error        { return c.call("StopRuntime", nil) }
func (c *Client) StartPendingBreak() error  { return c.call("StartPendingBreak", nil) }
func (c *Client) SnoozePendingBreak() error { return c.call("SnoozePendingBreak", nil) }
func (c *Client) SkipBreak() error          { return c.call("SkipBreak", nil) }
func (c *Client) AcknowledgeBlock() error   { return c.call("AcknowledgeBlock", nil) }

func (c *Client) TriggerBreak(kind string) error {
	return c.call("TriggerBreak", nil, kind)
}

func (c *Client) SetStartupMode(mode string) error {
	return c.call("SetStartupMode", nil, mode)
}

func (c *Client) EventsSince(seq uint64) ([]events.Event, error) {
	var out []events.Event
	err := c.call("EventsSince", &out, strconv.FormatUint(seq, 10))
	return out, err
}

// Follow calls fn for every event signal until ctx is done.
func (c *Client) Follow(ctx context.Context, fn func(events.Event)) error {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(ObjectPath)),
		dbus.WithMatchInterface(InterfaceName),
		dbus.WithMatchMember("Event"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-ch:
			ev, ok := decodeSignal(sig)
			if ok {
				fn(ev)
			}
		}
	}
}

func decodeSignal(sig *dbus.Signal) (events.Event, bool) {
	if sig == nil || sig.Name != EventSignal || len(sig.Body) == 0 {
		return events.Event{}, false
	}
	payload, ok := sig.Body[0].(string)
	if !ok {
		return events.Event{}, false
	}
	var ev events.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return events.Event{}, false
	}
	return ev, true
}
