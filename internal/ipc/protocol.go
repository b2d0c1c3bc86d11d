package ipc

import (
	"encoding/json"
	"strconv"

	"github.com/godbus/dbus/v5"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/profile"
	"github.com/carlosrm22/lazaro/internal/service"
	"github.com/carlosrm22/lazaro/internal/settings"
)

const (
	ServiceName   = "io.github.carlosrm22.lazaro"
	ObjectPath    = "/io/github/carlosrm22/lazaro"
	InterfaceName = ServiceName + ".Engine"
	EventSignal   = InterfaceName + ".Event"
)

// ProfileWire is a profile as it crosses the bus.
type ProfileWire struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Settings settings.Wire `json:"settings"`
}

func ToProfileWire(p profile.Profile) ProfileWire {
	return ProfileWire{ID: p.ID, Name: p.Name, Settings: p.Settings.ToWire()}
}

func (w ProfileWire) Profile() (profile.Profile, error) {
	s, err := w.Settings.Settings()
	if err != nil {
		return profile.Profile{}, err
	}
	return profile.Profile{ID: w.ID, Name: w.Name, Settings: s}, nil
}

// Engine is the object exported on the bus. Structured values travel as JSON.
type Engine struct {
	svc *service.Service
}

func NewEngine(svc *service.Service) *Engine {
	return &Engine{svc: svc}
}

func (e *Engine) GetSettings() (string, *dbus.Error) {
	return encode(e.svc.GetSettings().ToWire())
}

func (e *Engine) UpdateSettings(payload string) (string, *dbus.Error) {
	var wire settings.Wire
	if err := decode("update_settings", payload, &wire); err != nil {
		return "", err
	}
	next, err := wire.Settings()
	if err != nil {
		return "", ToDBusError(err)
	}
	stored, err := e.svc.UpdateSettings(next)
	if err != nil {
		return "", ToDBusError(err)
	}
	return encode(stored.ToWire())
}

func (e *Engine) GetWeeklyStats() (string, *dbus.Error) {
	return encode(e.svc.GetWeeklyStats())
}

func (e *Engine) GetDailyHistory(days int32) (string, *dbus.Error) {
	return encode(e.svc.GetDailyHistory(int(days)))
}

func (e *Engine) GetRuntimeStatus() (string, *dbus.Error) {
	return encode(e.svc.GetRuntimeStatus())
}

func (e *Engine) ListProfiles() (string, *dbus.Error) {
	profiles := e.svc.ListProfiles()
	out := make([]ProfileWire, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToProfileWire(p))
	}
	return encode(out)
}

func (e *Engine) SaveProfile(payload string) (string, *dbus.Error) {
	var wire ProfileWire
	if err := decode("save_profile", payload, &wire); err != nil {
		return "", err
	}
	p, err := wire.Profile()
	if err != nil {
		return "", ToDBusError(err)
	}
	saved, err := e.svc.SaveProfile(p)
	if err != nil {
		return "", ToDBusError(err)
	}
	return encode(ToProfileWire(saved))
}

func (e *Engine) ActivateProfile(id string) *dbus.Error {
	return ToDBusError(e.svc.ActivateProfile(id))
}

func (e *Engine) RemoveProfile(id string) *dbus.Error {
	return ToDBusError(e.svc.RemoveProfile(id))
}

func (e *Engine) StartRuntime() *dbus.Error {
	return ToDBusError(e.svc.StartRuntime())
}

func (e *Engine) StopRuntime() *dbus.Error {
	return ToDBusError(e.svc.StopRuntime())
}

func (e *Engine) StartPendingBreak() *dbus.Error {
	return ToDBusError(e.svc.StartPendingBreak())
}

func (e *Engine) SnoozePendingBreak() *dbus.Error {
	return ToDBusError(e.svc.SnoozePendingBreak())
}

func (e *Engine) SkipBreak() *dbus.Error {
	return ToDBusError(e.svc.SkipBreak())
}

func (e *Engine) AcknowledgeBlock() *dbus.Error {
	return ToDBusError(e.svc.AcknowledgeBlock())
}

func (e *Engine) TriggerBreak(kind string) *dbus.Error {
	return ToDBusError(e.svc.TriggerBreak(kind))
}

func (e *Engine) SetStartupMode(mode string) *dbus.Error {
	return ToDBusError(e.svc.SetStartupMode(mode))
}

// EventsSince takes the sequence as a decimal string so clients without
// uint64 support can pass it through.
func (e *Engine) EventsSince(seq string) (string, *dbus.Error) {
	n := uint64(0)
	if seq != "" {
		parsed, err := strconv.ParseUint(seq, 10, 64)
		if err != nil {
			return "", ToDBusError(apperr.New(apperr.KindValidation, "events_since", "invalid sequence %q", seq))
		}
		n = parsed
	}
	return encode(e.svc.EventsSince(n))
}

func encode(v any) (string, *dbus.Error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

func decode(op, payload string, v any) *dbus.Error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return ToDBusError(apperr.Wrap(apperr.KindValidation, op, err))
	}
	return nil
}
