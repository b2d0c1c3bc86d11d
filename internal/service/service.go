package service

import (
	"github.com/carlosrm22/lazaro/internal/engine"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/profile"
	"github.com/carlosrm22/lazaro/internal/settings"
	"github.com/carlosrm22/lazaro/internal/stats"
)

// Service is the single command surface used by every front end, whether
// it calls in-process or over D-Bus.
type Service struct {
	profiles *profile.Store
	engine   *engine.Engine
	stats    *stats.Aggregator
	pub      *events.Publisher
}

// New wires the profile store to the engine so every change of the active
// settings reaches the scheduler.
func New(profiles *profile.Store, eng *engine.Engine, agg *stats.Aggregator, pub *events.Publisher) *Service {
	profiles.OnChange(eng.ApplySettings)
	return &Service{profiles: profiles, engine: eng, stats: agg, pub: pub}
}

func (s *Service) GetSettings() settings.Settings {
	return s.profiles.Get()
}

func (s *Service) UpdateSettings(next settings.Settings) (settings.Settings, error) {
	return s.profiles.Update(next)
}

func (s *Service) GetWeeklyStats() stats.WeeklyStats {
	return s.stats.WeeklyStats()
}

// GetDailyHistory returns the last days of per-day counters, oldest first.
func (s *Service) GetDailyHistory(days int) []stats.DailyStats {
	return s.stats.DailyHistory(days)
}

func (s *Service) GetRuntimeStatus() engine.Snapshot {
	return s.engine.Status()
}

func (s *Service) ListProfiles() []profile.Profile {
	return s.profiles.List()
}

func (s *Service) SaveProfile(p profile.Profile) (profile.Profile, error) {
	return s.profiles.Save(p)
}

func (s *Service) ActivateProfile(id string) error {
	return s.profiles.Activate(id)
}

func (s *Service) RemoveProfile(id string) error {
	return s.profiles.Remove(id)
}

func (s *Service) StartRuntime() error {
	return s.engine.StartRuntime()
}

func (s *Service) StopRuntime() error {
	return s.engine.StopRuntime()
}

func (s *Service) StartPendingBreak() error {
	return s.engine.StartPendingBreak()
}

func (s *Service) SnoozePendingBreak() error {
	return s.engine.SnoozePendingBreak()
}

func (s *Service) SkipBreak() error {
	return s.engine.SkipBreak()
}

func (s *Service) AcknowledgeBlock() error {
	return s.engine.AcknowledgeBlock()
}

func (s *Service) TriggerBreak(kind string) error {
	k, err := settings.ParseBreakKind(kind)
	if err != nil {
		return err
	}
	return s.engine.TriggerBreak(k)
}

// SetStartupMode installs the autostart entries and records the resulting
// toggles on the active profile.
func (s *Service) SetStartupMode(mode string) error {
	m, err := settings.ParseStartupMode(mode)
	if err != nil {
		return err
	}
	if err := s.engine.SetStartupMode(m); err != nil {
		return err
	}

	_, err = s.profiles.SetStartup(m.Startup())
	return err
}

// EventsSince returns retained events newer than seq.
func (s *Service) EventsSince(seq uint64) []events.Event {
	return s.pub.Since(seq)
}

// Subscribe registers an event observer; the returned func unsubscribes.
func (s *Service) Subscribe(buffer int) (<-chan events.Event, func()) {
	return s.pub.Subscribe(buffer)
}
