package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/settings"
)

const (
	FileName    = "profiles.yaml"
	fileVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Profile is a named settings bundle.
type Profile struct {
	ID       string
	Name     string
	Settings settings.Settings
}

// ChangeFunc receives the active settings whenever they change.
type ChangeFunc func(settings.Settings)

// Store owns the profile collection and the active profile pointer.
// Every mutation rewrites the whole file; a failed write leaves memory as it was.
type Store struct {
	path string

	mu          sync.Mutex
	activeID    string
	profiles    map[string]Profile
	onChange    ChangeFunc
	lastWritten []byte
}

// Open loads the store at path, creating it with the default profile when
// the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Wrap(apperr.KindPersistence, "open_profiles", err)
		}
		s.activeID = settings.DefaultProfileID
		s.profiles = map[string]Profile{settings.DefaultProfileID: defaultProfile()}
		if err := s.writeLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}

	activeID, profiles, err := decode(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "open_profiles", err)
	}
	s.activeID = activeID
	s.profiles = profiles
	s.lastWritten = data
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// OnChange registers the callback told about new active settings. It runs
// with the store locked, so it must not call back into the store.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Get returns the active profile's settings.
func (s *Store) Get() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// ActiveID returns the id of the active profile.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Update validates next and writes it onto the profile it names, making that
// profile active. An empty ActiveProfileID means the current active profile.
func (s *Store) Update(next settings.Settings) (settings.Settings, error) {
	if err := next.Validate(); err != nil {
		return settings.Settings{}, err
	}
	next = next.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	target := next.ActiveProfileID
	if target == "" {
		target = s.activeID
	}
	p, ok := s.profiles[target]
	if !ok {
		return settings.Settings{}, apperr.New(apperr.KindValidation, "update_settings", "active_profile_id %q does not reference a profile", target)
	}

	before := s.activeLocked()
	err := s.mutateLocked(func() {
		next.ActiveProfileID = ""
		p.Settings = next
		s.profiles[target] = p
		s.activeID = target
	})
	if err != nil {
		return settings.Settings{}, err
	}
	s.notifyLocked(before)
	return s.activeLocked(), nil
}

// SetStartup records the autostart toggles on whichever profile is active
// when the store lock is taken.
func (s *Store) SetStartup(startup settings.Startup) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.activeLocked()
	if before.Startup == startup {
		return before, nil
	}
	id := s.activeID
	err := s.mutateLocked(func() {
		p := s.profiles[id]
		p.Settings.Startup = startup
		s.profiles[id] = p
	})
	if err != nil {
		return settings.Settings{}, err
	}
	s.notifyLocked(before)
	return s.activeLocked(), nil
}

// List returns every profile sorted by id.
func (s *Store) List() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Save creates or overwrites a profile by id.
func (s *Store) Save(p Profile) (Profile, error) {
	p.ID = strings.TrimSpace(p.ID)
	if !idPattern.MatchString(p.ID) {
		return Profile{}, apperr.New(apperr.KindValidation, "save_profile", "invalid profile id %q", p.ID)
	}
	if err := p.Settings.Validate(); err != nil {
		return Profile{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = p.ID
	}
	p.Settings = p.Settings.Normalize()
	p.Settings.ActiveProfileID = ""

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.activeLocked()
	if err := s.mutateLocked(func() { s.profiles[p.ID] = p }); err != nil {
		return Profile{}, err
	}
	s.notifyLocked(before)
	return p, nil
}

// Activate makes id the active profile. Activating the active profile is a no-op.
func (s *Store) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return apperr.New(apperr.KindNotFound, "activate_profile", "profile %q not found", id)
	}
	if id == s.activeID {
		return nil
	}

	before := s.activeLocked()
	if err := s.mutateLocked(func() { s.activeID = id }); err != nil {
		return err
	}
	s.notifyLocked(before)
	return nil
}

// Remove deletes a profile. The default profile cannot be removed; removing
// the active one falls back to default.
func (s *Store) Remove(id string) error {
	if id == settings.DefaultProfileID {
		return apperr.New(apperr.KindProtected, "remove_profile", "profile %q cannot be removed", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return apperr.New(apperr.KindNotFound, "remove_profile", "profile %q not found", id)
	}

	before := s.activeLocked()
	err := s.mutateLocked(func() {
		delete(s.profiles, id)
		if s.activeID == id {
			s.activeID = settings.DefaultProfileID
		}
	})
	if err != nil {
		return err
	}
	s.notifyLocked(before)
	return nil
}

func (s *Store) activeLocked() settings.Settings {
	out := s.profiles[s.activeID].Settings
	out.ActiveProfileID = s.activeID
	return out
}

func (s *Store) notifyLocked(before settings.Settings) {
	after := s.activeLocked()
	if after == before || s.onChange == nil {
		return
	}
	s.onChange(after)
}

// mutateLocked applies fn and persists. If the write fails the previous
// collection is restored.
func (s *Store) mutateLocked(fn func()) error {
	prevActive := s.activeID
	prevProfiles := make(map[string]Profile, len(s.profiles))
	for id, p := range s.profiles {
		prevProfiles[id] = p
	}

	fn()
	if err := s.writeLocked(); err != nil {
		s.activeID = prevActive
		s.profiles = prevProfiles
		return err
	}
	return nil
}

// writeLocked atomically writes the store file.
func (s *Store) writeLocked() error {
	data, err := encode(s.activeID, s.profiles)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "write_profiles", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "write_profiles", fmt.Errorf("create state directory: %w", err))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "write_profiles", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.KindPersistence, "write_profiles", err)
	}
	s.lastWritten = data
	return nil
}

// reload replaces the collection with the file contents if they differ from
// what this store last wrote.
func (s *Store) reload() (changed bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if bytes.Equal(data, s.lastWritten) {
		return false, nil
	}
	activeID, profiles, err := decode(data)
	if err != nil {
		return false, err
	}

	before := s.activeLocked()
	s.activeID = activeID
	s.profiles = profiles
	s.lastWritten = data
	s.notifyLocked(before)
	return true, nil
}

func defaultProfile() Profile {
	def := settings.Default()
	def.ActiveProfileID = ""
	return Profile{ID: settings.DefaultProfileID, Name: "Default", Settings: def}
}

type fileProfile struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Settings settings.Wire `yaml:"settings"`
}

type fileData struct {
	Version         int                    `yaml:"version"`
	ActiveProfileID string                 `yaml:"active_profile_id"`
	Profiles        map[string]fileProfile `yaml:"profiles"`
}

func encode(activeID string, profiles map[string]Profile) ([]byte, error) {
	fd := fileData{
		Version:         fileVersion,
		ActiveProfileID: activeID,
		Profiles:        make(map[string]fileProfile, len(profiles)),
	}
	for id, p := range profiles {
		fd.Profiles[id] = fileProfile{ID: p.ID, Name: p.Name, Settings: p.Settings.ToWire()}
	}
	data, err := yaml.Marshal(fd)
	if err != nil {
		return nil, fmt.Errorf("marshal profiles yaml: %w", err)
	}
	return data, nil
}

// decode parses and validates a store file. A missing default profile is
// restored and a dangling active id falls back to default.
func decode(data []byte) (string, map[string]Profile, error) {
	var fd fileData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return "", nil, fmt.Errorf("parse profiles yaml: %w", err)
	}
	if fd.Version > fileVersion {
		return "", nil, fmt.Errorf("unsupported profiles version %d", fd.Version)
	}

	profiles := make(map[string]Profile, len(fd.Profiles)+1)
	for key, fp := range fd.Profiles {
		if !idPattern.MatchString(key) {
			return "", nil, fmt.Errorf("invalid profile id %q", key)
		}
		s, err := fp.Settings.Settings()
		if err != nil {
			return "", nil, fmt.Errorf("profile %q: %w", key, err)
		}
		s.ActiveProfileID = ""
		name := strings.TrimSpace(fp.Name)
		if name == "" {
			name = key
		}
		profiles[key] = Profile{ID: key, Name: name, Settings: s}
	}
	if _, ok := profiles[settings.DefaultProfileID]; !ok {
		profiles[settings.DefaultProfileID] = defaultProfile()
	}

	activeID := fd.ActiveProfileID
	if _, ok := profiles[activeID]; !ok {
		activeID = settings.DefaultProfileID
	}
	return activeID, profiles, nil
}
