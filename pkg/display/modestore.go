package display

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// StoredMode is a custom modeline kept on disk so it can be re-created
// after an X server restart wipes runtime modes.
type StoredMode struct {
	Name            string  `toml:"name"`
	Width           uint32  `toml:"width"`
	Height          uint32  `toml:"height"`
	RefreshHz       float64 `toml:"refresh_hz"`
	ReducedBlanking bool    `toml:"reduced_blanking,omitempty"`
}

func (sm *StoredMode) Validate() error {
	if sm.Name == "" {
		return errors.New("name is required")
	}
	if sm.Width == 0 || sm.Height == 0 {
		return errors.New("width and height are required")
	}
	if sm.RefreshHz <= 0 {
		return errors.New("refresh_hz must be positive")
	}
	return nil
}

type modeFile struct {
	Modes []StoredMode `toml:"modes"`
}

// ModeStore persists custom modelines as TOML.
type ModeStore struct {
	path  string
	modes []StoredMode
}

// LoadModeStore reads the store at path, treating a missing file as empty.
func LoadModeStore(path string) (*ModeStore, error) {
	store := &ModeStore{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return store, nil
	}

	var mf modeFile
	if _, err := toml.DecodeFile(path, &mf); err != nil {
		return nil, fmt.Errorf("decode mode store %s: %w", path, err)
	}
	store.modes = mf.Modes
	return store, nil
}

// List returns the stored modes in file order.
func (s *ModeStore) List() []StoredMode {
	out := make([]StoredMode, len(s.modes))
	copy(out, s.modes)
	return out
}

// Get looks a stored mode up by name.
func (s *ModeStore) Get(name string) (StoredMode, bool) {
	for _, m := range s.modes {
		if m.Name == name {
			return m, true
		}
	}
	return StoredMode{}, false
}

// Add validates and stores a mode, replacing any entry with the same name,
// then rewrites the file.
func (s *ModeStore) Add(mode StoredMode) error {
	if err := mode.Validate(); err != nil {
		return fmt.Errorf("invalid stored mode: %w", err)
	}
	for i, m := range s.modes {
		if m.Name == mode.Name {
			s.modes[i] = mode
			return s.save()
		}
	}
	s.modes = append(s.modes, mode)
	return s.save()
}

// Remove drops a mode by name; it reports whether anything was removed.
func (s *ModeStore) Remove(name string) (bool, error) {
	for i, m := range s.modes {
		if m.Name == name {
			s.modes = append(s.modes[:i], s.modes[i+1:]...)
			return true, s.save()
		}
	}
	return false, nil
}

func (s *ModeStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(modeFile{Modes: s.modes}); err != nil {
		f.Close()
		return fmt.Errorf("encode mode store: %w", err)
	}
	return f.Close()
}
