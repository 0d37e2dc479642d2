package player

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type (
	// Settings are the user tunable playback preferences, persisted as
	// JSON so they survive restarts.
	Settings struct {
		// PlayerPath is the executable to launch for playback; empty
		// means the operating systems default handler is used.
		PlayerPath string `json:"player_path" validate:"omitempty,filepath"`

		// PlayerType records the users choice between 'system' and
		// 'custom' so the frontend can restore its settings form.
		PlayerType string `json:"player_type" validate:"omitempty,oneof=system custom"`
	}

	// SettingsStore allows other parts of the application to read and
	// update the persisted player settings. All access is mutex
	// guarded; updates are written straight through to disk.
	SettingsStore struct {
		mutex    sync.RWMutex
		filePath string
		current  Settings
	}
)

func defaultSettings() Settings {
	return Settings{PlayerType: "system"}
}

// NewSettingsStore constructs a settings store backed by the file at
// the path provided. If a file already exists at the path, we will
// attempt to load the settings from that file. Errors resulting from
// malformed/missing settings are handled by falling back to defaults.
func NewSettingsStore(path string) *SettingsStore {
	store := &SettingsStore{
		filePath: path,
		current:  defaultSettings(),
	}

	if err := store.load(); err != nil {
		log.Warnf("Failed to load persisted settings from %s: %s. Defaulting.\n", path, err.Error())
	}

	return store
}

func (store *SettingsStore) Current() Settings {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	return store.current
}

// Update replaces the stored settings and persists them to disk. The
// in-memory settings are only replaced if the save succeeds.
func (store *SettingsStore) Update(settings Settings) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if err := store.save(settings); err != nil {
		return err
	}

	store.current = settings
	return nil
}

func (store *SettingsStore) load() error {
	content, err := os.ReadFile(store.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var settings Settings
	if err := json.Unmarshal(content, &settings); err != nil {
		return fmt.Errorf("settings file is malformed: %w", err)
	}

	store.current = settings
	return nil
}

func (store *SettingsStore) save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(store.filePath), 0o755); err != nil {
		return err
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(store.filePath, content, 0o644)
}
