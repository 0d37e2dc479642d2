// Package player launches local video files in an external player
// process and persists the users player preferences.
package player

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/filmdeck/filmdeck/pkg/logger"
)

var log = logger.Get("Player")

type (
	Config struct {
		// SettingsPath is the location of the mutable settings file; it
		// is derived from the data dir when left empty.
		SettingsPath string `yaml:"settings_path" env:"PLAYER_SETTINGS_PATH"`
	}

	// Launcher starts playback of a file using either the configured
	// player executable or the operating systems default handler.
	Launcher struct {
		settings *SettingsStore
	}
)

func NewLauncher(settings *SettingsStore) *Launcher {
	return &Launcher{settings: settings}
}

// Play opens the file at the given path. The player process is
// detached; Play returns once the process has been spawned.
func (launcher *Launcher) Play(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot play %s: %w", path, err)
	}

	settings := launcher.settings.Current()
	cmd := playbackCommand(settings.PlayerPath, path)

	log.Infof("Launching player for %s\n", path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch player for %s: %w", path, err)
	}

	// Reap the player process in the background so it doesn't linger
	// as a zombie.
	go cmd.Wait()

	return nil
}

func playbackCommand(playerPath string, mediaPath string) *exec.Cmd {
	if playerPath != "" {
		return exec.Command(playerPath, mediaPath)
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/C", "start", "", mediaPath)
	case "darwin":
		return exec.Command("open", mediaPath)
	default:
		return exec.Command("xdg-open", mediaPath)
	}
}
