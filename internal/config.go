package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/filmdeck/filmdeck/internal/database"
	"github.com/filmdeck/filmdeck/internal/http/tmdb"
	"github.com/filmdeck/filmdeck/internal/player"
	"github.com/filmdeck/filmdeck/internal/scan"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

const userDirSuffix = "filmdeck"

// FilmDeckConfig is the struct used to contain the various user config
// supplied by file, or manually inside the code.
type FilmDeckConfig struct {
	Scan        scan.Config             `yaml:"library"`
	Database    database.DatabaseConfig `yaml:"database"`
	Tmdb        tmdb.Config             `yaml:"tmdb"`
	Player      player.Config           `yaml:"player"`
	DataDirPath string                  `yaml:"data_dir" env:"DATA_DIR"`
	ApiHostAddr string                  `yaml:"host" env:"HOST_ADDR" env-default:"127.0.0.1"`
	ApiHostPort string                  `yaml:"port" env:"HOST_PORT" env-default:"8686"`
}

// LoadFromFile loads a YAML configuration file into a FilmDeckConfig,
// with environment variables taking precedence over file values.
func (config *FilmDeckConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from %s: %v", configPath, err.Error())
	}

	config.applyDefaults()
	return nil
}

// LoadFromEnv populates the config from environment variables only,
// for running without a config file.
func (config *FilmDeckConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment: %v", err.Error())
	}

	config.applyDefaults()
	return nil
}

func (config *FilmDeckConfig) applyDefaults() {
	dataDir := config.getDataDir()
	if config.Database.Path == "" {
		config.Database.Path = filepath.Join(dataDir, "videos.db")
	}
	if config.Player.SettingsPath == "" {
		config.Player.SettingsPath = filepath.Join(dataDir, "settings.json")
	}
	if len(config.Scan.LibraryPaths) == 0 {
		if home, err := homedir.Dir(); err == nil {
			config.Scan.LibraryPaths = []string{filepath.Join(home, "Videos")}
		}
	}
}

// getDataDir returns the directory used for the database and mutable
// settings. It will first look in the config for a value; if none is
// found, a per-user default is derived. The directory is created if it
// does not yet exist.
func (config *FilmDeckConfig) getDataDir() string {
	dir := config.DataDirPath
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			panic(fmt.Sprintf("FAILURE to derive user config dir %s", err))
		}
		dir = filepath.Join(base, userDirSuffix)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(fmt.Sprintf("FAILURE to create data dir %s: %s", dir, err))
	}

	return dir
}
