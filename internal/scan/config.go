package scan

import "time"

// Config contains configuration options that allow customization of
// how the library scanner detects new video files.
type Config struct {
	// The paths of the directories the service should monitor for new
	// video files.
	LibraryPaths []string `yaml:"paths" env:"LIBRARY_PATHS" env-separator:":"`

	// The ScanService uses a directory watcher, but a 'force' sync can
	// be performed on a regular interval to protect against the watcher
	// failing.
	ForceSyncSeconds int `yaml:"force_sync_seconds" env:"LIBRARY_FORCE_SYNC_SECONDS" env-default:"300"`

	// When a new file is detected, it's likely to be an in-progress
	// download using an external software. As we cannot KNOW when the
	// download is complete, we instead wait for the 'modtime' of
	// the item to be at least this long in the past before processing.
	RequiredModTimeAgeSeconds int `yaml:"required_mod_time_age_seconds" env:"LIBRARY_MOD_TIME_AGE_SECONDS" env-default:"30"`

	// Controls the number of workers that can process newly found
	// files. Caution should be taken to not increase this value too
	// high, as processing involves talking to external APIs which may
	// impose rate limits.
	ScanParallelism int `yaml:"scan_parallelism" env:"LIBRARY_SCAN_PARALLELISM" env-default:"2"`

	// The file extensions considered video content; anything else found
	// during a scan is ignored.
	VideoExtensions []string `yaml:"video_extensions"`
}

var defaultVideoExtensions = []string{"mp4", "mkv", "avi", "mov", "webm"}

func (config *Config) RequiredModTimeAgeDuration() time.Duration {
	return time.Duration(config.RequiredModTimeAgeSeconds) * time.Second
}

func (config *Config) videoExtensions() map[string]bool {
	extensions := config.VideoExtensions
	if len(extensions) == 0 {
		extensions = defaultVideoExtensions
	}

	lookup := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		lookup[ext] = true
	}

	return lookup
}
