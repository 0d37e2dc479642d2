package media

import (
	"crypto/md5"
	"encoding/hex"
)

type (
	// Video is a single library entry backed by a file on disk. Runtime
	// is stored pre-formatted as HH:MM:SS, and timestamps are Unix
	// seconds, matching what the frontend renders directly.
	Video struct {
		ID              string `db:"id" json:"id"`
		Title           string `db:"title" json:"title"`
		DisplayTitle    string `db:"display_title" json:"display_title"`
		Thumbnail       string `db:"thumbnail" json:"thumbnail"`
		Runtime         string `db:"runtime" json:"runtime"`
		Path            string `db:"path" json:"path"`
		Category        string `db:"category" json:"category"`
		Description     string `db:"description" json:"description"`
		CreatedAt       int64  `db:"created_at" json:"created_at"`
		LastPlayedAt    int64  `db:"last_played_at" json:"last_played_at"`
		PlayCount       int    `db:"play_count" json:"play_count"`
		Favorite        bool   `db:"favorite" json:"favorite"`
		Tags            string `db:"tags" json:"tags"`
		Episodic        bool   `db:"episodic" json:"episodic"`
		SeriesTitle     string `db:"series_title" json:"series_title"`
		Season          int    `db:"season" json:"season"`
		Episode         int    `db:"episode" json:"episode"`
		EpisodeOverview string `db:"episode_overview" json:"episode_overview"`
	}

	// VideoUpdate carries a partial update; nil fields keep the stored
	// value.
	VideoUpdate struct {
		Title           *string `json:"title"`
		DisplayTitle    *string `json:"display_title"`
		Thumbnail       *string `json:"thumbnail"`
		Category        *string `json:"category"`
		Description     *string `json:"description"`
		Favorite        *bool   `json:"favorite"`
		Tags            *string `json:"tags"`
		Episodic        *bool   `json:"episodic"`
		SeriesTitle     *string `json:"series_title"`
		Season          *int    `json:"season"`
		Episode         *int    `json:"episode"`
		EpisodeOverview *string `json:"episode_overview"`
	}
)

// IDForPath derives the stable identifier for a library entry from its
// absolute file path. Moving a file therefore produces a new entry.
func IDForPath(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}
