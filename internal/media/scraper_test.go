package media_test

import (
	"path/filepath"
	"testing"

	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func Test_ScrapeFileForMediaInfo_TitleExtraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		expected media.FileMetadata
	}{
		{
			"season and episode markers",
			"Severance.S02E05.1080p.WEB.mkv",
			media.FileMetadata{Title: "Severance", Episodic: true, SeasonNumber: 2, EpisodeNumber: 5},
		},
		{
			"lowercase markers with spaces",
			"the expanse s1 e9.mkv",
			media.FileMetadata{Title: "the expanse", Episodic: true, SeasonNumber: 1, EpisodeNumber: 9},
		},
		{
			"bare episode marker implies season one",
			"Planet.Earth.E07.mkv",
			media.FileMetadata{Title: "Planet Earth", Episodic: true, SeasonNumber: 1, EpisodeNumber: 7},
		},
		{
			"movie with year",
			"Transformers.One.2024.HDR.2160p.WEB.h265.mkv",
			media.FileMetadata{Title: "Transformers One", SeasonNumber: 1, EpisodeNumber: 1, Year: intPtr(2024)},
		},
		{
			"no markers falls back to cleaned filename",
			"Some_Home_Video.mkv",
			media.FileMetadata{Title: "Some Home Video", SeasonNumber: 1, EpisodeNumber: 1},
		},
	}

	scraper := media.MetadataScraper{}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// The file does not exist, so the runtime always reads as zero.
			result, err := scraper.ScrapeFileForMediaInfo(filepath.Join(t.TempDir(), tt.filename))
			require.NoError(t, err)

			assert.Equal(t, tt.expected.Title, result.Title)
			assert.Equal(t, tt.expected.Episodic, result.Episodic)
			assert.Equal(t, tt.expected.SeasonNumber, result.SeasonNumber)
			assert.Equal(t, tt.expected.EpisodeNumber, result.EpisodeNumber)
			assert.Equal(t, "00:00:00", result.Runtime)
			if tt.expected.Year != nil {
				require.NotNil(t, result.Year)
				assert.Equal(t, *tt.expected.Year, *result.Year)
			}
		})
	}
}

func Test_FormatRuntime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"zero", 0, "00:00:00"},
		{"sub-second truncates to zero", 0.12, "00:00:00"},
		{"two minutes", 120.0, "00:02:00"},
		{"hours minutes seconds", 7384.0, "02:03:04"},
		{"fraction truncates", 59.999, "00:00:59"},
		{"over a day keeps counting hours", 90000.0, "25:00:00"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, media.FormatRuntime(tt.seconds))
		})
	}
}

func Test_IDForPath_IsStable(t *testing.T) {
	t.Parallel()

	a := media.IDForPath("/library/movies/alien.mkv")
	b := media.IDForPath("/library/movies/alien.mkv")
	other := media.IDForPath("/library/movies/aliens.mkv")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Len(t, a, 32)
}
