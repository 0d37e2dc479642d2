package subtitle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/internal/subtitle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libraryDir(t *testing.T, files ...string) string {
	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	return dir
}

func videoAt(dir string, filename string) *media.Video {
	return &media.Video{Path: filepath.Join(dir, filename)}
}

func Test_FindForVideo_ExactStemMatchWins(t *testing.T) {
	t.Parallel()

	dir := libraryDir(t, "Alien.1979.mkv", "Alien.1979.srt", "Alien.1979.en.srt")
	finder := subtitle.Finder{}

	found, err := finder.FindForVideo(videoAt(dir, "Alien.1979.mkv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Alien.1979.srt"), found)
}

func Test_FindForVideo_LanguageTagBeatsPlain(t *testing.T) {
	t.Parallel()

	dir := libraryDir(t, "Alien.1979.mkv", "directors-commentary.srt", "Alien.Remastered.en.srt")
	finder := subtitle.Finder{}

	found, err := finder.FindForVideo(videoAt(dir, "Alien.1979.mkv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Alien.Remastered.en.srt"), found)
}

func Test_FindForVideo_EpisodicNeedsMarkerAndLanguage(t *testing.T) {
	t.Parallel()

	dir := libraryDir(t, "Severance.S02E05.mkv",
		"Severance.S02E04.en.srt",
		"Severance.S02E05.en.srt",
		"Severance.S02E06.srt")
	finder := subtitle.Finder{}

	video := videoAt(dir, "Severance.S02E05.mkv")
	video.Episodic = true
	video.Season = 2
	video.Episode = 5

	found, err := finder.FindForVideo(video)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Severance.S02E05.en.srt"), found)
}

// A language tag must be a whole filename component; the 'en' inside a
// word does not count.
func Test_FindForVideo_LanguageTagMustBeComponent(t *testing.T) {
	t.Parallel()

	dir := libraryDir(t, "Alien.mkv", "Tenet.srt", "Alien.extended.eng.srt")
	finder := subtitle.Finder{}

	found, err := finder.FindForVideo(videoAt(dir, "Alien.mkv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Alien.extended.eng.srt"), found)
}

func Test_FindForVideo_IgnoresNonSubtitleFiles(t *testing.T) {
	t.Parallel()

	dir := libraryDir(t, "Alien.mkv", "Alien.nfo", "poster.jpg")
	finder := subtitle.Finder{}

	_, err := finder.FindForVideo(videoAt(dir, "Alien.mkv"))
	assert.ErrorIs(t, err, subtitle.ErrNoSubtitleFound)
}

func Test_FindForVideo_NoCandidates(t *testing.T) {
	t.Parallel()

	dir := libraryDir(t, "Alien.mkv")
	finder := subtitle.Finder{}

	_, err := finder.FindForVideo(videoAt(dir, "Alien.mkv"))
	assert.ErrorIs(t, err, subtitle.ErrNoSubtitleFound)
}
