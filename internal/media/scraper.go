package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/filmdeck/filmdeck/internal/matroska"
	"github.com/filmdeck/filmdeck/pkg/logger"
)

type FileMetadata struct {
	Title         string
	Episodic      bool
	SeasonNumber  int
	EpisodeNumber int
	Runtime       string
	Year          *int
}

// MetadataScraper extracts searchable metadata for a media file: title
// and series information from the filename, and the runtime from the
// container itself.
type MetadataScraper struct{}

var (
	scraperLogger = logger.Get("Scraper")

	seasonEpisodeMatcher = regexp.MustCompile(`(?i)^(.+?)[\s._-]*S(\d{1,2})[\s._-]*E(\d{1,2})`)
	bareEpisodeMatcher   = regexp.MustCompile(`(?i)^(.+?)[\s._-]*E(\d{1,2})\b`)
	movieYearMatcher     = regexp.MustCompile(`^(.*?)\b((?:19|20)\d{2})\b`)
	separatorMatcher     = regexp.MustCompile(`[._-]`)
)

// ScrapeFileForMediaInfo accepts a file path and extracts the metadata
// needed to register the file and search third-party services for it.
//
// Title and episode/season information come from the filename; the
// runtime comes from the container bytes. A file whose duration cannot
// be read is still scraped, with a zero runtime.
func (scraper *MetadataScraper) ScrapeFileForMediaInfo(path string) (*FileMetadata, error) {
	output := FileMetadata{
		SeasonNumber:  1,
		EpisodeNumber: 1,
	}

	filename := filepath.Base(path)
	scraper.extractTitleInformation(strings.TrimSuffix(filename, filepath.Ext(filename)), &output)
	output.Runtime = scraper.extractRuntime(path)

	return &output, nil
}

// extractTitleInformation finds the title, optional year, and season or
// episode numbering in the filename. A name matching no pattern is
// treated as a movie titled with the cleaned filename.
func (scraper *MetadataScraper) extractTitleInformation(name string, output *FileMetadata) {
	if groups := seasonEpisodeMatcher.FindStringSubmatch(name); groups != nil {
		output.Episodic = true
		output.Title = cleanTitle(groups[1])
		output.SeasonNumber = convertToInt(groups[2], 1)
		output.EpisodeNumber = convertToInt(groups[3], 1)

		return
	}

	// A bare E05 marker implies season one.
	if groups := bareEpisodeMatcher.FindStringSubmatch(name); groups != nil {
		output.Episodic = true
		output.Title = cleanTitle(groups[1])
		output.EpisodeNumber = convertToInt(groups[2], 1)

		return
	}

	if groups := movieYearMatcher.FindStringSubmatch(name); groups != nil && cleanTitle(groups[1]) != "" {
		output.Title = cleanTitle(groups[1])
		year := convertToInt(groups[2], 0)
		output.Year = &year

		return
	}

	output.Title = cleanTitle(name)
}

// extractRuntime reads the duration from the container and renders it
// as HH:MM:SS. Extraction failure is logged and reported as a zero
// runtime so that an unreadable file can still join the library.
func (scraper *MetadataScraper) extractRuntime(path string) string {
	meta, err := matroska.Extract(path)
	if err != nil {
		scraperLogger.Debugf("Failed to read duration of %s: %v\n", path, err)
		return FormatRuntime(0)
	}

	return FormatRuntime(meta.DurationSeconds)
}

// FormatRuntime renders a duration in seconds as HH:MM:SS. Each
// component truncates, so sub-second durations render as 00:00:00.
func FormatRuntime(seconds float64) string {
	whole := uint64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", whole/3600, whole%3600/60, whole%60)
}

// cleanTitle normalizes the separator characters release names use in
// place of spaces and collapses the resulting whitespace.
func cleanTitle(raw string) string {
	cleaned := separatorMatcher.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

func convertToInt(input string, fallback int) int {
	v, err := strconv.Atoi(input)
	if err != nil {
		return fallback
	}

	return v
}
