// Package subtitle locates the best external subtitle file for a
// library entry. Candidates are gathered from the directory of the
// video file and ranked: an exact filename match wins, then a file
// carrying both the episode marker and a language tag, then any file
// with a language tag.
package subtitle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/pkg/logger"
)

var (
	log = logger.Get("Subtitle")

	ErrNoSubtitleFound = errors.New("no suitable subtitle found")

	subtitleExtensions = map[string]bool{"srt": true, "ass": true, "vtt": true}
	languageKeywords   = []string{"en", "eng", "english", "zh", "chs", "cht", "cn", "chinese"}
)

type Finder struct{}

// FindForVideo searches the directory containing the video for
// subtitle files and returns the path of the highest ranked candidate.
func (finder *Finder) FindForVideo(video *media.Video) (string, error) {
	dir := filepath.Dir(video.Path)
	candidates, err := collectCandidates(dir)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrNoSubtitleFound
	}

	best := chooseBest(video, candidates)
	log.Debugf("Best subtitle for %s: %s\n", video.Path, best)
	return best, nil
}

func collectCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	candidates := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), ".")
		if subtitleExtensions[ext] {
			candidates = append(candidates, filepath.Join(dir, entry.Name()))
		}
	}

	return candidates, nil
}

// chooseBest ranks the candidates against the video and returns the
// first highest scoring path. Ties keep the earliest candidate, which
// preserves directory order.
func chooseBest(video *media.Video, candidates []string) string {
	videoStem := fileStem(video.Path)
	episodeMarker := ""
	if video.Episodic {
		episodeMarker = fmt.Sprintf("S%02dE%02d", video.Season, video.Episode)
	}

	best := candidates[0]
	bestScore := -1
	for _, candidate := range candidates {
		score := scoreCandidate(videoStem, episodeMarker, fileStem(candidate))
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}

func scoreCandidate(videoStem string, episodeMarker string, subtitleStem string) int {
	if subtitleStem == videoStem {
		return 3
	}

	hasLanguageTag := containsLanguageKeyword(subtitleStem)
	if episodeMarker != "" {
		if strings.Contains(strings.ToUpper(subtitleStem), episodeMarker) && hasLanguageTag {
			return 2
		}

		return 1
	}

	if hasLanguageTag {
		return 2
	}

	return 1
}

// containsLanguageKeyword reports whether a dot separated component of
// the stem is a known language tag. Matching whole components avoids
// false positives like the 'en' inside a title.
func containsLanguageKeyword(stem string) bool {
	components := strings.FieldsFunc(strings.ToLower(stem), func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	})

	for _, component := range components {
		for _, keyword := range languageKeywords {
			if component == keyword {
				return true
			}
		}
	}

	return false
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
