package scan

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/filmdeck/filmdeck/internal/http/tmdb"
	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/pkg/logger"
	"github.com/google/uuid"
)

type (
	ScanItemState int

	// ScanItem is a file found in a library directory that has not yet
	// been registered in the database.
	ScanItem struct {
		ID              uuid.UUID
		Path            string
		State           ScanItemState
		Trouble         *Trouble
		ScrapedMetadata *media.FileMetadata
		OverrideTmdbID  *string
	}
)

const (
	IDLE ScanItemState = iota
	IMPORT_HOLD
	PROCESSING
	TROUBLED
	COMPLETE
)

var (
	ErrNoTrouble              = errors.New("scan item has no trouble")
	ErrScanItemNotFound       = errors.New("no scan item could be found")
	ErrResolutionIncompatible = errors.New("provided resolution method is not valid for scan trouble")
	ErrResolutionIncomplete   = errors.New("provided resolution context is missing information required to resolve the trouble")
)

// process is the main task for a scan item which:
// - Scrapes the metadata from the file
// - Searches TMDB for a match
// - Saves the video to the database
// Any of the above can encounter an error - if the error can be cast to
// the Trouble type then it should be raised as a TROUBLE on the item.
func (item *ScanItem) process(scraper scraper, searcher searcher, genres genreResolver, data dataStore) error {
	log.Emit(logger.NEW, "Beginning processing of item %s\n", item)
	if item.ScrapedMetadata == nil {
		log.Emit(logger.DEBUG, "Performing file system scrape of %s\n", item.Path)
		meta, err := scraper.ScrapeFileForMediaInfo(item.Path)
		if err != nil {
			return Trouble{error: err, tType: METADATA_FAILURE}
		} else if meta == nil {
			return Trouble{error: errors.New("metadata scrape returned no error, but nil payload received"), tType: METADATA_FAILURE}
		}

		log.Emit(logger.DEBUG, "Scraped metadata for item %s:\n%#v\n", item, meta)
		item.ScrapedMetadata = meta
	}

	video, err := item.buildVideo(searcher, genres)
	if err != nil {
		return newTrouble(err)
	}

	if err := data.SaveVideo(video); err != nil {
		return Trouble{error: err, tType: DATABASE_FAILURE}
	}

	log.Emit(logger.SUCCESS, "Saved newly scanned video %s (%s)\n", video.Title, video.ID)
	return nil
}

func (item *ScanItem) buildVideo(searcher searcher, genres genreResolver) (*media.Video, error) {
	meta := item.ScrapedMetadata
	video := &media.Video{
		Title:     meta.Title,
		Runtime:   meta.Runtime,
		Path:      item.Path,
		CreatedAt: time.Now().Unix(),
		Episodic:  meta.Episodic,
		Season:    meta.SeasonNumber,
		Episode:   meta.EpisodeNumber,
	}

	if meta.Episodic {
		series, err := item.findSeries(searcher, meta)
		if err != nil {
			return nil, err
		}

		video.DisplayTitle = fmt.Sprintf("%s S%02dE%02d", series.Name, meta.SeasonNumber, meta.EpisodeNumber)
		video.SeriesTitle = series.Name
		video.Description = series.Overview

		// The per-episode lookup enriches the entry but its failure
		// should not abandon the whole item.
		if episode, err := searcher.GetEpisode(series.Id.String(), meta.SeasonNumber, meta.EpisodeNumber); err == nil {
			video.EpisodeOverview = episode.Overview
		} else {
			log.Warnf("Failed to fetch episode details for %s: %v\n", item.Path, err)
		}

		return video, nil
	}

	movie, err := item.findMovie(searcher, meta)
	if err != nil {
		return nil, err
	}

	video.DisplayTitle = movie.Title
	video.Description = movie.Overview
	video.Thumbnail = movie.PosterURL()

	if names, err := genres.GenreNames(movie.GenreIds); err == nil {
		video.Category = names
	} else {
		log.Warnf("Failed to resolve genres for %s: %v\n", item.Path, err)
	}

	return video, nil
}

func (item *ScanItem) findSeries(searcher searcher, meta *media.FileMetadata) (*tmdb.Series, error) {
	if item.OverrideTmdbID != nil {
		// This item WAS troubled, but a resolution has provided a new
		// value for the TMDB ID which we should use now.
		tmdbID := *item.OverrideTmdbID
		item.OverrideTmdbID = nil

		log.Emit(logger.INFO, "Retrying scan item %s with provided TMDB ID override (from trouble resolution) of %s\n", item, tmdbID)
		return searcher.GetSeries(tmdbID)
	}

	return searcher.SearchForSeries(meta)
}

func (item *ScanItem) findMovie(searcher searcher, meta *media.FileMetadata) (*tmdb.Movie, error) {
	if item.OverrideTmdbID != nil {
		tmdbID := *item.OverrideTmdbID
		item.OverrideTmdbID = nil

		log.Emit(logger.INFO, "Retrying scan item %s with provided TMDB ID override (from trouble resolution) of %s\n", item, tmdbID)
		return searcher.GetMovie(tmdbID)
	}

	return searcher.SearchForMovie(meta)
}

func (item *ScanItem) modtimeDiff() (*time.Duration, error) {
	itemInfo, err := os.Stat(item.Path)
	if err != nil {
		return nil, err
	}

	diff := time.Since(itemInfo.ModTime())
	return &diff, nil
}

func (item *ScanItem) String() string {
	return fmt.Sprintf("ScanItem{ID=%s state=%s}", item.ID, item.State)
}

func (s ScanItemState) String() string {
	switch s {
	case IDLE:
		return fmt.Sprintf("IDLE[%d]", s)
	case IMPORT_HOLD:
		return fmt.Sprintf("IMPORT_HOLD[%d]", s)
	case PROCESSING:
		return fmt.Sprintf("PROCESSING[%d]", s)
	case TROUBLED:
		return fmt.Sprintf("TROUBLED[%d]", s)
	case COMPLETE:
		return fmt.Sprintf("COMPLETE[%d]", s)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}
