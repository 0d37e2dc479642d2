package media

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/filmdeck/filmdeck/internal/database"
)

var ErrVideoNotFound = errors.New("video does not exist")

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// List returns every library entry, ordered by the scraped display
// title with the raw title as a tiebreak, matching the order the
// library view renders in.
func (store *Store) List(db database.Queryable) ([]*Video, error) {
	query, args, err := selectVideoBuilder().
		OrderBy("display_title ASC", "title ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list videos query: %w", err)
	}

	var results []*Video
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return results, nil
}

func (store *Store) GetWithID(db database.Queryable, id string) (*Video, error) {
	query, args, err := selectVideoBuilder().Where("id=?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select video query: %w", err)
	}

	var video Video
	if err := db.Get(&video, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	return &video, nil
}

func (store *Store) GetWithPath(db database.Queryable, path string) (*Video, error) {
	return store.GetWithID(db, IDForPath(path))
}

// AllPaths returns the source path of every known entry; the scanner
// uses this to decide which files on disk are new.
func (store *Store) AllPaths(db database.Queryable) ([]string, error) {
	var paths []string
	if err := db.Select(&paths, `SELECT path FROM videos`); err != nil {
		return nil, err
	}

	return paths, nil
}

// Save upserts the provided video. The ID is derived from the path, so
// re-scanning an existing file updates the stored row in place.
func (store *Store) Save(db database.Queryable, video *Video) error {
	if video.ID == "" {
		video.ID = IDForPath(video.Path)
	}
	if video.CreatedAt == 0 {
		video.CreatedAt = time.Now().Unix()
	}

	_, err := db.NamedExec(`
		INSERT INTO videos(id, title, display_title, thumbnail, runtime, path, category, description,
			created_at, last_played_at, play_count, favorite, tags,
			episodic, series_title, season, episode, episode_overview)
		VALUES(:id, :title, :display_title, :thumbnail, :runtime, :path, :category, :description,
			:created_at, :last_played_at, :play_count, :favorite, :tags,
			:episodic, :series_title, :season, :episode, :episode_overview)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, display_title=excluded.display_title,
			thumbnail=excluded.thumbnail, runtime=excluded.runtime,
			category=excluded.category, description=excluded.description,
			tags=excluded.tags, episodic=excluded.episodic,
			series_title=excluded.series_title, season=excluded.season,
			episode=excluded.episode, episode_overview=excluded.episode_overview
	`, video)
	if err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", video.Path, err)
	}

	return nil
}

// UpdateDetails applies the non-nil fields of the update to the stored
// row and returns the updated entry.
func (store *Store) UpdateDetails(db database.Queryable, id string, update VideoUpdate) (*Video, error) {
	builder := squirrel.Update("videos").Where("id=?", id)

	setIfPresent := func(column string, value any) {
		switch v := value.(type) {
		case *string:
			if v != nil {
				builder = builder.Set(column, *v)
			}
		case *bool:
			if v != nil {
				builder = builder.Set(column, *v)
			}
		case *int:
			if v != nil {
				builder = builder.Set(column, *v)
			}
		}
	}

	setIfPresent("title", update.Title)
	setIfPresent("display_title", update.DisplayTitle)
	setIfPresent("thumbnail", update.Thumbnail)
	setIfPresent("category", update.Category)
	setIfPresent("description", update.Description)
	setIfPresent("favorite", update.Favorite)
	setIfPresent("tags", update.Tags)
	setIfPresent("episodic", update.Episodic)
	setIfPresent("series_title", update.SeriesTitle)
	setIfPresent("season", update.Season)
	setIfPresent("episode", update.Episode)
	setIfPresent("episode_overview", update.EpisodeOverview)

	query, args, err := builder.ToSql()
	if err != nil {
		// An update with no fields set produces an invalid statement;
		// treat it as a no-op fetch.
		return store.GetWithID(db, id)
	}

	result, err := db.Exec(db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update video %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrVideoNotFound
	}

	return store.GetWithID(db, id)
}

func (store *Store) Delete(db database.Queryable, id string) error {
	result, err := db.Exec(`DELETE FROM videos WHERE id=?`, id)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

// RecordPlayback bumps the play count and stamps the last played time.
func (store *Store) RecordPlayback(db database.Queryable, id string) error {
	result, err := db.Exec(
		`UPDATE videos SET play_count=play_count+1, last_played_at=? WHERE id=?`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

func selectVideoBuilder() squirrel.SelectBuilder {
	return squirrel.Select("*").From("videos")
}
