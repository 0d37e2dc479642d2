package tmdb

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultGenreCacheTTL = 24 * time.Hour

type (
	genreLister interface {
		ListGenres() ([]Genre, error)
	}

	// Clock abstracts time for the cache so expiry can be tested
	// without sleeping.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// GenreCache lazily fetches the TMDB genre table and serves lookups
	// from memory until the entry expires. Concurrent misses share a
	// single upstream fetch.
	GenreCache struct {
		lister genreLister
		clock  Clock
		ttl    time.Duration

		mutex   sync.Mutex
		flight  singleflight.Group
		genres  map[int64]string
		expires time.Time
	}
)

func (systemClock) Now() time.Time { return time.Now() }

func NewGenreCache(lister genreLister) *GenreCache {
	return NewGenreCacheWithClock(lister, systemClock{}, defaultGenreCacheTTL)
}

func NewGenreCacheWithClock(lister genreLister, clock Clock, ttl time.Duration) *GenreCache {
	return &GenreCache{
		lister: lister,
		clock:  clock,
		ttl:    ttl,
	}
}

// GenreNames resolves the given genre IDs to a comma separated list of
// display names. Unknown IDs are skipped rather than failing the whole
// lookup.
func (cache *GenreCache) GenreNames(ids []int64) (string, error) {
	genres, err := cache.table()
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := genres[id]; ok {
			names = append(names, name)
		}
	}

	return strings.Join(names, ", "), nil
}

func (cache *GenreCache) table() (map[int64]string, error) {
	cache.mutex.Lock()
	if cache.genres != nil && cache.clock.Now().Before(cache.expires) {
		genres := cache.genres
		cache.mutex.Unlock()
		return genres, nil
	}
	cache.mutex.Unlock()

	result, err, _ := cache.flight.Do("genres", func() (any, error) {
		listed, err := cache.lister.ListGenres()
		if err != nil {
			return nil, err
		}

		table := make(map[int64]string, len(listed))
		for _, genre := range listed {
			table[genre.Id] = genre.Name
		}

		cache.mutex.Lock()
		cache.genres = table
		cache.expires = cache.clock.Now().Add(cache.ttl)
		cache.mutex.Unlock()

		return table, nil
	})
	if err != nil {
		// A failed refresh with a previously cached table serves stale
		// data rather than erroring.
		cache.mutex.Lock()
		defer cache.mutex.Unlock()
		if cache.genres != nil {
			return cache.genres, nil
		}

		return nil, err
	}

	return result.(map[int64]string), nil
}
