package tmdb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenreLister struct {
	calls  int
	genres []Genre
	err    error
}

func (lister *fakeGenreLister) ListGenres() ([]Genre, error) {
	lister.calls++
	return lister.genres, lister.err
}

type fakeClock struct{ now time.Time }

func (clock *fakeClock) Now() time.Time { return clock.now }

func (clock *fakeClock) advance(d time.Duration) { clock.now = clock.now.Add(d) }

func Test_GenreCache_ResolvesAndCaches(t *testing.T) {
	t.Parallel()

	lister := &fakeGenreLister{genres: []Genre{
		{Id: 27, Name: "Horror"},
		{Id: 878, Name: "Science Fiction"},
	}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := NewGenreCacheWithClock(lister, clock, time.Hour)

	names, err := cache.GenreNames([]int64{27, 878})
	require.NoError(t, err)
	assert.Equal(t, "Horror, Science Fiction", names)

	// A second lookup inside the TTL is served from memory.
	_, err = cache.GenreNames([]int64{27})
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls)
}

func Test_GenreCache_SkipsUnknownIds(t *testing.T) {
	t.Parallel()

	lister := &fakeGenreLister{genres: []Genre{{Id: 27, Name: "Horror"}}}
	cache := NewGenreCacheWithClock(lister, &fakeClock{now: time.Unix(1000, 0)}, time.Hour)

	names, err := cache.GenreNames([]int64{27, 999})
	require.NoError(t, err)
	assert.Equal(t, "Horror", names)
}

func Test_GenreCache_RefreshesAfterExpiry(t *testing.T) {
	t.Parallel()

	lister := &fakeGenreLister{genres: []Genre{{Id: 27, Name: "Horror"}}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := NewGenreCacheWithClock(lister, clock, time.Hour)

	_, err := cache.GenreNames([]int64{27})
	require.NoError(t, err)

	clock.advance(2 * time.Hour)
	_, err = cache.GenreNames([]int64{27})
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}

// When a refresh fails but a previous table is held, stale data is
// served instead of an error.
func Test_GenreCache_ServesStaleOnRefreshFailure(t *testing.T) {
	t.Parallel()

	lister := &fakeGenreLister{genres: []Genre{{Id: 27, Name: "Horror"}}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := NewGenreCacheWithClock(lister, clock, time.Hour)

	_, err := cache.GenreNames([]int64{27})
	require.NoError(t, err)

	lister.err = errors.New("tmdb unreachable")
	clock.advance(2 * time.Hour)

	names, err := cache.GenreNames([]int64{27})
	require.NoError(t, err)
	assert.Equal(t, "Horror", names)
}

func Test_GenreCache_ErrorWithNoCachedTable(t *testing.T) {
	t.Parallel()

	lister := &fakeGenreLister{err: errors.New("tmdb unreachable")}
	cache := NewGenreCacheWithClock(lister, &fakeClock{now: time.Unix(1000, 0)}, time.Hour)

	_, err := cache.GenreNames([]int64{27})
	assert.Error(t, err)
}
