package media_test

import (
	"testing"
	"time"

	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func testVideo(path string, title string) *media.Video {
	return &media.Video{
		Title:   title,
		Runtime: "01:30:00",
		Path:    path,
	}
}

func Test_Store_SaveAndGet(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	video := testVideo("/library/alien.mkv", "Alien")
	require.NoError(t, store.Save(db.GetSqlxDb(), video))
	assert.Equal(t, media.IDForPath("/library/alien.mkv"), video.ID)
	assert.NotZero(t, video.CreatedAt)

	fetched, err := store.GetWithID(db.GetSqlxDb(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alien", fetched.Title)
	assert.Equal(t, "01:30:00", fetched.Runtime)

	byPath, err := store.GetWithPath(db.GetSqlxDb(), "/library/alien.mkv")
	require.NoError(t, err)
	assert.Equal(t, fetched.ID, byPath.ID)
}

// Saving the same path twice updates the existing row rather than
// inserting a duplicate, and preserves playback state.
func Test_Store_SaveIsUpsert(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	video := testVideo("/library/alien.mkv", "Alien")
	require.NoError(t, store.Save(db.GetSqlxDb(), video))
	require.NoError(t, store.RecordPlayback(db.GetSqlxDb(), video.ID))

	rescanned := testVideo("/library/alien.mkv", "Alien (1979)")
	require.NoError(t, store.Save(db.GetSqlxDb(), rescanned))

	all, err := store.List(db.GetSqlxDb())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alien (1979)", all[0].Title)
	assert.Equal(t, 1, all[0].PlayCount, "playback state must survive a rescan")
}

func Test_Store_ListOrdersByDisplayTitle(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	first := testVideo("/library/b.mkv", "B Movie")
	first.DisplayTitle = "Zebra"
	second := testVideo("/library/a.mkv", "A Movie")
	second.DisplayTitle = "Aardvark"
	require.NoError(t, store.Save(db.GetSqlxDb(), first))
	require.NoError(t, store.Save(db.GetSqlxDb(), second))

	all, err := store.List(db.GetSqlxDb())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aardvark", all[0].DisplayTitle)
	assert.Equal(t, "Zebra", all[1].DisplayTitle)
}

func Test_Store_UpdateDetails_PartialFields(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	video := testVideo("/library/alien.mkv", "Alien")
	require.NoError(t, store.Save(db.GetSqlxDb(), video))

	updated, err := store.UpdateDetails(db.GetSqlxDb(), video.ID, media.VideoUpdate{
		DisplayTitle: strPtr("Alien (Director's Cut)"),
		Favorite:     boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alien (Director's Cut)", updated.DisplayTitle)
	assert.True(t, updated.Favorite)
	assert.Equal(t, "Alien", updated.Title, "unset fields must keep their stored values")
}

func Test_Store_UpdateDetails_UnknownID(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	_, err := store.UpdateDetails(db.GetSqlxDb(), "does-not-exist", media.VideoUpdate{
		Favorite: boolPtr(true),
	})
	assert.ErrorIs(t, err, media.ErrVideoNotFound)
}

func Test_Store_Delete(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	video := testVideo("/library/alien.mkv", "Alien")
	require.NoError(t, store.Save(db.GetSqlxDb(), video))
	require.NoError(t, store.Delete(db.GetSqlxDb(), video.ID))

	_, err := store.GetWithID(db.GetSqlxDb(), video.ID)
	assert.ErrorIs(t, err, media.ErrVideoNotFound)
	assert.ErrorIs(t, store.Delete(db.GetSqlxDb(), video.ID), media.ErrVideoNotFound)
}

func Test_Store_RecordPlayback(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	video := testVideo("/library/alien.mkv", "Alien")
	require.NoError(t, store.Save(db.GetSqlxDb(), video))

	before := time.Now().Unix()
	require.NoError(t, store.RecordPlayback(db.GetSqlxDb(), video.ID))
	require.NoError(t, store.RecordPlayback(db.GetSqlxDb(), video.ID))

	fetched, err := store.GetWithID(db.GetSqlxDb(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.PlayCount)
	assert.GreaterOrEqual(t, fetched.LastPlayedAt, before)
}

func Test_Store_AllPaths(t *testing.T) {
	t.Parallel()

	db := helpers.NewTestDatabase(t)
	store := media.NewStore()

	require.NoError(t, store.Save(db.GetSqlxDb(), testVideo("/library/a.mkv", "A")))
	require.NoError(t, store.Save(db.GetSqlxDb(), testVideo("/library/b.mkv", "B")))

	paths, err := store.AllPaths(db.GetSqlxDb())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/library/a.mkv", "/library/b.mkv"}, paths)
}
