package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fystack/internal/stack"
	"fystack/internal/stacktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), func(msg string) { t.Log(msg) })
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenInDirectory(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, filepath.Join(dir, dbFileName), db.Path())
	_, err = os.Stat(db.Path())
	assert.NoError(t, err)
}

func TestIndexRoundTrip(t *testing.T) {
	db := openTestDB(t)
	key := stack.IndexKey{Path: "/data/cells.tif", Size: 1234, ModTime: 99}
	pages := []stack.Page{{Offset: 8, Width: 4, Height: 3, Samples: 1}, {Offset: 200, Width: 4, Height: 3, Samples: 1}}

	_, ok := db.LoadIndex(key)
	assert.False(t, ok)

	require.NoError(t, db.SaveIndex(key, pages))
	got, ok := db.LoadIndex(key)
	require.True(t, ok)
	assert.Equal(t, pages, got)

	changed := key
	changed.ModTime = 100
	_, ok = db.LoadIndex(changed)
	assert.False(t, ok, "a newer file version must miss")

	resized := key
	resized.Size = 1
	_, ok = db.LoadIndex(resized)
	assert.False(t, ok)

	paths, err := db.IndexedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/cells.tif"}, paths)

	require.NoError(t, db.DeleteIndex(key.Path))
	_, ok = db.LoadIndex(key)
	assert.False(t, ok)
}

func TestCleanMissing(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()

	keep := stacktest.WriteGrayStack(t, dir, "keep.tif", 2, 2, 2)
	changed := stacktest.WriteGrayStack(t, dir, "changed.tif", 2, 2, 2)
	gone := stacktest.WriteGrayStack(t, dir, "gone.tif", 2, 2, 2)

	for _, p := range []string{keep, changed, gone} {
		h, err := stack.Open(p, db)
		require.NoError(t, err)
		require.NoError(t, h.Close())
	}

	require.NoError(t, os.Remove(gone))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(changed, later, later))

	removed, err := db.CleanMissing()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	paths, err := db.IndexedPaths()
	require.NoError(t, err)
	abs, _ := filepath.Abs(keep)
	assert.Equal(t, []string{abs}, paths)

	removed, err = db.CleanMissing()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRecentRoundTrip(t *testing.T) {
	db := openTestDB(t)

	paths, err := db.LoadRecent()
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, db.SaveRecent([]string{"b.tif", "a.tif"}))
	paths, err = db.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.tif", "a.tif"}, paths)

	require.NoError(t, db.SaveRecent(nil))
	paths, err = db.LoadRecent()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	db, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.SaveRecent([]string{"x.tif"}))
	require.NoError(t, db.Close())

	db, err = Open(path, nil)
	require.NoError(t, err)
	defer db.Close()
	paths, err := db.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"x.tif"}, paths)
}

func TestOpenLockedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = Open(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
