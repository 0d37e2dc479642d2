package helpers

import (
	"path/filepath"
	"testing"

	"github.com/filmdeck/filmdeck/internal/database"
	"github.com/stretchr/testify/require"
)

// NewTestDatabase opens a fresh SQLite database in a per-test temporary
// directory and runs the embedded migrations against it.
func NewTestDatabase(t *testing.T) database.Manager {
	db := database.New()
	require.NoError(t, db.Connect(database.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}), "failed to open test database")

	return db
}
