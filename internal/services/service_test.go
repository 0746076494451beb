package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rzaleman/taskman-be/internal/auth"
	"github.com/rzaleman/taskman-be/internal/database"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a throwaway file-backed sqlite database with the full
// schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestUserService(t *testing.T) (*UserService, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewUserService(db, auth.NewTokenManager("test-secret")), db
}
