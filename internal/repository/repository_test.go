package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"farmap/api/internal/config"
	"farmap/api/internal/database"
	"farmap/api/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, fid int64) models.User {
	t.Helper()

	name := "tester"
	user, err := NewUserRepository(db).Create(context.Background(), fid, &name, nil)
	require.NoError(t, err)
	return user
}
