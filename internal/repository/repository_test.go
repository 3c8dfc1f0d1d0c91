package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"league-tracker/internal/database"
	"league-tracker/internal/db"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*sql.DB, *db.Queries) {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB, db.New(sqlDB)
}
