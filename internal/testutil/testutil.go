// Package testutil provides shared test helpers for config files and seeded databases.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/revise/internal/config"
	"github.com/at-ishikawa/revise/internal/database"
	"github.com/at-ishikawa/revise/internal/store"
)

// SetupTestConfig writes a config file pointing at a sqlite database inside tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`database:
  driver: sqlite
  path: %s
  connect_attempts: 1
scheduler:
  desired_retention: 0.9
  maximum_interval: 36500
`, filepath.Join(tmpDir, "data", "revise.sqlite"))

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// OpenTestDB opens a migrated in-memory sqlite database closed at the end of the test.
func OpenTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		Path:            ":memory:",
		ConnectAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, store.Migrate(context.Background(), db))
	return db
}

// SeedEntity stores an entity of the store's kind due at nextDue.
func SeedEntity(t *testing.T, s store.Store, description, group string, nextDue time.Time) int64 {
	t.Helper()

	schedule := store.Schedule{NextDue: nextDue}
	if s.Kind() == store.KindItem {
		schedule.EaseFactor = 2.5
	}
	id, err := s.Create(context.Background(), store.NewEntity{
		Description: description,
		Group:       group,
		CreatedAt:   nextDue,
		Schedule:    schedule,
	})
	require.NoError(t, err)
	return id
}
