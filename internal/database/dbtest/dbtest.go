// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"testing"

	"github.com/mantonx/moviedb/internal/database"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLite returns a migrated in-memory catalog database that is closed
// when the test ends.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.OpenDialector(sqlite.Open(":memory:"), false)
	require.NoError(t, err)

	// every pooled connection would get its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// SeedCategories inserts categories by name.
func SeedCategories(t testing.TB, db *gorm.DB, names ...string) []models.Category {
	t.Helper()
	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		c := models.Category{Name: name}
		require.NoError(t, db.Create(&c).Error)
		categories = append(categories, c)
	}
	return categories
}
