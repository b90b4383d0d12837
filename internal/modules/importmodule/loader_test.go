package importmodule

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mantonx/moviedb/internal/database/dbtest"
	movieerrors "github.com/mantonx/moviedb/internal/modules/moviemodule/errors"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const moviesTSV = "tconst\tprimaryTitle\tstartYear\truntimeMinutes\tgenres\n" +
	"tt0000001\tCarmencita\t1894\t1\tDocumentary,Short\n" +
	"tt0000002\tLe clown et ses chiens\t1892\t5\tAnimation,Short\n" +
	"tt0000003\tPauvre Pierrot\t\\N\t\\N\t\\N\n"

const ratingsTSV = "tconst\taverageRating\tnumVotes\n" +
	"tt0000001\t5.7\t1966\n" +
	"tt0000002\t5.8\t264\n" +
	"tt9999999\t\\N\t0\n"

func load(t *testing.T, db *gorm.DB, movies, ratings string) (*Stats, error) {
	t.Helper()
	return NewLoader(db).Load(context.Background(),
		Source{Name: "movies.tsv", Reader: strings.NewReader(movies)},
		Source{Name: "ratings.tsv", Reader: strings.NewReader(ratings)},
	)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestLoadSharesCategoriesAcrossRows(t *testing.T) {
	db := dbtest.NewSQLite(t)

	stats, err := load(t, db, moviesTSV, ratingsTSV)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Movies)
	assert.Equal(t, 3, stats.Categories)
	assert.Equal(t, 4, stats.Links)
	assert.Equal(t, 2, stats.RatingsLoaded)

	var short models.Category
	require.NoError(t, db.Where("name = ?", "Short").First(&short).Error)
	assert.Equal(t, int64(3), countRows(t, db, &models.Category{}))

	var shortLinks int64
	require.NoError(t, db.Model(&models.MovieCategory{}).Where("category_id = ?", short.ID).Count(&shortLinks).Error)
	assert.Equal(t, int64(2), shortLinks)
}

func TestLoadNullMarkers(t *testing.T) {
	db := dbtest.NewSQLite(t)
	_, err := load(t, db, moviesTSV, ratingsTSV)
	require.NoError(t, err)

	var pierrot models.Movie
	require.NoError(t, db.Preload("Categories").Where("imdb_tconst = ?", "tt0000003").First(&pierrot).Error)
	assert.Nil(t, pierrot.Year)
	assert.Nil(t, pierrot.Runtime)
	assert.Nil(t, pierrot.Rating)
	assert.Empty(t, pierrot.Categories)

	var carmencita models.Movie
	require.NoError(t, db.Where("imdb_tconst = ?", "tt0000001").First(&carmencita).Error)
	require.NotNil(t, carmencita.Rating)
	assert.Equal(t, 5.7, *carmencita.Rating)
	assert.Equal(t, 1894, *carmencita.Year)
}

func TestLoadReusesExistingCategories(t *testing.T) {
	db := dbtest.NewSQLite(t)
	dbtest.SeedCategories(t, db, "Short")

	stats, err := load(t, db, moviesTSV, ratingsTSV)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Categories)
	assert.Equal(t, int64(3), countRows(t, db, &models.Category{}))
}

func TestLoadMalformedRowRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		movies string
		line   int
		errMsg string
	}{
		{"wrong column count", moviesTSV + "tt0000004\tBroken\t1900\n", 5, "expected 5 columns"},
		{"non numeric year", moviesTSV + "tt0000004\tBroken\tnineteen\t1\tShort\n", 5, "invalid year"},
		{"non numeric runtime", "h\th\th\th\th\ntt0000004\tBroken\t1900\tlong\tShort\n", 2, "invalid runtime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := dbtest.NewSQLite(t)

			_, err := load(t, db, tt.movies, ratingsTSV)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, "movies.tsv", rowErr.File)
			assert.Equal(t, tt.line, rowErr.Line)

			assert.Zero(t, countRows(t, db, &models.Movie{}))
			assert.Zero(t, countRows(t, db, &models.Category{}))
			assert.Zero(t, countRows(t, db, &models.MovieCategory{}))
		})
	}
}

func TestLoadDuplicateTconstRollsBack(t *testing.T) {
	db := dbtest.NewSQLite(t)
	movies := moviesTSV + "tt0000001\tCarmencita again\t1894\t1\tShort\n"

	_, err := load(t, db, movies, ratingsTSV)
	require.Error(t, err)
	assert.ErrorIs(t, err, movieerrors.ErrDuplicateTconst)
	assert.Zero(t, countRows(t, db, &models.Movie{}))
}

func TestLoadBadRating(t *testing.T) {
	db := dbtest.NewSQLite(t)

	_, err := load(t, db, moviesTSV, "tconst\tnumVotes\ntt0000001\t12\n")
	assert.ErrorContains(t, err, "averageRating")

	_, err = load(t, db, moviesTSV, "tconst\taverageRating\ntt0000001\tgreat\n")
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "ratings.tsv", rowErr.File)
	assert.Equal(t, 2, rowErr.Line)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	moviesPath := filepath.Join(dir, "movies.tsv")
	ratingsPath := filepath.Join(dir, "ratings.tsv")
	require.NoError(t, os.WriteFile(moviesPath, []byte(moviesTSV), 0644))
	require.NoError(t, os.WriteFile(ratingsPath, []byte(ratingsTSV), 0644))

	db := dbtest.NewSQLite(t)
	stats, err := NewLoader(db).LoadFiles(context.Background(), moviesPath, ratingsPath)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Movies)

	_, err = NewLoader(db).LoadFiles(context.Background(), filepath.Join(dir, "missing.tsv"), ratingsPath)
	assert.Error(t, err)
}

func TestSplitGenres(t *testing.T) {
	assert.Equal(t, []string{"Drama", "Short"}, splitGenres("Drama,,Short,Drama"))
	assert.Nil(t, splitGenres(""))
}
