// Package importmodule bulk loads IMDB title and rating dumps into the catalog.
//
// The movies file is tab separated with a header row and the columns
// tconst, title, year, runtime, genres (comma separated). The ratings file is
// the IMDB title.ratings.tsv layout with at least tconst and averageRating.
// `\N` means "no value" in every column.
package importmodule

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/metrics"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/repository"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"gorm.io/gorm"
)

// progressEvery controls how often the loader logs progress.
const progressEvery = 10000

// Stats summarizes a finished load
type Stats struct {
	Movies        int           `json:"movies"`
	Categories    int           `json:"categories"` // created during this run
	Links         int           `json:"links"`
	RatingsLoaded int           `json:"ratings_loaded"`
	Duration      time.Duration `json:"duration"`
}

// Loader imports IMDB dumps. A run is all or nothing: any bad row or failed
// insert rolls back everything written by that run.
type Loader struct {
	db     *gorm.DB
	logger hclog.Logger
}

// NewLoader creates a loader writing to db
func NewLoader(db *gorm.DB) *Loader {
	return &Loader{
		db:     db,
		logger: logger.Named("loader"),
	}
}

// LoadFiles opens both files and runs Load
func (l *Loader) LoadFiles(ctx context.Context, moviesPath, ratingsPath string) (*Stats, error) {
	ratingsFile, err := os.Open(ratingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings file: %w", err)
	}
	defer ratingsFile.Close()

	moviesFile, err := os.Open(moviesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open movies file: %w", err)
	}
	defer moviesFile.Close()

	return l.Load(ctx, Source{Name: moviesPath, Reader: moviesFile}, Source{Name: ratingsPath, Reader: ratingsFile})
}

// Source is a named input stream; Name appears in row errors.
type Source struct {
	Name   string
	Reader io.Reader
}

// Load reads the ratings fully, then streams the movies inside a single
// transaction.
func (l *Loader) Load(ctx context.Context, movies, ratings Source) (*Stats, error) {
	start := time.Now()
	stats, err := l.load(ctx, movies, ratings)

	elapsed := time.Since(start)
	metrics.LoaderDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.LoaderRuns.WithLabelValues("failure").Inc()
		l.logger.Error("import failed, all changes rolled back", "error", err, "duration", elapsed.String())
		return nil, err
	}

	stats.Duration = elapsed
	metrics.LoaderRuns.WithLabelValues("success").Inc()
	metrics.LoaderRows.WithLabelValues("movie").Add(float64(stats.Movies))
	metrics.LoaderRows.WithLabelValues("category").Add(float64(stats.Categories))
	metrics.LoaderRows.WithLabelValues("link").Add(float64(stats.Links))

	l.logger.Info("import complete",
		"movies", stats.Movies,
		"categories", stats.Categories,
		"links", stats.Links,
		"ratings", stats.RatingsLoaded,
		"duration", elapsed.String(),
	)
	return stats, nil
}

func (l *Loader) load(ctx context.Context, movies, ratings Source) (*Stats, error) {
	ratingsByTconst, err := readRatings(ratings.Reader, ratings.Name)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("ratings loaded", "count", len(ratingsByTconst))

	stats := &Stats{RatingsLoaded: len(ratingsByTconst)}
	rows := newMovieReader(movies.Reader, movies.Name)

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := repository.NewCategoryRepository(tx)
		movieRepo := repository.NewMovieRepository(tx)
		// name → id for every category touched by this run
		cache := make(map[string]uint)

		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			row, err := rows.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			movie := &models.Movie{
				Title:      row.Title,
				ImdbTconst: row.Tconst,
				Year:       row.Year,
				Runtime:    row.Runtime,
			}
			if rating, ok := ratingsByTconst[row.Tconst]; ok {
				movie.Rating = &rating
			}
			if err := movieRepo.Create(ctx, movie); err != nil {
				return &RowError{File: movies.Name, Line: row.Line, Err: fmt.Errorf("%s: %w", row.Tconst, err)}
			}
			stats.Movies++

			ids := make([]uint, 0, len(row.Genres))
			for _, name := range row.Genres {
				id, ok := cache[name]
				if !ok {
					category, created, err := categories.GetOrCreate(ctx, name)
					if err != nil {
						return &RowError{File: movies.Name, Line: row.Line, Err: err}
					}
					if created {
						stats.Categories++
					}
					id = category.ID
					cache[name] = id
				}
				ids = append(ids, id)
			}
			if err := movieRepo.AttachCategories(ctx, movie.ID, ids); err != nil {
				return &RowError{File: movies.Name, Line: row.Line, Err: err}
			}
			stats.Links += len(ids)

			if stats.Movies%progressEvery == 0 {
				l.logger.Info("import progress", "movies", stats.Movies, "categories", len(cache))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
