// Package service implements catalog writes and reads on top of the repositories.
package service

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/metrics"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/filters"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/repository"
	movieerrors "github.com/mantonx/moviedb/internal/modules/moviemodule/errors"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/mantonx/moviedb/internal/types"
	"gorm.io/gorm"
)

// MovieInput carries every field of a create or full update.
type MovieInput struct {
	Title      string
	ImdbTconst string
	Year       *int
	Runtime    *int
	Rating     *float64
	Categories []string
}

// MoviePatch carries a partial update. Nil or unset fields are left
// unchanged. A set optional with a nil Value clears the column; a non-nil
// Categories replaces the whole category set.
type MoviePatch struct {
	Title      *string
	ImdbTconst *string
	Year       types.Optional[int]
	Runtime    types.Optional[int]
	Rating     types.Optional[float64]
	Categories *[]string
}

// ListResult is one page of a movie listing
type ListResult struct {
	Movies []models.Movie
	Count  int64
}

// MovieService validates and applies catalog changes. Every write runs in
// a single transaction.
type MovieService struct {
	db     *gorm.DB
	movies *repository.MovieRepository
	logger hclog.Logger
}

// NewMovieService creates a new movie service
func NewMovieService(db *gorm.DB) *MovieService {
	return &MovieService{
		db:     db,
		movies: repository.NewMovieRepository(db),
		logger: logger.Named("movies"),
	}
}

// Create inserts a movie and links it to the named categories, which must all exist.
func (s *MovieService) Create(ctx context.Context, in MovieInput) (*models.Movie, error) {
	const op = "create_movie"

	var created *models.Movie
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := repository.NewCategoryRepository(tx)
		movies := repository.NewMovieRepository(tx)

		resolved, err := resolveAll(ctx, categories, in.Categories)
		if err != nil {
			return err
		}
		if err := checkTconst(ctx, movies, op, in.ImdbTconst, 0); err != nil {
			return err
		}

		movie := &models.Movie{
			Title:      in.Title,
			ImdbTconst: in.ImdbTconst,
			Year:       in.Year,
			Runtime:    in.Runtime,
			Rating:     in.Rating,
		}
		if err := movies.Create(ctx, movie); err != nil {
			return wrap(op, err)
		}
		if err := movies.AttachCategories(ctx, movie.ID, resolved.IDs()); err != nil {
			return movieerrors.Database(op, err).WithMovie(movie.ID)
		}

		created, err = movies.GetByID(ctx, movie.ID)
		return wrap(op, err)
	})
	if err != nil {
		return nil, err
	}

	metrics.MovieWrites.WithLabelValues("create").Inc()
	s.logger.Info("movie created", "id", created.ID, "tconst", created.ImdbTconst, "categories", len(created.Categories))
	return created, nil
}

// Replace overwrites every field and the category set of an existing movie.
func (s *MovieService) Replace(ctx context.Context, id uint, in MovieInput) (*models.Movie, error) {
	categories := in.Categories
	return s.update(ctx, "replace_movie", id, MoviePatch{
		Title:      &in.Title,
		ImdbTconst: &in.ImdbTconst,
		Year:       types.Present(in.Year),
		Runtime:    types.Present(in.Runtime),
		Rating:     types.Present(in.Rating),
		Categories: &categories,
	})
}

// Update applies a partial update.
func (s *MovieService) Update(ctx context.Context, id uint, patch MoviePatch) (*models.Movie, error) {
	return s.update(ctx, "update_movie", id, patch)
}

func (s *MovieService) update(ctx context.Context, op string, id uint, patch MoviePatch) (*models.Movie, error) {
	var updated *models.Movie
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := repository.NewCategoryRepository(tx)
		movies := repository.NewMovieRepository(tx)

		movie, err := movies.GetByID(ctx, id)
		if err != nil {
			return wrap(op, err)
		}

		var resolved *repository.Resolution
		if patch.Categories != nil {
			if resolved, err = resolveAll(ctx, categories, *patch.Categories); err != nil {
				return err
			}
		}

		if patch.ImdbTconst != nil && *patch.ImdbTconst != movie.ImdbTconst {
			if err := checkTconst(ctx, movies, op, *patch.ImdbTconst, id); err != nil {
				return err
			}
		}

		applyPatch(movie, patch)
		if err := movies.Update(ctx, movie); err != nil {
			return wrap(op, err)
		}
		if resolved != nil {
			if err := movies.ReplaceCategories(ctx, id, resolved.IDs()); err != nil {
				return movieerrors.Database(op, err).WithMovie(id)
			}
		}

		updated, err = movies.GetByID(ctx, id)
		return wrap(op, err)
	})
	if err != nil {
		return nil, err
	}

	metrics.MovieWrites.WithLabelValues("update").Inc()
	s.logger.Info("movie updated", "id", id, "op", op)
	return updated, nil
}

// Get returns a movie with its categories
func (s *MovieService) Get(ctx context.Context, id uint) (*models.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, wrap("get_movie", err)
	}
	return movie, nil
}

// Delete removes a movie and its category links
func (s *MovieService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return wrap("delete_movie", repository.NewMovieRepository(tx).Delete(ctx, id))
	})
	if err != nil {
		return err
	}

	metrics.MovieWrites.WithLabelValues("delete").Inc()
	s.logger.Info("movie deleted", "id", id)
	return nil
}

// List returns the page of movies matching q together with the total count
func (s *MovieService) List(ctx context.Context, q filters.MovieQuery) (*ListResult, error) {
	movies, count, err := s.movies.List(ctx, q)
	if err != nil {
		return nil, movieerrors.Database("list_movies", err)
	}
	return &ListResult{Movies: movies, Count: count}, nil
}

func applyPatch(movie *models.Movie, patch MoviePatch) {
	if patch.Title != nil {
		movie.Title = *patch.Title
	}
	if patch.ImdbTconst != nil {
		movie.ImdbTconst = *patch.ImdbTconst
	}
	if patch.Year.Set {
		movie.Year = patch.Year.Value
	}
	if patch.Runtime.Set {
		movie.Runtime = patch.Runtime.Value
	}
	if patch.Rating.Set {
		movie.Rating = patch.Rating.Value
	}
}

func resolveAll(ctx context.Context, categories *repository.CategoryRepository, names []string) (*repository.Resolution, error) {
	resolved, err := categories.Resolve(ctx, names)
	if err != nil {
		return nil, movieerrors.Database("resolve_categories", err)
	}
	if len(resolved.Missing) > 0 {
		return nil, &movieerrors.CategoriesNotFoundError{Names: resolved.Missing}
	}
	return resolved, nil
}

func checkTconst(ctx context.Context, movies *repository.MovieRepository, op, tconst string, excludeID uint) error {
	exists, err := movies.ExistsByTconst(ctx, tconst, excludeID)
	if err != nil {
		return movieerrors.Database(op, err)
	}
	if exists {
		return movieerrors.Validation(op, movieerrors.ErrDuplicateTconst)
	}
	return nil
}

// wrap classifies repository errors; nil stays nil.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case movieerrors.IsNotFound(err):
		return movieerrors.NotFound(op, err)
	case movieerrors.IsDuplicate(err):
		return movieerrors.Validation(op, err)
	default:
		return movieerrors.Database(op, err)
	}
}
