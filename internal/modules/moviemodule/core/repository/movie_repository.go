// Package repository provides the data access layer for the catalog
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/filters"
	movieerrors "github.com/mantonx/moviedb/internal/modules/moviemodule/errors"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// movieColumns are the writable scalar columns of a movie.
var movieColumns = []string{"title", "imdb_tconst", "year", "runtime", "rating"}

// MovieRepository handles all database operations for movies and their
// category associations
type MovieRepository struct {
	db     *gorm.DB
	filter *filters.MovieFilter
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{
		db:     db,
		filter: filters.NewMovieFilter(),
	}
}

// Create inserts the movie row only; associations go through AttachCategories.
func (r *MovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(movie).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return movieerrors.ErrDuplicateTconst
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

// GetByID retrieves a movie with its categories
func (r *MovieRepository) GetByID(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.WithContext(ctx).
		Preload("Categories", orderCategories).
		Where("id = ?", id).
		First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, movieerrors.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &movie, nil
}

// ExistsByTconst reports whether a movie other than excludeID uses tconst.
func (r *MovieRepository) ExistsByTconst(ctx context.Context, tconst string, excludeID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Movie{}).Where("imdb_tconst = ?", tconst)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check imdb_tconst: %w", err)
	}
	return n > 0, nil
}

// Update writes every scalar column of movie, nil values included.
func (r *MovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	row := models.Movie{
		ID:         movie.ID,
		Title:      movie.Title,
		ImdbTconst: movie.ImdbTconst,
		Year:       movie.Year,
		Runtime:    movie.Runtime,
		Rating:     movie.Rating,
	}
	result := r.db.WithContext(ctx).
		Model(&models.Movie{ID: movie.ID}).
		Select(movieColumns).
		Updates(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return movieerrors.ErrDuplicateTconst
		}
		return fmt.Errorf("failed to update movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return movieerrors.ErrMovieNotFound
	}
	return nil
}

// Delete removes a movie and its join rows
func (r *MovieRepository) Delete(ctx context.Context, id uint) error {
	if err := r.DetachCategories(ctx, id); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Movie{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return movieerrors.ErrMovieNotFound
	}
	return nil
}

// AttachCategories links the movie to each category id. Existing links are kept.
func (r *MovieRepository) AttachCategories(ctx context.Context, movieID uint, categoryIDs []uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]models.MovieCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		rows = append(rows, models.MovieCategory{MovieID: movieID, CategoryID: id})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to attach categories to movie %d: %w", movieID, err)
	}
	return nil
}

// DetachCategories removes every category link of the movie
func (r *MovieRepository) DetachCategories(ctx context.Context, movieID uint) error {
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Delete(&models.MovieCategory{}).Error
	if err != nil {
		return fmt.Errorf("failed to detach categories from movie %d: %w", movieID, err)
	}
	return nil
}

// ReplaceCategories makes categoryIDs the movie's complete category set
func (r *MovieRepository) ReplaceCategories(ctx context.Context, movieID uint, categoryIDs []uint) error {
	if err := r.DetachCategories(ctx, movieID); err != nil {
		return err
	}
	return r.AttachCategories(ctx, movieID, categoryIDs)
}

// List returns one page of movies matching q and the total match count
func (r *MovieRepository) List(ctx context.Context, q filters.MovieQuery) ([]models.Movie, int64, error) {
	base := r.filter.ApplyConditions(r.db.WithContext(ctx).Model(&models.Movie{}), q)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	var movies []models.Movie
	page := r.filter.ApplyPagination(r.filter.ApplySorting(base.Session(&gorm.Session{}), q), q)
	if err := page.Preload("Categories", orderCategories).Find(&movies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, total, nil
}

// Count returns the number of stored movies
func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return n, nil
}

// CountLinks returns the number of movie/category join rows
func (r *MovieRepository) CountLinks(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.MovieCategory{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count category links: %w", err)
	}
	return n, nil
}

func orderCategories(db *gorm.DB) *gorm.DB {
	return db.Order("categories.name")
}
