package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"gorm.io/gorm"
)

// Resolution is the outcome of looking up category names.
type Resolution struct {
	// Categories holds the matches in first-seen input order.
	Categories []models.Category
	// Missing holds the names with no stored category, deduplicated.
	Missing []string
}

// IDs returns the ids of the resolved categories.
func (r *Resolution) IDs() []uint {
	ids := make([]uint, 0, len(r.Categories))
	for _, c := range r.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Resolve looks up every name. It never creates categories; unknown names
// are reported in Resolution.Missing instead of failing the lookup.
func (r *CategoryRepository) Resolve(ctx context.Context, names []string) (*Resolution, error) {
	res := &Resolution{}

	unique := dedupe(names)
	if len(unique) == 0 {
		return res, nil
	}

	var found []models.Category
	if err := r.db.WithContext(ctx).Where("name IN ?", unique).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve categories: %w", err)
	}

	byName := make(map[string]models.Category, len(found))
	for _, c := range found {
		byName[c.Name] = c
	}

	for _, name := range unique {
		if c, ok := byName[name]; ok {
			res.Categories = append(res.Categories, c)
		} else {
			res.Missing = append(res.Missing, name)
		}
	}
	return res, nil
}

// GetByName retrieves a category by its exact name
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// GetOrCreate returns the category named name, inserting it when absent.
// created reports whether a row was inserted.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string) (category *models.Category, created bool, err error) {
	existing, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	category = &models.Category{Name: name}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return category, true, nil
}

// Count returns the number of stored categories
func (r *CategoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return n, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
