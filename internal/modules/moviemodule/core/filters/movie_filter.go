// Package filters turns list query parameters into gorm predicates
package filters

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	movieerrors "github.com/mantonx/moviedb/internal/modules/moviemodule/errors"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderField is one ordering key
type OrderField struct {
	Column string
	Desc   bool
}

// MovieQuery holds the criteria of a movie listing. Zero values mean no constraint.
type MovieQuery struct {
	Categories []string
	RatingEq   *float64
	RatingLt   *float64
	RatingGt   *float64
	Search     string
	Ordering   []OrderField

	Page     int // 1-based
	PageSize int
}

// Limit returns the page size for the query
func (q MovieQuery) Limit() int {
	return q.PageSize
}

// Offset returns the number of rows before the requested page
func (q MovieQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// orderable maps the public ordering names to movie columns.
var orderable = map[string]string{
	"id":          "id",
	"title":       "title",
	"year":        "year",
	"runtime":     "runtime",
	"rating":      "rating",
	"imdb_tconst": "imdb_tconst",
}

// DefaultOrdering is used when no valid ordering field is requested.
var DefaultOrdering = []OrderField{{Column: "title"}}

// Paging bounds the page_size parameter
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// ParseQuery reads list parameters from the request query string.
//
// Supported parameters:
//   - category, category__eq: repeatable category name (any match)
//   - rating__eq, rating__lt, rating__gt: numeric rating comparisons
//   - search: case-insensitive substring of title or imdb_tconst
//   - ordering: comma separated fields, "-" prefix for descending
//   - page, page_size: pagination
func ParseQuery(values url.Values, paging Paging) (MovieQuery, error) {
	q := MovieQuery{
		Search:   strings.TrimSpace(values.Get("search")),
		Ordering: ParseOrdering(values.Get("ordering")),
		Page:     1,
		PageSize: paging.DefaultSize,
	}

	for _, key := range []string{"category", "category__eq"} {
		for _, v := range values[key] {
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					q.Categories = append(q.Categories, name)
				}
			}
		}
	}

	var err error
	if q.RatingEq, err = parseFloatParam(values, "rating__eq"); err != nil {
		return q, err
	}
	if q.RatingLt, err = parseFloatParam(values, "rating__lt"); err != nil {
		return q, err
	}
	if q.RatingGt, err = parseFloatParam(values, "rating__gt"); err != nil {
		return q, err
	}

	if page, err := parsePositiveInt(values, "page"); err != nil {
		return q, err
	} else if page > 0 {
		q.Page = page
	}
	if size, err := parsePositiveInt(values, "page_size"); err != nil {
		return q, err
	} else if size > 0 {
		q.PageSize = size
	}
	if paging.MaxSize > 0 && q.PageSize > paging.MaxSize {
		q.PageSize = paging.MaxSize
	}

	return q, nil
}

// ParseOrdering parses "year,-rating". Unknown and repeated fields are dropped.
func ParseOrdering(raw string) []OrderField {
	var fields []OrderField
	seen := make(map[string]bool)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		desc := strings.HasPrefix(token, "-")
		column, ok := orderable[strings.TrimPrefix(token, "-")]
		if !ok || seen[column] {
			continue
		}
		seen[column] = true
		fields = append(fields, OrderField{Column: column, Desc: desc})
	}
	return fields
}

func parseFloatParam(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &movieerrors.InvalidFilterError{Param: key, Value: raw}
	}
	return &v, nil
}

func parsePositiveInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, &movieerrors.InvalidFilterError{Param: key, Value: raw}
	}
	return v, nil
}

// MovieFilter applies MovieQuery criteria to gorm queries
type MovieFilter struct{}

// NewMovieFilter creates a new movie filter
func NewMovieFilter() *MovieFilter {
	return &MovieFilter{}
}

// ApplyFilter applies conditions, sorting and pagination
func (f *MovieFilter) ApplyFilter(query *gorm.DB, q MovieQuery) *gorm.DB {
	query = f.ApplyConditions(query, q)
	query = f.ApplySorting(query, q)
	return f.ApplyPagination(query, q)
}

// ApplyConditions applies the WHERE criteria only, so the result can be counted
func (f *MovieFilter) ApplyConditions(query *gorm.DB, q MovieQuery) *gorm.DB {
	query = f.applyCategoryFilter(query, q)
	query = f.applyRatingFilters(query, q)
	return f.applySearch(query, q)
}

// applyCategoryFilter keeps movies linked to any of the named categories
func (f *MovieFilter) applyCategoryFilter(query *gorm.DB, q MovieQuery) *gorm.DB {
	if len(q.Categories) == 0 {
		return query
	}
	sub := query.Session(&gorm.Session{NewDB: true}).
		Model(&models.MovieCategory{}).
		Select("movie_categories.movie_id").
		Joins("JOIN categories ON categories.id = movie_categories.category_id").
		Where("categories.name IN ?", q.Categories)
	return query.Where("movies.id IN (?)", sub)
}

func (f *MovieFilter) applyRatingFilters(query *gorm.DB, q MovieQuery) *gorm.DB {
	if q.RatingEq != nil {
		query = query.Where("movies.rating = ?", *q.RatingEq)
	}
	if q.RatingLt != nil {
		query = query.Where("movies.rating < ?", *q.RatingLt)
	}
	if q.RatingGt != nil {
		query = query.Where("movies.rating > ?", *q.RatingGt)
	}
	return query
}

func (f *MovieFilter) applySearch(query *gorm.DB, q MovieQuery) *gorm.DB {
	if q.Search == "" {
		return query
	}
	pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
	return query.Where(
		`(LOWER(movies.title) LIKE ? ESCAPE '\' OR LOWER(movies.imdb_tconst) LIKE ? ESCAPE '\')`,
		pattern, pattern,
	)
}

// ApplySorting orders by the requested fields, then by id so pages are stable
func (f *MovieFilter) ApplySorting(query *gorm.DB, q MovieQuery) *gorm.DB {
	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}

	hasID := false
	for _, o := range ordering {
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Table: "movies", Name: o.Column},
			Desc:   o.Desc,
		})
		if o.Column == "id" {
			hasID = true
		}
	}
	if !hasID {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Table: "movies", Name: "id"}})
	}
	return query
}

// ApplyPagination applies limit and offset
func (f *MovieFilter) ApplyPagination(query *gorm.DB, q MovieQuery) *gorm.DB {
	if q.Limit() > 0 {
		query = query.Limit(q.Limit())
	}
	if q.Offset() > 0 {
		query = query.Offset(q.Offset())
	}
	return query
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
