// Package api - request and response bodies
package api

import (
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/service"
	"github.com/mantonx/moviedb/internal/types"
)

// CategoryRef names an existing category in a request body
type CategoryRef struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateMovieRequest is the body of POST and PUT. The category list must be
// present but may be empty.
type CreateMovieRequest struct {
	Title      string        `json:"title" binding:"required"`
	ImdbTconst string        `json:"imdb_tconst" binding:"required,max=20"`
	Year       *int          `json:"year" binding:"omitempty,min=1,max=32767"`
	Runtime    *int          `json:"runtime" binding:"omitempty,min=1,max=32767"`
	Rating     *float64      `json:"rating" binding:"omitempty,min=0,max=10"`
	Categories []CategoryRef `json:"category" binding:"required,dive"`
}

// Input converts the request into service input
func (r CreateMovieRequest) Input() service.MovieInput {
	return service.MovieInput{
		Title:      r.Title,
		ImdbTconst: r.ImdbTconst,
		Year:       r.Year,
		Runtime:    r.Runtime,
		Rating:     r.Rating,
		Categories: refNames(r.Categories),
	}
}

// UpdateMovieRequest is the body of PATCH. Absent fields are left alone;
// year, runtime and rating are cleared by an explicit null.
type UpdateMovieRequest struct {
	Title      *string                 `json:"title" binding:"omitempty,min=1"`
	ImdbTconst *string                 `json:"imdb_tconst" binding:"omitempty,min=1,max=20"`
	Year       types.Optional[int]     `json:"year" binding:"omitempty,min=1,max=32767"`
	Runtime    types.Optional[int]     `json:"runtime" binding:"omitempty,min=1,max=32767"`
	Rating     types.Optional[float64] `json:"rating" binding:"omitempty,min=0,max=10"`
	Categories *[]CategoryRef          `json:"category" binding:"omitempty,dive"`
}

var registerOnce sync.Once

// registerOptionalTypes lets binding tags on Optional fields apply to the
// wrapped value. Unset and null values are skipped by omitempty.
func registerOptionalTypes() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if p := field.Interface().(types.Optional[int]).Ptr(); p != nil {
				return p
			}
			return nil
		}, types.Optional[int]{})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if p := field.Interface().(types.Optional[float64]).Ptr(); p != nil {
				return p
			}
			return nil
		}, types.Optional[float64]{})
	})
}

// Patch converts the request into a service patch
func (r UpdateMovieRequest) Patch() service.MoviePatch {
	patch := service.MoviePatch{
		Title:      r.Title,
		ImdbTconst: r.ImdbTconst,
		Year:       r.Year,
		Runtime:    r.Runtime,
		Rating:     r.Rating,
	}
	if r.Categories != nil {
		names := refNames(*r.Categories)
		patch.Categories = &names
	}
	return patch
}

func refNames(refs []CategoryRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

// CategoryResponse is the public form of a category
type CategoryResponse struct {
	Name string `json:"name"`
}

// MovieResponse is the public form of a movie
type MovieResponse struct {
	ID         uint               `json:"id"`
	Title      string             `json:"title"`
	Year       *int               `json:"year"`
	Rating     *float64           `json:"rating"`
	Runtime    *int               `json:"runtime"`
	ImdbTconst string             `json:"imdb_tconst"`
	Link       string             `json:"link"`
	Category   []CategoryResponse `json:"category"`
}

// NewMovieResponse builds the response for a movie with loaded categories
func NewMovieResponse(m *models.Movie) MovieResponse {
	categories := make([]CategoryResponse, 0, len(m.Categories))
	for _, c := range m.Categories {
		categories = append(categories, CategoryResponse{Name: c.Name})
	}
	return MovieResponse{
		ID:         m.ID,
		Title:      m.Title,
		Year:       m.Year,
		Rating:     m.Rating,
		Runtime:    m.Runtime,
		ImdbTconst: m.ImdbTconst,
		Link:       m.Link(),
		Category:   categories,
	}
}

// MovieListResponse is one page of a listing
type MovieListResponse struct {
	Count    int64           `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []MovieResponse `json:"results"`
}
