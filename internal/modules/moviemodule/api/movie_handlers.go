// Package api - Movie handlers
package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	httpapi "github.com/mantonx/moviedb/internal/api"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/filters"
)

// ListMovies handles GET /api/v1/movies
//
// Query parameters:
//   - category (or category__eq): Category name, repeatable; matches any
//   - rating__eq, rating__lt, rating__gt: Rating comparisons
//   - search: Case-insensitive match on title or imdb_tconst
//   - ordering: Comma separated fields (id, title, year, runtime, rating, imdb_tconst), "-" for descending
//   - page, page_size: Pagination
//
// Response: {count, next, previous, results}
func (h *Handler) ListMovies(c *gin.Context) {
	query, err := filters.ParseQuery(c.Request.URL.Query(), h.paging())
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]MovieResponse, 0, len(result.Movies))
	for i := range result.Movies {
		results = append(results, NewMovieResponse(&result.Movies[i]))
	}

	resp := MovieListResponse{Count: result.Count, Results: results}
	if int64(query.Offset()+len(results)) < result.Count {
		resp.Next = pageURL(c, query.Page+1)
	}
	if query.Page > 1 {
		resp.Previous = pageURL(c, query.Page-1)
	}
	c.JSON(http.StatusOK, resp)
}

// CreateMovie handles POST /api/v1/movies
//
// Body: {title, imdb_tconst, year?, runtime?, rating?, category: [{name}]}
// Every category must already exist.
func (h *Handler) CreateMovie(c *gin.Context) {
	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondWithError(c, httpapi.BindError(err))
		return
	}

	movie, err := h.service.Create(c.Request.Context(), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewMovieResponse(movie))
}

// GetMovie handles GET /api/v1/movies/:id
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	movie, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMovieResponse(movie))
}

// ReplaceMovie handles PUT /api/v1/movies/:id
// It takes the same body as create and overwrites every field.
func (h *Handler) ReplaceMovie(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondWithError(c, httpapi.BindError(err))
		return
	}

	movie, err := h.service.Replace(c.Request.Context(), id, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMovieResponse(movie))
}

// UpdateMovie handles PATCH /api/v1/movies/:id
// Only the supplied fields change; a supplied category list replaces the old one.
func (h *Handler) UpdateMovie(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	var req UpdateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondWithError(c, httpapi.BindError(err))
		return
	}

	movie, err := h.service.Update(c.Request.Context(), id, req.Patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMovieResponse(movie))
}

// DeleteMovie handles DELETE /api/v1/movies/:id
func (h *Handler) DeleteMovie(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pageURL returns the current request URL pointing at another page
func pageURL(c *gin.Context, page int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	values := c.Request.URL.Query()
	if page <= 1 {
		values.Del("page")
	} else {
		values.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: values.Encode(),
	}
	s := u.String()
	return &s
}
