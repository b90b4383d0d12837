// Package api provides the HTTP handlers of the movie catalog
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	httpapi "github.com/mantonx/moviedb/internal/api"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/filters"
	movieerrors "github.com/mantonx/moviedb/internal/modules/moviemodule/errors"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/service"
	"github.com/mantonx/moviedb/internal/types"
)

// PagingFunc returns the current page size bounds. It is called per request
// so configuration reloads apply without restarting.
type PagingFunc func() filters.Paging

// Handler contains the movie HTTP handlers
type Handler struct {
	service *service.MovieService
	paging  PagingFunc
}

// NewHandler creates a new handler
func NewHandler(svc *service.MovieService, paging PagingFunc) *Handler {
	if paging == nil {
		paging = func() filters.Paging { return filters.Paging{DefaultSize: 100, MaxSize: 1000} }
	}
	registerOptionalTypes()
	return &Handler{service: svc, paging: paging}
}

// movieID parses the :id path parameter. Anything that is not a positive
// integer can never match a movie, so it is reported as not found.
func movieID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		httpapi.RespondWithNotFound(c, "movie", raw)
		return 0, false
	}
	return uint(id), true
}

// respondError maps service errors to API errors
func respondError(c *gin.Context, err error) {
	if names, ok := movieerrors.MissingCategories(err); ok {
		httpapi.RespondWithError(c, types.NewAppError(
			types.ErrorCodeCategoryNotFound,
			err.Error(),
			http.StatusNotFound,
		).WithContext("missing_categories", names))
		return
	}

	var filterErr *movieerrors.InvalidFilterError
	if errors.As(err, &filterErr) {
		httpapi.RespondWithError(c, types.NewValidationError(
			"invalid query parameter", filterErr.Error(),
		).WithContext("param", filterErr.Param))
		return
	}

	switch {
	case movieerrors.IsDuplicate(err):
		httpapi.RespondWithError(c, types.NewValidationError(
			movieerrors.ErrDuplicateTconst.Error(),
		).WithContext("field", "imdb_tconst"))
	case movieerrors.IsNotFound(err):
		httpapi.RespondWithNotFound(c, "movie", c.Param("id"))
	default:
		httpapi.RespondWithError(c, types.NewInternalError("movie operation failed", err))
	}
}
