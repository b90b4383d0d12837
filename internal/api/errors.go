// Package api holds the JSON error envelope every route answers with.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/types"
)

// RequestIDKey is the gin context key the request-id middleware stores under.
const RequestIDKey = "request_id"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

type ErrorDetails struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// RespondWithError aborts the request with err rendered as an ErrorResponse.
// Errors that are not *types.AppError become a 500 and their text is only
// logged.
func RespondWithError(c *gin.Context, err error) {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		appErr = types.NewInternalError("internal server error", err)
	}

	requestID := c.GetString(RequestIDKey)
	report(c, appErr, requestID)

	c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorResponse{
		Error: ErrorDetails{
			Code:      string(appErr.Code),
			Message:   appErr.Message,
			Details:   appErr.Details,
			Context:   appErr.Context,
			RequestID: requestID,
		},
	})
}

func RespondWithNotFound(c *gin.Context, resource, id string) {
	RespondWithError(c, types.NewNotFoundError(resource, id))
}

func report(c *gin.Context, err *types.AppError, requestID string) {
	log := logger.Named("api").With(
		"code", err.Code,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", requestID,
	)
	if err.Details != "" {
		log = log.With("details", err.Details)
	}
	if err.Cause != nil {
		log = log.With("cause", err.Cause.Error())
	}

	switch err.Severity {
	case types.SeverityCritical, types.SeverityError:
		log.Error(err.Message)
	case types.SeverityWarning:
		log.Warn(err.Message)
	default:
		log.Debug(err.Message)
	}
}

// ErrorMiddleware turns a handler panic into a 500 response.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			if c.Writer.Written() {
				logger.Error("panic after response was written", "path", c.Request.URL.Path, "error", err)
				c.Abort()
				return
			}
			RespondWithError(c, types.NewInternalError("panic recovered", err))
		}()

		c.Next()
	}
}

// NoRoute answers unknown paths with the standard error envelope.
func NoRoute(c *gin.Context) {
	RespondWithError(c, types.NewAppError(types.ErrorCodeNotFound, "route not found", http.StatusNotFound).
		WithContext("path", c.Request.URL.Path))
}
