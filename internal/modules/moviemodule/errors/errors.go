// Package errors provides structured error handling for the movie module.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for classification
type ErrorType string

const (
	// ErrorTypeNotFound indicates a missing movie or category
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates input validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeDatabase indicates database operation errors
	ErrorTypeDatabase ErrorType = "database"
)

// Sentinel errors for common scenarios
var (
	// ErrMovieNotFound indicates a movie ID doesn't exist
	ErrMovieNotFound = errors.New("movie not found")

	// ErrDuplicateTconst indicates another movie already uses the IMDB identifier
	ErrDuplicateTconst = errors.New("movie with this imdb_tconst already exists")

	// ErrInvalidFilter indicates a query parameter could not be parsed
	ErrInvalidFilter = errors.New("invalid filter value")
)

// MovieError provides structured error information with context
type MovieError struct {
	Type    ErrorType
	Op      string // e.g. "create_movie"
	MovieID uint
	Err     error
}

// Error implements the error interface
func (e *MovieError) Error() string {
	if e.MovieID != 0 {
		return fmt.Sprintf("%s error in %s [movie=%d]: %v", e.Type, e.Op, e.MovieID, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *MovieError) Unwrap() error {
	return e.Err
}

// New creates a new MovieError
func New(errType ErrorType, op string, err error) *MovieError {
	return &MovieError{Type: errType, Op: op, Err: err}
}

// WithMovie adds movie context to the error
func (e *MovieError) WithMovie(id uint) *MovieError {
	e.MovieID = id
	return e
}

// NotFound wraps err as a not-found error
func NotFound(op string, err error) *MovieError {
	return New(ErrorTypeNotFound, op, err)
}

// Validation wraps err as a validation error
func Validation(op string, err error) *MovieError {
	return New(ErrorTypeValidation, op, err)
}

// Database wraps err as a database error
func Database(op string, err error) *MovieError {
	return New(ErrorTypeDatabase, op, err)
}

// CategoriesNotFoundError names every category reference that did not resolve.
type CategoriesNotFoundError struct {
	Names []string
}

func (e *CategoriesNotFoundError) Error() string {
	return "The following categories do not exist: " + strings.Join(e.Names, ", ")
}

// InvalidFilterError reports a query parameter with an unusable value.
type InvalidFilterError struct {
	Param string
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid number", e.Param, e.Value)
}

// Is lets errors.Is match ErrInvalidFilter.
func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// IsNotFound reports whether err is a missing movie
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMovieNotFound)
}

// IsDuplicate reports whether err is an imdb_tconst collision
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateTconst)
}

// MissingCategories returns the unresolved names carried by err, if any.
func MissingCategories(err error) ([]string, bool) {
	var cnf *CategoriesNotFoundError
	if errors.As(err, &cnf) {
		return cnf.Names, true
	}
	return nil, false
}
