package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mantonx/moviedb/internal/types"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BindError converts an error returned by gin's ShouldBind* family into a
// validation AppError with one message per offending field.
func BindError(err error) *types.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   jsonFieldPath(fe),
				Message: fieldMessage(fe),
			})
		}
		return types.NewValidationError("request validation failed").WithContext("fields", fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return types.NewValidationError("request validation failed").WithContext("fields", []FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		}})
	}

	if errors.Is(err, io.EOF) {
		return types.NewValidationError("request body is empty")
	}

	return types.NewValidationError("malformed request body", err.Error())
}

// jsonFieldPath turns the validator namespace ("CreateMovieRequest.Categories[0].Name")
// into the client-facing path ("category[0].name") using the json names gin registered.
func jsonFieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

var fieldAliases = map[string]string{
	"Categories": "category",
	"ImdbTconst": "imdb_tconst",
}

func toSnake(part string) string {
	name, suffix := part, ""
	if i := strings.Index(part, "["); i >= 0 {
		name, suffix = part[:i], part[i:]
	}
	if alias, ok := fieldAliases[name]; ok {
		return alias + suffix
	}

	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String() + suffix
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "notblank":
		return "may not be blank"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
