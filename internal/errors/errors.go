package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrPostNotFound is returned when a post is absent or not owned by the
	// acting user. Ownership failures are deliberately indistinguishable
	// from absence so existence is never leaked to non-owners.
	ErrPostNotFound = errors.New("post not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrTagNotFound is returned when a tag is not found.
	ErrTagNotFound = errors.New("tag not found")
	// ErrCategoryExists is returned on a duplicate category name.
	ErrCategoryExists = errors.New("a category with this name already exists")
	// ErrTagExists is returned on a duplicate tag name.
	ErrTagExists = errors.New("a tag with this name already exists")
	// ErrCategoryHasPosts is returned when deleting a category that still
	// contains posts.
	ErrCategoryHasPosts = errors.New("cannot delete category that contains posts")
	// ErrEmptyTitle is returned when a name-bearing entity normalizes to an
	// empty slug.
	ErrEmptyTitle = errors.New("title is required")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors collapse
// to a generic 500 so internal diagnostics never reach clients.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrPostNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "POST_NOT_FOUND")
	case errors.Is(err, ErrCategoryNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CATEGORY_NOT_FOUND")
	case errors.Is(err, ErrTagNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TAG_NOT_FOUND")
	case errors.Is(err, ErrCategoryExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "CATEGORY_EXISTS")
	case errors.Is(err, ErrTagExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "TAG_EXISTS")
	case errors.Is(err, ErrCategoryHasPosts):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "CATEGORY_HAS_POSTS")
	case errors.Is(err, ErrEmptyTitle):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "TITLE_REQUIRED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
