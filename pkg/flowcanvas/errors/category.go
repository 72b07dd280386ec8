// Package errors classifies failures raised by persistence and catalog
// collaborators and retries the ones that are worth retrying.
//
// The editor never surfaces raw collaborator errors to the user. Each failure
// is categorized first:
//   - Transient: the call may succeed if repeated (timeouts, 5xx, 429)
//   - Permanent: repeating will not help (not found, conflicts, bad config)
//   - Validation: the request itself is wrong and the user must fix it
//   - Unauthorized: the session token is missing, expired or not allowed
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	CategoryPermanent

	// CategoryValidation indicates the input was rejected and must change.
	CategoryValidation

	// CategoryUnauthorized indicates the session cannot perform the call.
	CategoryUnauthorized
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryValidation:
		return "validation"
	case CategoryUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Invalid creates a validation error category wrapper.
func Invalid(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryValidation, context)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryUnauthorized, context)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 408, 429, 502, 503, 504:
			return CategoryTransient
		case 401, 403:
			return CategoryUnauthorized
		case 400, 409, 422:
			return CategoryValidation
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient
			}
			return CategoryPermanent
		}
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryValidation
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	// Unknown errors are permanent (fail safe)
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsUnauthorized reports whether the error is a session problem.
func IsUnauthorized(err error) bool {
	return Categorize(err) == CategoryUnauthorized
}

// UserMessage returns a short, category-specific hint suitable for a notice.
func UserMessage(err error) string {
	switch Categorize(err) {
	case CategoryTransient:
		return "The server is temporarily unavailable. Try again in a moment."
	case CategoryValidation:
		return "The request was rejected. Check the flow and try again."
	case CategoryUnauthorized:
		return "Your session is not allowed to do this. Sign in again."
	default:
		return "The operation failed."
	}
}
