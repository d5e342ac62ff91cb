package market

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is wrapped by every "referenced resource does not exist" error.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is wrapped when the caller is authenticated but may not act on a resource.
	ErrForbidden = errors.New("permission denied")
)

var (
	ErrAuctionNotFound  = fmt.Errorf("auction %w", ErrNotFound)
	ErrBidNotFound      = fmt.Errorf("bid %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrWalletNotFound   = fmt.Errorf("wallet %w", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", ErrNotFound)
	ErrFavoriteNotFound = fmt.Errorf("favorite %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrNotAuctioneer = fmt.Errorf("%w: only the auctioneer or an administrator may change this auction", ErrForbidden)
	ErrNotAuthor     = fmt.Errorf("%w: only the author or an administrator may change this comment", ErrForbidden)
	ErrNotAdmin      = fmt.Errorf("%w: administrator rights required", ErrForbidden)
)

// ValidationError reports malformed or out-of-range input, keyed by the offending field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another failing field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Err returns nil when no field failed, so callers can collect then return.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError returns the message recorded for field, if err is a ValidationError.
func FieldError(err error, field string) (string, bool) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return "", false
	}
	msg, ok := verr.Fields[field]
	return msg, ok
}
