package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Bookmark errors.
var (
	ErrInvalidBookmark = errors.New("invalid bookmark")
	ErrNotFound        = errors.New("bookmark not found")
)

// Authentication errors.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrStateMismatch   = errors.New("oauth state mismatch")
	ErrSessionExpired  = errors.New("session expired")
)

// ValidationError reports per-field problems with user input.
// It unwraps to ErrInvalidBookmark.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidBookmark }

// Message returns the first field message in a stable order, suitable for
// a single inline form error.
func (e *ValidationError) Message() string {
	for _, k := range []string{"url", "title", "user_id"} {
		if m, ok := e.Fields[k]; ok {
			return m
		}
	}
	return e.Error()
}
