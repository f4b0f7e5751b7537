package ui

import (
	"context"
	"errors"
)

var (
	// ErrMissingControl marks an optional control that is not on the page.
	ErrMissingControl = errors.New("control not found")
	// ErrTimeout marks a bounded wait that ran out.
	ErrTimeout = errors.New("wait timed out")
	// ErrStale marks a handle whose element no longer exists.
	ErrStale = errors.New("stale element handle")
	// ErrAccessor marks a page or browser session that can no longer be used.
	ErrAccessor = errors.New("page accessor unusable")
)

// IsFatal reports whether err must stop the whole run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAccessor) || errors.Is(err, context.Canceled)
}
