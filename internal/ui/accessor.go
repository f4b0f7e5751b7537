package ui

import (
	"context"
	"time"
)

// Handle is an opaque reference to a live page element. A handle is only
// valid for the discovery pass that produced it; any navigation may
// re-render the DOM and invalidate it.
type Handle interface{}

// Accessor is the set of page operations the sweep needs. A nil within
// handle means "search the whole document".
type Accessor interface {
	Locate(ctx context.Context, within Handle, selector string) ([]Handle, error)
	Count(ctx context.Context, selector string) (int, error)
	Click(ctx context.Context, h Handle) error
	ScrollIntoView(ctx context.Context, h Handle) error
	InnerText(ctx context.Context, h Handle) (string, error)
	// Evaluate runs js as a function on the element and returns its
	// result rendered as a string, e.g. `() => this.className`.
	Evaluate(ctx context.Context, h Handle, js string) (string, error)
	// NextSibling returns the element's next element sibling, or nil.
	NextSibling(ctx context.Context, h Handle) (Handle, error)
	// Contains reports whether inner is outer or one of its descendants.
	Contains(ctx context.Context, outer, inner Handle) (bool, error)
	WaitVisible(ctx context.Context, h Handle, timeout time.Duration) error
	WaitIdle(ctx context.Context, timeout time.Duration) error
	// PageText returns the visible text of the whole document body.
	PageText(ctx context.Context) (string, error)
	// Alive reports whether the page session is still usable.
	Alive(ctx context.Context) error
}

// Screenshotter is implemented by accessors that can capture evidence.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
	Center(ctx context.Context, h Handle) (x, y int, err error)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
