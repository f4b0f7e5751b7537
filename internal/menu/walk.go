package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/v0xg/menusweep/internal/ui"
)

// ErrNoResult is returned by a visit function that produced nothing for
// the node. The walk still descends into the node's children.
var ErrNoResult = errors.New("no result for node")

// Walker walks a discovered tree depth-first in pre-order. It is strictly
// sequential: activating a node may change which siblings exist.
type Walker[R any] struct {
	Activate func(ctx context.Context, n *Node) error
	Visit    func(ctx context.Context, n *Node) (R, error)
	// OnBranchError receives non-fatal activation and visit failures.
	OnBranchError func(n *Node, err error)
}

// Walk activates and visits every node exactly once, in document order,
// and returns the visit results in the same order. Non-fatal activation
// errors skip the node's subtree; fatal ones stop the walk and are
// returned together with the results gathered so far.
func (w Walker[R]) Walk(ctx context.Context, nodes []*Node) ([]R, error) {
	var out []R
	err := w.walk(ctx, nodes, &out)
	return out, err
}

func (w Walker[R]) walk(ctx context.Context, nodes []*Node, out *[]R) error {
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		if w.Activate != nil {
			if err := w.Activate(ctx, n); err != nil {
				if ui.IsFatal(err) {
					return err
				}
				w.branchError(n, err)
				continue
			}
		}

		r, err := w.Visit(ctx, n)
		switch {
		case err == nil:
			*out = append(*out, r)
		case errors.Is(err, ErrNoResult):
		case ui.IsFatal(err):
			return err
		default:
			w.branchError(n, err)
		}

		if err := w.walk(ctx, n.Children, out); err != nil {
			return err
		}
	}
	return nil
}

func (w Walker[R]) branchError(n *Node, err error) {
	if w.OnBranchError != nil {
		w.OnBranchError(n, err)
	}
}

// Activator clicks a node, scrolls it into view and waits settle.
func Activator(acc ui.Accessor, settle time.Duration) func(ctx context.Context, n *Node) error {
	return func(ctx context.Context, n *Node) error {
		h := n.Handle()
		if h == nil {
			return fmt.Errorf("activate %q: %w", n.Label(), ui.ErrStale)
		}
		if err := acc.Click(ctx, h); err != nil {
			return fmt.Errorf("activate %q: %w", n.Label(), err)
		}
		if err := acc.ScrollIntoView(ctx, h); err != nil {
			return fmt.Errorf("scroll to %q: %w", n.Label(), err)
		}
		return ui.Sleep(ctx, settle)
	}
}
