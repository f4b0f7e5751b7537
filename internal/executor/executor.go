// Package executor runs the per-leaf actions: press search, read and scan
// the page, close the result tabs.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/v0xg/menusweep/internal/evidence"
	"github.com/v0xg/menusweep/internal/scanner"
	"github.com/v0xg/menusweep/internal/ui"
)

// Runner performs the leaf actions against one page.
type Runner struct {
	Acc      ui.Accessor
	Registry *scanner.Registry
	Opts     Options
	// Evidence, when set, gets a screenshot of every leaf with findings.
	Evidence *evidence.Collector
	Logger   *slog.Logger
}

// RunLeaf presses search, scans the page text and closes all tabs. Tabs
// are closed exactly once whatever happened before. Only fatal accessor
// errors and page read failures are returned.
func (r *Runner) RunLeaf(ctx context.Context, leaf Leaf) (out Outcome, err error) {
	out.Trail = leaf.Trail
	if leaf.Node != nil {
		out.Path = leaf.Node.Path
	}

	defer func() {
		closed, cerr := r.CloseTabs(ctx)
		out.TabsClosed = closed
		if err == nil && ui.IsFatal(cerr) {
			err = cerr
		}
	}()

	out.SearchClicked, err = r.Search(ctx)
	if err != nil {
		return out, err
	}

	text, err := r.Acc.PageText(ctx)
	if err != nil {
		return out, fmt.Errorf("read page text: %w", err)
	}
	out.Matches = r.Registry.Scan(text)

	if len(out.Matches) > 0 && r.Evidence != nil {
		out.Evidence = r.capture(ctx, leaf)
	}
	return out, nil
}

// Search clicks the search button when the screen has one. A missing or
// invisible button is expected on screens without a result grid.
func (r *Runner) Search(ctx context.Context) (bool, error) {
	buttons, err := ui.FindByLabel(ctx, r.Acc, r.Opts.SearchSelector, r.Opts.SearchLabel)
	if err != nil {
		return false, r.optional("find search button", err)
	}
	if len(buttons) == 0 {
		r.log().Debug("search button not found", "label", r.Opts.SearchLabel, "error", ui.ErrMissingControl)
		return false, nil
	}

	btn := buttons[0]
	if err := r.Acc.WaitVisible(ctx, btn, r.Opts.SearchVisible); err != nil {
		return false, r.optional("wait for search button", err)
	}
	if err := r.Acc.Click(ctx, btn); err != nil {
		return false, r.optional("click search button", err)
	}
	r.log().Debug("search button clicked")

	if err := ui.Sleep(ctx, r.Opts.SearchSettle); err != nil {
		return true, err
	}
	return true, nil
}

// CloseTabs clicks the close-all-tabs control if present.
func (r *Runner) CloseTabs(ctx context.Context) (bool, error) {
	n, err := r.Acc.Count(ctx, r.Opts.CloseTabsSelector)
	if err != nil {
		return false, r.optional("count close-tabs controls", err)
	}
	if n == 0 {
		return false, nil
	}
	buttons, err := r.Acc.Locate(ctx, nil, r.Opts.CloseTabsSelector)
	if err != nil {
		return false, r.optional("find close-tabs control", err)
	}
	if len(buttons) == 0 {
		return false, nil
	}
	if err := r.Acc.Click(ctx, buttons[0]); err != nil {
		return false, r.optional("close tabs", err)
	}
	if err := ui.Sleep(ctx, r.Opts.TabSettle); err != nil {
		return true, err
	}
	return true, nil
}

// optional logs a failure on an optional control and keeps only fatal ones.
func (r *Runner) optional(what string, err error) error {
	if ui.IsFatal(err) {
		return fmt.Errorf("%s: %w", what, err)
	}
	level := slog.LevelWarn
	if errors.Is(err, ui.ErrTimeout) {
		level = slog.LevelDebug
	}
	r.log().Log(context.Background(), level, what+" failed", "error", err)
	return nil
}

func (r *Runner) capture(ctx context.Context, leaf Leaf) string {
	shooter, ok := r.Acc.(ui.Screenshotter)
	if !ok {
		return ""
	}
	var marker *evidence.Marker
	if leaf.Node != nil && leaf.Node.Handle() != nil {
		if x, y, err := shooter.Center(ctx, leaf.Node.Handle()); err == nil {
			marker = &evidence.Marker{X: x, Y: y}
		}
	}
	path, err := r.Evidence.Capture(ctx, shooter, marker, leaf.Side, leaf.Top, leaf.Trail)
	if err != nil {
		r.log().Warn("evidence capture failed", "error", err)
		return ""
	}
	return path
}

func (r *Runner) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
