// Package sweep drives a run: every side menu, every top menu under it,
// and every node of the left navigation tree of that screen.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/v0xg/menusweep/internal/config"
	"github.com/v0xg/menusweep/internal/executor"
	"github.com/v0xg/menusweep/internal/logging"
	"github.com/v0xg/menusweep/internal/menu"
	"github.com/v0xg/menusweep/internal/metrics"
	"github.com/v0xg/menusweep/internal/report"
	"github.com/v0xg/menusweep/internal/ui"
)

// Options configures the side/top loop.
type Options struct {
	SideLabels string // labels of the side menu entries
	SideButton string // clickable side menu buttons, matched by label
	TopMenu    string
	LeftMenu   string // containers of the left navigation region
	Discovery  menu.Selectors
	Policy     menu.AnomalyPolicy
	// AllNodes runs the leaf action on branch nodes too.
	AllNodes  bool
	SkipSides []string

	SideSettle  time.Duration
	TopSettle   time.Duration
	NodeSettle  time.Duration
	PanelSettle time.Duration
	Idle        time.Duration
}

// OptionsFromConfig maps the runtime config onto sweep options.
func OptionsFromConfig(cfg config.RuntimeConfig) Options {
	sel, t := cfg.Selectors, cfg.Timing
	return Options{
		SideLabels: sel.SideMenu,
		SideButton: sel.SideButton,
		TopMenu:    sel.TopMenu,
		LeftMenu:   sel.LeftMenu,
		Discovery: menu.Selectors{
			PanelClass: sel.PanelClass,
			TreeClass:  sel.TreeClass,
			TreeItem:   sel.TreeItem,
			Label:      sel.Label,
		},
		Policy:      menu.AnomalyPolicy(cfg.AnomalyPolicy),
		AllNodes:    cfg.LeafMode == config.LeafModeAll,
		SkipSides:   cfg.SkipSides,
		SideSettle:  t.SideSettle,
		TopSettle:   t.TopSettle,
		NodeSettle:  t.NodeSettle,
		PanelSettle: t.PanelSettle,
		Idle:        t.Idle,
	}
}

// Sweeper owns one page for the duration of a run.
type Sweeper struct {
	Acc     ui.Accessor
	Runner  *executor.Runner
	Opts    Options
	Logger  *slog.Logger
	Console *logging.Console
	Metrics *metrics.Recorder

	agg *report.Aggregator
	// dead is set once a liveness probe failed; the walk stops at the
	// next node.
	dead error
}

// Run sweeps every side menu. The aggregator is returned even when the
// run stops early so the partial report can be written.
func (s *Sweeper) Run(ctx context.Context) (*report.Aggregator, error) {
	s.agg = report.NewAggregator()
	s.dead = nil

	sides, err := ui.Labels(ctx, s.Acc, s.Opts.SideLabels)
	if err != nil {
		return s.agg, s.fatal(fmt.Errorf("read side menus: %w", err))
	}
	s.log().Info("side menus discovered", "count", len(sides), "labels", sides)

	for _, side := range sides {
		if err := ctx.Err(); err != nil {
			return s.agg, err
		}
		if s.skipped(side) {
			s.log().Info("skipping side menu", "side", side)
			s.say(func(c *logging.Console) { c.Item("%s (skipped)", side) })
			continue
		}
		if err := s.sweepSide(ctx, side); err != nil {
			return s.agg, err
		}
	}
	return s.agg, nil
}

func (s *Sweeper) sweepSide(ctx context.Context, side string) error {
	s.say(func(c *logging.Console) { c.Step("Side menu %s", side) })
	s.agg.RecordTopMenus(side, nil)

	ok, err := s.press(ctx, side, "", s.Opts.SideButton, side, s.Opts.SideSettle, true)
	if err != nil || !ok {
		s.say(func(c *logging.Console) { c.Fail("") })
		return err
	}

	tops, err := ui.Labels(ctx, s.Acc, s.Opts.TopMenu)
	if err != nil {
		s.say(func(c *logging.Console) { c.Fail("") })
		return s.branchFailure(side, "", nil, side, fmt.Errorf("read top menus of %q: %w", side, err))
	}
	s.agg.RecordTopMenus(side, tops)
	s.say(func(c *logging.Console) { c.Done("%d top menus", len(tops)) })

	for _, top := range tops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sweepTop(ctx, side, top); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweeper) sweepTop(ctx context.Context, side, top string) error {
	s.agg.OpenTop(side, top)
	ok, err := s.press(ctx, side, top, s.Opts.TopMenu, top, s.Opts.TopSettle, false)
	if err != nil || !ok {
		return err
	}

	containers, err := s.Acc.Locate(ctx, nil, s.Opts.LeftMenu)
	if err != nil {
		return s.branchFailure(side, top, nil, "", fmt.Errorf("locate left menu: %w", err))
	}

	d := &menu.Discoverer{
		Acc:         s.Acc,
		Sel:         s.Opts.Discovery,
		PanelSettle: s.Opts.PanelSettle,
		Policy:      s.Opts.Policy,
		Logger:      s.log().With("side", side, "top", top),
		OnAnomaly: func(a menu.Anomaly) {
			s.diag(report.Diagnostic{
				Kind:   report.DiagAnomaly,
				Side:   side,
				Top:    top,
				Path:   a.Path,
				Label:  a.Parent,
				Detail: fmt.Sprintf("%s: %s", a.Kind, a.Detail),
			})
		},
		OnBranchError: func(n *menu.Node, err error) error {
			return s.branchFailure(side, top, n.Path, n.Label(), err)
		},
	}
	nodes, err := d.Discover(ctx, containers)
	defer menu.Release(nodes)
	if err != nil {
		return s.fatal(fmt.Errorf("discover %s / %s: %w", side, top, err))
	}
	s.log().Debug("left menu discovered", "side", side, "top", top, "nodes", menu.Count(nodes))

	trails := map[*menu.Node][]string{}
	indexTrails(nodes, nil, trails)

	activate := menu.Activator(s.Acc, s.Opts.NodeSettle)
	w := menu.Walker[executor.Outcome]{
		Activate: func(ctx context.Context, n *menu.Node) error {
			if s.dead != nil {
				return s.dead
			}
			if err := activate(ctx, n); err != nil {
				return err
			}
			s.Metrics.NodeActivated(side, top)
			return nil
		},
		Visit: func(ctx context.Context, n *menu.Node) (executor.Outcome, error) {
			return s.visit(ctx, side, top, n, trails[n])
		},
		OnBranchError: func(n *menu.Node, err error) {
			_ = s.branchFailure(side, top, n.Path, n.Label(), err)
		},
	}
	outcomes, err := w.Walk(ctx, nodes)
	s.log().Info("top menu swept", "side", side, "top", top, "leaves", len(outcomes))
	if err != nil {
		return s.fatal(fmt.Errorf("walk %s / %s: %w", side, top, err))
	}
	return s.dead
}

func (s *Sweeper) visit(ctx context.Context, side, top string, n *menu.Node, trail []string) (executor.Outcome, error) {
	if !n.Leaf() && !s.Opts.AllNodes {
		return executor.Outcome{}, menu.ErrNoResult
	}

	start := time.Now()
	out, err := s.Runner.RunLeaf(ctx, executor.Leaf{Side: side, Top: top, Node: n, Trail: trail})
	if err != nil {
		if !ui.IsFatal(err) {
			s.agg.Record(side, top, nil)
		}
		return out, err
	}

	s.agg.Record(side, top, out.Matches)
	s.Metrics.LeafScanned(side, top, out.Matches, time.Since(start))
	if len(out.Matches) > 0 {
		s.agg.AddFinding(report.Finding{
			Side:     side,
			Top:      top,
			Leaf:     trail,
			Path:     n.Path,
			Matches:  out.Matches,
			Evidence: out.Evidence,
		})
		s.log().Warn("sensitive data found", "side", side, "top", top, "leaf", strings.Join(trail, " > "), "matches", out.Matches.Total())
		s.say(func(c *logging.Console) {
			c.Hit("%s / %s / %s: %s", side, top, strings.Join(trail, " > "), summarize(out))
		})
	} else {
		s.say(func(c *logging.Console) { c.Item("%s / %s / %s", side, top, strings.Join(trail, " > ")) })
	}
	return out, nil
}

// press clicks the first element of selector labelled label. A missing
// control is a diagnostic, not an error.
func (s *Sweeper) press(ctx context.Context, side, top, selector, label string, settle time.Duration, idle bool) (bool, error) {
	found, err := ui.FindByLabel(ctx, s.Acc, selector, label)
	if err != nil {
		return false, s.branchFailure(side, top, nil, label, err)
	}
	if len(found) == 0 {
		s.log().Warn("menu entry not found", "side", side, "top", top, "label", label)
		s.diag(report.Diagnostic{
			Kind:   report.DiagMissingControl,
			Side:   side,
			Top:    top,
			Label:  label,
			Detail: fmt.Sprintf("no %s labelled %q: %v", selector, label, ui.ErrMissingControl),
		})
		return false, nil
	}

	if err := s.Acc.Click(ctx, found[0]); err != nil {
		return false, s.branchFailure(side, top, nil, label, fmt.Errorf("click %q: %w", label, err))
	}
	if idle {
		if err := s.Acc.WaitIdle(ctx, s.Opts.Idle); err != nil {
			return false, s.branchFailure(side, top, nil, label, err)
		}
	}
	if err := ui.Sleep(ctx, settle); err != nil {
		return false, err
	}
	return true, nil
}

// branchFailure records a non-fatal failure and probes the page. It
// returns an error only when the run must stop.
func (s *Sweeper) branchFailure(side, top string, path []int, label string, err error) error {
	if ui.IsFatal(err) {
		return s.fatal(err)
	}
	s.log().Warn("branch skipped", "side", side, "top", top, "path", path, "label", label, "error", err)
	s.diag(report.Diagnostic{
		Kind:   report.DiagBranchError,
		Side:   side,
		Top:    top,
		Path:   path,
		Label:  label,
		Detail: err.Error(),
	})

	if perr := s.Acc.Alive(context.Background()); perr != nil {
		if !errors.Is(perr, ui.ErrAccessor) {
			perr = fmt.Errorf("%w: %v", ui.ErrAccessor, perr)
		}
		s.dead = perr
		return s.fatal(perr)
	}
	return nil
}

// fatal records the error that stops the run, once.
func (s *Sweeper) fatal(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if !s.recordedFatal() {
		s.diag(report.Diagnostic{Kind: report.DiagAccessor, Detail: err.Error()})
	}
	return err
}

func (s *Sweeper) diag(d report.Diagnostic) {
	s.agg.AddDiagnostic(d)
	s.Metrics.Diagnostic(d.Kind)
}

func (s *Sweeper) recordedFatal() bool {
	for _, d := range s.agg.Diagnostics() {
		if d.Kind == report.DiagAccessor {
			return true
		}
	}
	return false
}

func (s *Sweeper) skipped(side string) bool {
	for _, skip := range s.Opts.SkipSides {
		if ui.NormalizeLabel(skip) == side {
			return true
		}
	}
	return false
}

func (s *Sweeper) say(fn func(c *logging.Console)) {
	if s.Console != nil {
		fn(s.Console)
	}
}

func (s *Sweeper) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// indexTrails maps every node to the labels from the region root down to it.
func indexTrails(nodes []*menu.Node, prefix []string, out map[*menu.Node][]string) {
	for _, n := range nodes {
		trail := append(append([]string(nil), prefix...), n.Label())
		out[n] = trail
		indexTrails(n.Children, trail, out)
	}
}

func summarize(out executor.Outcome) string {
	var parts []string
	for _, k := range out.Matches.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%d", k, len(out.Matches[k])))
	}
	return strings.Join(parts, " ")
}
