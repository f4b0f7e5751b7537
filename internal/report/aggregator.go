package report

import (
	"github.com/v0xg/menusweep/internal/scanner"
)

// Finding is a non-empty match attributed to the leaf that produced it.
type Finding struct {
	Side    string        `json:"side"`
	Top     string        `json:"top"`
	Leaf    []string      `json:"leaf"`
	Path    []int         `json:"path"`
	Matches scanner.Match `json:"matches"`
	// Evidence is the screenshot file saved for this finding, if any.
	Evidence string `json:"evidence,omitempty"`
}

// Diagnostic is a run-level note a reviewer should see: structural
// anomalies, dropped branches, missing controls.
type Diagnostic struct {
	Kind   string `json:"kind"`
	Side   string `json:"side,omitempty"`
	Top    string `json:"top,omitempty"`
	Path   []int  `json:"path,omitempty"`
	Label  string `json:"label,omitempty"`
	Detail string `json:"detail"`
}

// Diagnostic kinds.
const (
	DiagAnomaly        = "structural-anomaly"
	DiagBranchError    = "branch-error"
	DiagMissingControl = "missing-control"
	DiagAccessor       = "accessor-failure"
)

// Aggregator collects results for one run. It is not safe for concurrent
// use; the sweep is single threaded.
type Aggregator struct {
	tree        Tree
	findings    []Finding
	diagnostics []Diagnostic
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) side(name string) *Side {
	if s := a.tree.Side(name); s != nil {
		return s
	}
	a.tree = append(a.tree, Side{Name: name})
	return &a.tree[len(a.tree)-1]
}

// RecordTopMenus stores the top-menu labels discovered for side.
func (a *Aggregator) RecordTopMenus(side string, tops []string) {
	s := a.side(side)
	s.TopMenus = append([]string(nil), tops...)
}

// OpenTop makes (side, top) appear in the tree even if no leaf is
// recorded under it.
func (a *Aggregator) OpenTop(side, top string) {
	a.results(side, top)
}

func (a *Aggregator) results(side, top string) *TopResults {
	s := a.side(side)
	for i := range s.Results {
		if s.Results[i].Top == top {
			return &s.Results[i]
		}
	}
	s.Results = append(s.Results, TopResults{Top: top})
	return &s.Results[len(s.Results)-1]
}

// Record appends the match of one visited leaf. Empty matches are kept so
// every visited leaf has exactly one entry.
func (a *Aggregator) Record(side, top string, match scanner.Match) {
	r := a.results(side, top)
	if match == nil {
		match = scanner.Match{}
	}
	r.Matches = append(r.Matches, match)
}

// AddFinding records an attributed non-empty match.
func (a *Aggregator) AddFinding(f Finding) {
	a.findings = append(a.findings, f)
}

// AddDiagnostic records a run-level diagnostic.
func (a *Aggregator) AddDiagnostic(d Diagnostic) {
	a.diagnostics = append(a.diagnostics, d)
}

// Export returns a copy of the accumulated tree.
func (a *Aggregator) Export() Tree {
	out := make(Tree, len(a.tree))
	for i, s := range a.tree {
		cp := Side{Name: s.Name, TopMenus: append([]string(nil), s.TopMenus...)}
		for _, r := range s.Results {
			matches := make([]scanner.Match, len(r.Matches))
			for j, m := range r.Matches {
				matches[j] = copyMatch(m)
			}
			cp.Results = append(cp.Results, TopResults{Top: r.Top, Matches: matches})
		}
		out[i] = cp
	}
	return out
}

// Findings returns the attributed findings in record order.
func (a *Aggregator) Findings() []Finding {
	return append([]Finding(nil), a.findings...)
}

// Diagnostics returns the diagnostics in record order.
func (a *Aggregator) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), a.diagnostics...)
}

func copyMatch(m scanner.Match) scanner.Match {
	cp := make(scanner.Match, len(m))
	for k, v := range m {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}
