package menu

import "fmt"

// AnomalyKind classifies structural surprises met during discovery.
type AnomalyKind string

const (
	AnomalyMissingLabel  AnomalyKind = "missing-label"
	AnomalyUnknownWidget AnomalyKind = "unknown-widget"
	AnomalyMissingPanel  AnomalyKind = "missing-panel-content"
)

// Anomaly is a widget instance lacking its expected label or structure.
type Anomaly struct {
	Kind AnomalyKind
	// Path of the affected node and the label of its nearest labelled parent.
	Path   []int
	Parent string
	Detail string
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("structural anomaly %s at %v (under %q): %s", a.Kind, a.Path, a.Parent, a.Detail)
}

// AnomalyPolicy decides what happens to an unlabeled node.
type AnomalyPolicy string

const (
	// PolicyTag keeps the node, marked Unlabeled.
	PolicyTag AnomalyPolicy = "tag"
	// PolicySkip drops the node and its subtree.
	PolicySkip AnomalyPolicy = "skip"
)
