package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/v0xg/menusweep/internal/ui"
)

const classNameJS = `function () { return String(this.className || '') }`

// Selectors names the markers of the two widget kinds.
type Selectors struct {
	// PanelClass and TreeClass are class names read off each container.
	PanelClass string
	TreeClass  string
	// TreeItem finds sub-items inside a tree item.
	TreeItem string
	// Label finds label elements inside panel content and tree items.
	Label string
}

// Discoverer builds a tree snapshot of one navigation region.
type Discoverer struct {
	Acc         ui.Accessor
	Sel         Selectors
	PanelSettle time.Duration
	Policy      AnomalyPolicy
	Logger      *slog.Logger

	// OnAnomaly receives every structural anomaly.
	OnAnomaly func(Anomaly)
	// OnBranchError receives non-fatal failures that dropped a subtree.
	// A non-nil return stops discovery with that error.
	OnBranchError func(n *Node, err error) error
}

// Discover reads each container in order and returns one node per kept
// container. Containers inside an already opened panel belong to that
// panel and are skipped. Only fatal errors are returned.
func (d *Discoverer) Discover(ctx context.Context, containers []ui.Handle) ([]*Node, error) {
	var nodes []*Node
	var consumed []ui.Handle
	for _, h := range containers {
		path := []int{len(nodes)}
		inside, err := d.insideAny(ctx, consumed, h)
		if inside {
			d.log().Debug("container belongs to an opened panel", "path", path)
			continue
		}
		var node *Node
		var content ui.Handle
		if err == nil {
			node, content, err = d.container(ctx, h, path)
		}
		if err != nil {
			if ui.IsFatal(err) {
				return nodes, err
			}
			if err := d.branchError(&Node{Path: path, Kind: KindUnknown, Unlabeled: true}, err); err != nil {
				return nodes, err
			}
			continue
		}
		if content != nil {
			consumed = append(consumed, content)
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func (d *Discoverer) insideAny(ctx context.Context, outers []ui.Handle, h ui.Handle) (bool, error) {
	for _, o := range outers {
		in, err := d.Acc.Contains(ctx, o, h)
		if err != nil {
			return false, fmt.Errorf("check panel membership: %w", err)
		}
		if in {
			return true, nil
		}
	}
	return false, nil
}

// container returns the node for h and, for panels, the content
// container whose items it consumed.
func (d *Discoverer) container(ctx context.Context, h ui.Handle, path []int) (*Node, ui.Handle, error) {
	class, err := d.Acc.Evaluate(ctx, h, classNameJS)
	if err != nil {
		return nil, nil, fmt.Errorf("read widget class: %w", err)
	}

	switch {
	case hasClass(class, d.Sel.PanelClass):
		return d.panel(ctx, h, path)
	case hasClass(class, d.Sel.TreeClass):
		node, err := d.treeItem(ctx, h, path, "")
		return node, nil, err
	}

	text, err := d.Acc.InnerText(ctx, h)
	if err != nil {
		return nil, nil, fmt.Errorf("read container text: %w", err)
	}
	node := &Node{Name: ui.NormalizeLabel(text), Kind: KindUnknown, Path: path, handle: h}
	d.anomaly(Anomaly{
		Kind:   AnomalyUnknownWidget,
		Path:   path,
		Detail: fmt.Sprintf("class %q matches neither %q nor %q", class, d.Sel.PanelClass, d.Sel.TreeClass),
	})
	return node, nil, nil
}

// panel opens an accordion header and lists the labels of the content
// container that follows it. Panel items never get children.
func (d *Discoverer) panel(ctx context.Context, h ui.Handle, path []int) (*Node, ui.Handle, error) {
	text, err := d.Acc.InnerText(ctx, h)
	if err != nil {
		return nil, nil, fmt.Errorf("read panel header: %w", err)
	}
	node := &Node{Name: ui.NormalizeLabel(text), Kind: KindPanel, Path: path, handle: h}

	if err := d.Acc.Click(ctx, h); err != nil {
		return nil, nil, fmt.Errorf("open panel %q: %w", node.Name, err)
	}
	if err := ui.Sleep(ctx, d.PanelSettle); err != nil {
		return nil, nil, err
	}

	content, err := d.Acc.NextSibling(ctx, h)
	if err != nil {
		return nil, nil, fmt.Errorf("panel %q content: %w", node.Name, err)
	}
	if content == nil {
		d.anomaly(Anomaly{Kind: AnomalyMissingPanel, Path: path, Parent: node.Name, Detail: "no content container after header"})
		return node, nil, nil
	}

	labels, err := d.Acc.Locate(ctx, content, d.Sel.Label)
	if err != nil {
		return nil, nil, fmt.Errorf("panel %q items: %w", node.Name, err)
	}
	for _, l := range labels {
		text, err := d.Acc.InnerText(ctx, l)
		if err != nil {
			return nil, nil, fmt.Errorf("panel %q item label: %w", node.Name, err)
		}
		name := ui.NormalizeLabel(text)
		if name == "" {
			d.log().Debug("skipping blank panel item", "panel", node.Name)
			continue
		}
		node.Children = append(node.Children, &Node{
			Name:   name,
			Kind:   KindPanelItem,
			Path:   childPath(path, len(node.Children)),
			handle: l,
		})
	}
	return node, content, nil
}

// treeItem reads the item's own label, then discovers its direct
// sub-items the same way. Labels inside sub-items belong to them, so
// labels and sub-items are located in one outermost-match query.
func (d *Discoverer) treeItem(ctx context.Context, h ui.Handle, path []int, parent string) (*Node, error) {
	node := &Node{Kind: KindTreeItem, Path: path, handle: h}

	found, err := d.Acc.Locate(ctx, h, d.Sel.Label+", "+d.Sel.TreeItem)
	if err != nil {
		return nil, fmt.Errorf("tree item structure: %w", err)
	}
	var own ui.Handle
	var subs []ui.Handle
	for _, f := range found {
		class, err := d.Acc.Evaluate(ctx, f, classNameJS)
		if err != nil {
			return nil, fmt.Errorf("tree item structure: %w", err)
		}
		switch {
		case hasClass(class, d.Sel.TreeClass):
			subs = append(subs, f)
		case own == nil:
			own = f
		}
	}

	if own == nil {
		d.anomaly(Anomaly{Kind: AnomalyMissingLabel, Path: path, Parent: parent, Detail: "tree item has no label element"})
		if d.Policy == PolicySkip {
			return nil, nil
		}
		node.Unlabeled = true
	} else {
		text, err := d.Acc.InnerText(ctx, own)
		if err != nil {
			return nil, fmt.Errorf("tree item label: %w", err)
		}
		node.Name = ui.NormalizeLabel(text)
	}

	for _, sub := range subs {
		child, err := d.treeItem(ctx, sub, childPath(path, len(node.Children)), node.Label())
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

func (d *Discoverer) anomaly(a Anomaly) {
	d.log().Warn("structural anomaly", "kind", a.Kind, "path", a.Path, "parent", a.Parent, "detail", a.Detail)
	if d.OnAnomaly != nil {
		d.OnAnomaly(a)
	}
}

func (d *Discoverer) branchError(n *Node, err error) error {
	d.log().Warn("discovery failed for branch", "path", n.Path, "error", err)
	if d.OnBranchError != nil {
		return d.OnBranchError(n, err)
	}
	return nil
}

func (d *Discoverer) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func hasClass(classAttr, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
