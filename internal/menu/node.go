// Package menu discovers the left navigation tree of a rendered screen and
// walks it in document order.
package menu

import (
	"strconv"
	"strings"

	"github.com/v0xg/menusweep/internal/ui"
)

// Kind is the widget a node was discovered from.
type Kind int

const (
	// KindPanel is a collapsible accordion header.
	KindPanel Kind = iota
	// KindPanelItem is a labelled entry inside an opened panel.
	KindPanelItem
	// KindTreeItem is an expandable tree item.
	KindTreeItem
	// KindUnknown is a container matching neither widget marker.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindPanel:
		return "panel"
	case KindPanelItem:
		return "panel-item"
	case KindTreeItem:
		return "tree-item"
	default:
		return "unknown"
	}
}

// Node is one navigation entry. The handle is borrowed from the discovery
// pass and must not be used after the next top-menu navigation.
type Node struct {
	Name string
	// Unlabeled marks a node whose label element was missing. Name is
	// empty then, but unlike a blank label it is a structural anomaly.
	Unlabeled bool
	Kind      Kind
	// Path is the index path from the region root, stable across re-renders.
	Path     []int
	Children []*Node

	handle ui.Handle
}

// Leaf reports whether n has no children.
func (n *Node) Leaf() bool { return len(n.Children) == 0 }

// Handle returns the element handle from discovery.
func (n *Node) Handle() ui.Handle { return n.handle }

// Label is the display form of the name.
func (n *Node) Label() string {
	if n.Unlabeled {
		return "<unlabeled>"
	}
	return n.Name
}

// PathString renders Path as "0.2.1".
func (n *Node) PathString() string {
	parts := make([]string, len(n.Path))
	for i, p := range n.Path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// Count returns the number of nodes in nodes and their descendants.
func Count(nodes []*Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Children)
	}
	return n
}

// Release drops every handle in the tree.
func Release(nodes []*Node) {
	for _, n := range nodes {
		n.handle = nil
		Release(n.Children)
	}
}

func childPath(parent []int, i int) []int {
	p := make([]int, len(parent)+1)
	copy(p, parent)
	p[len(parent)] = i
	return p
}
