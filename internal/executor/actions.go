package executor

import (
	"time"

	"github.com/v0xg/menusweep/internal/menu"
	"github.com/v0xg/menusweep/internal/scanner"
)

// Options configures the per-leaf actions.
type Options struct {
	SearchSelector    string        // elements that may be the search button
	SearchLabel       string        // visible label of the search button
	CloseTabsSelector string        // the "close all tabs" control
	SearchVisible     time.Duration // max wait for the search button to show
	SearchSettle      time.Duration // wait after clicking search
	TabSettle         time.Duration // wait after closing tabs
}

// Leaf identifies the leaf being acted on.
type Leaf struct {
	Side  string
	Top   string
	Node  *menu.Node
	Trail []string // labels from the region root down to Node
}

// Outcome is what happened at one leaf.
type Outcome struct {
	Trail         []string
	Path          []int
	Matches       scanner.Match
	SearchClicked bool
	TabsClosed    bool
	Evidence      string
}
