// Package report accumulates per-leaf scan results into the nested report
// tree and renders the persisted document.
package report

import (
	"bytes"
	"encoding/json"

	"github.com/v0xg/menusweep/internal/scanner"
)

// TopMenusKey is the reserved key listing a side menu's top menus.
const TopMenusKey = "topMenus"

// Side is the report entry of one side menu.
type Side struct {
	Name     string
	TopMenus []string
	// Results holds one scanner.Match per visited leaf, per top menu, in
	// visitation order.
	Results []TopResults
}

// TopResults are the per-leaf matches under one top menu.
type TopResults struct {
	Top     string
	Matches []scanner.Match
}

// Tree is side menu → {"topMenus": [...], top → [match, ...]}. Side menus
// and top menus keep discovery order when encoded.
type Tree []Side

// Side returns the entry named name, or nil.
func (t Tree) Side(name string) *Side {
	for i := range t {
		if t[i].Name == name {
			return &t[i]
		}
	}
	return nil
}

// Matches returns the recorded matches for (side, top).
func (t Tree) Matches(side, top string) []scanner.Match {
	s := t.Side(side)
	if s == nil {
		return nil
	}
	for _, r := range s.Results {
		if r.Top == top {
			return r.Matches
		}
	}
	return nil
}

// MarshalJSON writes the tree as an ordered JSON object.
func (t Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, s.Name); err != nil {
			return nil, err
		}
		if err := s.writeJSON(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s Side) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	tops := s.TopMenus
	if tops == nil {
		tops = []string{}
	}
	if err := writeKey(buf, TopMenusKey); err != nil {
		return err
	}
	if err := writeValue(buf, tops); err != nil {
		return err
	}
	for _, r := range s.Results {
		buf.WriteByte(',')
		if err := writeKey(buf, r.Top); err != nil {
			return err
		}
		matches := r.Matches
		if matches == nil {
			matches = []scanner.Match{}
		}
		if err := writeValue(buf, matches); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	if err := writeValue(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

func writeValue(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
