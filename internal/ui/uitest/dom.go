// Package uitest provides an in-memory page that implements ui.Accessor
// so discovery, walking and leaf actions can be tested without a browser.
package uitest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/v0xg/menusweep/internal/ui"
)

// Element is a node of the fake document.
type Element struct {
	Tag      string
	Class    string
	Attrs    map[string]string
	Text     string
	Hidden   bool
	Children []*Element

	// OnClick runs after the click is recorded.
	OnClick func(d *DOM)
	// ClickErr is returned by Click instead of clicking.
	ClickErr error

	parent *Element
}

// El builds an element; class may hold several space separated classes.
func El(tag, class string, children ...*Element) *Element {
	e := &Element{Tag: tag, Class: class, Children: children}
	for _, c := range children {
		c.parent = e
	}
	return e
}

// WithText sets the element's own text.
func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

// WithAttr sets an attribute.
func (e *Element) WithAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[name] = value
	return e
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		c.parent = e
	}
	e.Children = append(e.Children, children...)
	return e
}

// Remove detaches e from its parent, invalidating handles to it.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	siblings := e.parent.Children
	for i, c := range siblings {
		if c == e {
			e.parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	e.parent = nil
}

func (e *Element) hasClass(name string) bool {
	for _, c := range strings.Fields(e.Class) {
		if c == name {
			return true
		}
	}
	return false
}

func (e *Element) innerText() string {
	if e.Hidden {
		return ""
	}
	var parts []string
	if e.Text != "" {
		parts = append(parts, e.Text)
	}
	for _, c := range e.Children {
		if t := c.innerText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func (e *Element) contains(other *Element) bool {
	for p := other; p != nil; p = p.parent {
		if p == e {
			return true
		}
	}
	return false
}

// DOM is the fake page. It records clicks in order.
type DOM struct {
	Body *Element

	// Clicks lists the labels (own text, or class when empty) of clicked elements.
	Clicks []string
	// Scrolls counts ScrollIntoView calls.
	Scrolls int
	// Dead makes every call fail with ui.ErrAccessor.
	Dead bool
	// Shot is returned by Screenshot.
	Shot []byte
}

// New builds a page whose body holds children.
func New(children ...*Element) *DOM {
	return &DOM{Body: El("body", "", children...)}
}

var _ ui.Accessor = (*DOM)(nil)
var _ ui.Screenshotter = (*DOM)(nil)

func (d *DOM) check(h ui.Handle) (*Element, error) {
	if d.Dead {
		return nil, ui.ErrAccessor
	}
	if h == nil {
		return d.Body, nil
	}
	e, ok := h.(*Element)
	if !ok {
		return nil, fmt.Errorf("foreign handle %T", h)
	}
	if !d.Body.contains(e) {
		return nil, ui.ErrStale
	}
	return e, nil
}

// Locate returns the outermost matches of selector below within.
func (d *DOM) Locate(ctx context.Context, within ui.Handle, selector string) ([]ui.Handle, error) {
	root, err := d.check(within)
	if err != nil {
		return nil, err
	}
	sel, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}
	var out []ui.Handle
	var walk func(e *Element)
	walk = func(e *Element) {
		for _, c := range e.Children {
			if sel.match(c, root) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

// Count counts document-wide matches.
func (d *DOM) Count(ctx context.Context, selector string) (int, error) {
	hs, err := d.Locate(ctx, nil, selector)
	return len(hs), err
}

// Click records the click and runs the element's OnClick hook.
func (d *DOM) Click(ctx context.Context, h ui.Handle) error {
	e, err := d.check(h)
	if err != nil {
		return err
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}
	label := e.Text
	if label == "" {
		label = e.innerText()
	}
	if label == "" {
		label = e.Class
	}
	d.Clicks = append(d.Clicks, label)
	if e.OnClick != nil {
		e.OnClick(d)
	}
	return nil
}

func (d *DOM) ScrollIntoView(ctx context.Context, h ui.Handle) error {
	if _, err := d.check(h); err != nil {
		return err
	}
	d.Scrolls++
	return nil
}

func (d *DOM) InnerText(ctx context.Context, h ui.Handle) (string, error) {
	e, err := d.check(h)
	if err != nil {
		return "", err
	}
	return e.innerText(), nil
}

// Evaluate understands className projections only.
func (d *DOM) Evaluate(ctx context.Context, h ui.Handle, js string) (string, error) {
	e, err := d.check(h)
	if err != nil {
		return "", err
	}
	if strings.Contains(js, "className") {
		return e.Class, nil
	}
	return "", fmt.Errorf("unsupported projection %q", js)
}

func (d *DOM) NextSibling(ctx context.Context, h ui.Handle) (ui.Handle, error) {
	e, err := d.check(h)
	if err != nil {
		return nil, err
	}
	if e.parent == nil {
		return nil, nil
	}
	siblings := e.parent.Children
	for i, c := range siblings {
		if c == e && i+1 < len(siblings) {
			return siblings[i+1], nil
		}
	}
	return nil, nil
}

func (d *DOM) Contains(ctx context.Context, outer, inner ui.Handle) (bool, error) {
	o, err := d.check(outer)
	if err != nil {
		return false, err
	}
	i, err := d.check(inner)
	if err != nil {
		return false, err
	}
	return o.contains(i), nil
}

// WaitVisible fails with ui.ErrTimeout for hidden elements.
func (d *DOM) WaitVisible(ctx context.Context, h ui.Handle, timeout time.Duration) error {
	e, err := d.check(h)
	if err != nil {
		return err
	}
	if e.Hidden {
		return ui.ErrTimeout
	}
	return nil
}

func (d *DOM) WaitIdle(ctx context.Context, timeout time.Duration) error {
	_, err := d.check(nil)
	return err
}

func (d *DOM) PageText(ctx context.Context) (string, error) {
	return d.InnerText(ctx, nil)
}

func (d *DOM) Alive(ctx context.Context) error {
	_, err := d.check(nil)
	return err
}

func (d *DOM) Screenshot(ctx context.Context) ([]byte, error) {
	if _, err := d.check(nil); err != nil {
		return nil, err
	}
	return d.Shot, nil
}

func (d *DOM) Center(ctx context.Context, h ui.Handle) (int, int, error) {
	if _, err := d.check(h); err != nil {
		return 0, 0, err
	}
	return 10, 10, nil
}
