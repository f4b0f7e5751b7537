package executor

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/menusweep/internal/evidence"
	"github.com/v0xg/menusweep/internal/scanner"
	"github.com/v0xg/menusweep/internal/ui"
	"github.com/v0xg/menusweep/internal/ui/uitest"
)

var testOpts = Options{
	SearchSelector:    `div[role="button"]`,
	SearchLabel:       "조회",
	CloseTabsSelector: `div[title="모든 탭 닫기"]`,
}

type page struct {
	dom    *uitest.DOM
	search *uitest.Element
	grid   *uitest.Element
}

func newPage(withSearch bool) *page {
	p := &page{}
	p.grid = uitest.El("div", "grid").WithText("거래처 123-45-67890")
	p.grid.Hidden = true
	closer := uitest.El("div", "tabs-close").WithAttr("title", "모든 탭 닫기")

	children := []*uitest.Element{closer, p.grid}
	if withSearch {
		p.search = uitest.El("div", "btn", uitest.El("div", "").WithText("조회")).WithAttr("role", "button")
		p.search.OnClick = func(d *uitest.DOM) { p.grid.Hidden = false }
		children = append(children, p.search)
	}
	p.dom = uitest.New(children...)
	return p
}

func (p *page) closes() int {
	n := 0
	for _, c := range p.dom.Clicks {
		if c == "tabs-close" {
			n++
		}
	}
	return n
}

func runner(acc ui.Accessor) *Runner {
	return &Runner{Acc: acc, Registry: scanner.MustDefault(), Opts: testOpts}
}

func TestRunLeafSearchScanClose(t *testing.T) {
	p := newPage(true)

	out, err := runner(p.dom).RunLeaf(context.Background(), Leaf{Side: "A", Top: "T1", Trail: []string{"L1"}})
	require.NoError(t, err)

	assert.True(t, out.SearchClicked)
	assert.True(t, out.TabsClosed)
	assert.Equal(t, scanner.Match{"bizReg": {"123-45-67890"}}, out.Matches)
	assert.Equal(t, []string{"L1"}, out.Trail)
	assert.Equal(t, []string{"조회", "tabs-close"}, p.dom.Clicks, "search before scan, close last")
}

func TestRunLeafWithoutSearchButton(t *testing.T) {
	p := newPage(false)

	out, err := runner(p.dom).RunLeaf(context.Background(), Leaf{})
	require.NoError(t, err)
	assert.False(t, out.SearchClicked)
	assert.Empty(t, out.Matches, "grid stays hidden")
	assert.Equal(t, 1, p.closes())
}

func TestRunLeafInvisibleSearchDegrades(t *testing.T) {
	p := newPage(true)
	p.search.Hidden = true

	out, err := runner(p.dom).RunLeaf(context.Background(), Leaf{})
	require.NoError(t, err)
	assert.False(t, out.SearchClicked)
	assert.Equal(t, 1, p.closes())
}

func TestRunLeafClosesTabsOncePerLeaf(t *testing.T) {
	p := newPage(true)
	r := runner(p.dom)

	for i := 0; i < 3; i++ {
		_, err := r.RunLeaf(context.Background(), Leaf{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, p.closes())
}

func TestRunLeafWithoutCloseControl(t *testing.T) {
	dom := uitest.New(uitest.El("div", "").WithText("plain 900101-1234568"))

	out, err := runner(dom).RunLeaf(context.Background(), Leaf{})
	require.NoError(t, err)
	assert.False(t, out.TabsClosed)
	assert.Equal(t, []string{"900101-1234568"}, out.Matches["personal"])
}

func TestRunLeafDeadPage(t *testing.T) {
	p := newPage(true)
	p.dom.Dead = true

	out, err := runner(p.dom).RunLeaf(context.Background(), Leaf{})
	assert.ErrorIs(t, err, ui.ErrAccessor)
	assert.False(t, out.TabsClosed)
}

func TestRunLeafCapturesEvidenceForFindings(t *testing.T) {
	p := newPage(true)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 20))))
	p.dom.Shot = buf.Bytes()

	c, err := evidence.NewCollector(evidence.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	r := runner(p.dom)
	r.Evidence = c

	out, err := r.RunLeaf(context.Background(), Leaf{Side: "A", Top: "T1", Trail: []string{"L1"}})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Evidence)
	assert.Equal(t, 1, c.Count())

	p2 := newPage(false)
	p2.dom.Shot = buf.Bytes()
	r.Acc = p2.dom
	out, err = r.RunLeaf(context.Background(), Leaf{})
	require.NoError(t, err)
	assert.Empty(t, out.Evidence, "no findings, no screenshot")
	assert.Equal(t, 1, c.Count())
}
