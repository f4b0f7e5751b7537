package ui_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/menusweep/internal/ui"
	"github.com/v0xg/menusweep/internal/ui/uitest"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "모든 탭 닫기", ui.NormalizeLabel("  모든\n  탭\t닫기 "))
	assert.Equal(t, "", ui.NormalizeLabel(" \n "))

	decomposed := "\u1112\u1161\u11ab"
	assert.Equal(t, "\ud55c", ui.NormalizeLabel(decomposed))
}

func button(text string) *uitest.Element {
	return uitest.El("div", "btn", uitest.El("span", "cl-text").WithText(text)).WithAttr("role", "button")
}

func TestFindByLabel(t *testing.T) {
	dom := uitest.New(
		button("인사"),
		button("인사\n관리"),
		button("조회"),
		button("인사"),
	)
	ctx := context.Background()

	found, err := ui.FindByLabel(ctx, dom, `[role="button"]`, "인사")
	require.NoError(t, err)
	assert.Len(t, found, 2, "exact label only")

	found, err = ui.FindByLabel(ctx, dom, `[role="button"]`, "인사 관리")
	require.NoError(t, err)
	assert.Len(t, found, 1, "whitespace tolerant")

	found, err = ui.FindByLabel(ctx, dom, `[role="button"]`, "없음")
	require.NoError(t, err)
	assert.Empty(t, found)

	dom.Dead = true
	_, err = ui.FindByLabel(ctx, dom, `[role="button"]`, "인사")
	assert.ErrorIs(t, err, ui.ErrAccessor)
}

func TestLabels(t *testing.T) {
	dom := uitest.New(uitest.El("div", "bar",
		uitest.El("div", "item").WithText(" A "),
		uitest.El("div", "item").WithText(""),
		uitest.El("div", "item").WithText("B\nC"),
	))
	labels, err := ui.Labels(context.Background(), dom, ".bar .item")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B C"}, labels)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, ui.IsFatal(ui.ErrAccessor))
	assert.True(t, ui.IsFatal(context.Canceled))
	assert.False(t, ui.IsFatal(ui.ErrStale))
	assert.False(t, ui.IsFatal(ui.ErrTimeout))
	assert.False(t, ui.IsFatal(context.DeadlineExceeded))
	assert.False(t, ui.IsFatal(nil))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, ui.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ui.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, ui.Sleep(ctx, 0), context.Canceled)
}
