package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/v0xg/menusweep/internal/ui"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("click: %w", context.DeadlineExceeded), ui.ErrTimeout},
		{"canceled", context.Canceled, context.Canceled},
		{"lost context", errors.New("{-32000 Cannot find context with specified id}"), ui.ErrStale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}

	assert.NoError(t, classify(nil))
	other := errors.New("something else")
	assert.Equal(t, other, classify(other))
	assert.False(t, ui.IsFatal(classify(other)))
}

func TestElementRejectsForeignHandles(t *testing.T) {
	_, err := element("not an element")
	assert.ErrorIs(t, err, ui.ErrStale)

	_, err = element(nil)
	assert.ErrorIs(t, err, ui.ErrStale)

	_, err = (&Browser{}).Contains(context.Background(), "not an element", nil)
	assert.ErrorIs(t, err, ui.ErrStale)
}

func TestPace(t *testing.T) {
	b := &Browser{}
	assert.NoError(t, b.pace(context.Background()), "no limiter, no wait")

	b.limiter = rate.NewLimiter(rate.Limit(1000), 1)
	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(t, b.pace(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)

	b.limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	assert.NoError(t, b.pace(context.Background()), "burst of one is immediate")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.pace(ctx), context.Canceled)
}
