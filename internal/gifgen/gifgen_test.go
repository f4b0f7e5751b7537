package gifgen

import (
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestGenerateScalesFramesToFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reel.gif")
	frames := []image.Image{
		solid(80, 40, color.RGBA{255, 0, 0, 255}),
		solid(160, 120, color.RGBA{0, 0, 255, 255}),
	}

	size, err := Generate(frames, path, Options{FrameDelay: 2 * time.Second, MaxWidth: 40})
	require.NoError(t, err)
	assert.Positive(t, size)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)

	require.Len(t, g.Image, 2)
	assert.Equal(t, []int{200, 200}, g.Delay)
	for _, img := range g.Image {
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.Equal(t, 20, img.Bounds().Dy())
	}
}

func TestGenerateWithoutFrames(t *testing.T) {
	_, err := Generate(nil, filepath.Join(t.TempDir(), "x.gif"), Options{})
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestGeneratePaletteSize(t *testing.T) {
	p := generatePalette(solid(8, 8, color.RGBA{1, 2, 3, 255}))
	assert.Len(t, p, 256)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, p[1])
}
