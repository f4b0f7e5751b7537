// Package evidence saves marked screenshots of screens that produced
// findings and can bundle them into a GIF reel.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/nfnt/resize"

	"github.com/v0xg/menusweep/internal/gifgen"
	"github.com/v0xg/menusweep/internal/overlay"
	"github.com/v0xg/menusweep/internal/ui"
)

// Options configures evidence capture.
type Options struct {
	Dir        string        // PNG output directory
	MaxWidth   uint          // downscale wider screenshots
	GIF        string        // optional reel path
	FrameDelay time.Duration // reel frame duration
}

// Marker is the page coordinate of the menu entry behind a finding.
type Marker struct {
	X, Y int
}

// Collector writes one PNG per captured finding and remembers the frames
// for the reel.
type Collector struct {
	opts   Options
	frames []image.Image
}

// NewCollector prepares the output directory.
func NewCollector(opts Options) (*Collector, error) {
	if opts.Dir == "" {
		opts.Dir = "evidence"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &Collector{opts: opts}, nil
}

// Count is the number of captured frames.
func (c *Collector) Count() int { return len(c.frames) }

// Capture screenshots the page, marks it and saves it. It returns the
// written file path.
func (c *Collector) Capture(ctx context.Context, shooter ui.Screenshotter, marker *Marker, side, top string, trail []string) (string, error) {
	data, err := shooter.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}

	if marker != nil {
		img = overlay.Mark(img, marker.X, marker.Y)
	} else {
		img = overlay.Mark(img, 0, 0)
	}
	if w := uint(img.Bounds().Dx()); c.opts.MaxWidth > 0 && w > c.opts.MaxWidth {
		img = resize.Resize(c.opts.MaxWidth, 0, img, resize.Lanczos3)
	}

	parts := append([]string{side, top}, trail...)
	name := fmt.Sprintf("%03d-%s.png", len(c.frames)+1, slug(parts))
	path := filepath.Join(c.opts.Dir, name)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode evidence: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write evidence: %w", err)
	}

	c.frames = append(c.frames, img)
	return path, nil
}

// Finish writes the GIF reel when one was requested and frames exist.
// It returns the reel path and size, or "" when nothing was written.
func (c *Collector) Finish() (string, int64, error) {
	if c.opts.GIF == "" || len(c.frames) == 0 {
		return "", 0, nil
	}
	size, err := gifgen.Generate(c.frames, c.opts.GIF, gifgen.Options{
		FrameDelay: c.opts.FrameDelay,
		MaxWidth:   c.opts.MaxWidth,
	})
	if err != nil {
		return "", 0, fmt.Errorf("write evidence reel: %w", err)
	}
	return c.opts.GIF, size, nil
}

// slug joins parts into a file-name-safe string, keeping letters of any
// script.
func slug(parts []string) string {
	joined := strings.Join(parts, "-")
	s := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, joined)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	if s == "" {
		s = "leaf"
	}
	return s
}
