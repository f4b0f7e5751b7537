// Package overlay draws finding markers on evidence screenshots.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	markColor  = color.RGBA{220, 38, 38, 255}
	ringColor  = color.RGBA{220, 38, 38, 140}
	borderSize = 4
)

// Mark returns a copy of frame with a red border and a target ring around
// (x, y), the centre of the menu entry that led to the finding. A zero
// point draws the border only.
func Mark(frame image.Image, x, y int) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	drawBorder(result, borderSize, markColor)

	if x == 0 && y == 0 {
		return result
	}
	drawRing(result, x, y, 18, ringColor)
	drawRing(result, x, y, 12, markColor)
	drawLine(result, x-6, y, x+6, y, markColor)
	drawLine(result, x, y-6, x, y+6, markColor)
	return result
}

func drawBorder(img *image.RGBA, width int, c color.RGBA) {
	b := img.Bounds()
	for i := 0; i < width; i++ {
		drawLine(img, b.Min.X, b.Min.Y+i, b.Max.X-1, b.Min.Y+i, c)
		drawLine(img, b.Min.X, b.Max.Y-1-i, b.Max.X-1, b.Max.Y-1-i, c)
		drawLine(img, b.Min.X+i, b.Min.Y, b.Min.X+i, b.Max.Y-1, c)
		drawLine(img, b.Max.X-1-i, b.Min.Y, b.Max.X-1-i, b.Max.Y-1, c)
	}
}

// drawRing draws a two pixel thick circle outline.
func drawRing(img *image.RGBA, x, y, radius int, c color.RGBA) {
	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(float64(radius)*math.Cos(rad))
		py := y + int(float64(radius)*math.Sin(rad))
		setPixelSafe(img, px, py, c)
		setPixelSafe(img, px+1, py, c)
		setPixelSafe(img, px, py+1, c)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
