// Package geometry converts DrawingML lengths to pixels and resolves fill
// colors to hex strings. Every function here is pure and safe for concurrent use.
package geometry

import "math"

const (
	// EMUPerPixel is the number of English Metric Units in one pixel at 96 DPI.
	EMUPerPixel = 9525

	// DefaultExtent is used when a shape declares no size: one inch.
	DefaultExtent = 914400
)

// Point is an offset in EMUs (a:off).
type Point struct {
	X int64
	Y int64
}

// Size is an extent in EMUs (a:ext).
type Size struct {
	CX int64
	CY int64
}

// Rect is a bounding box in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ToPixels converts an EMU length to whole pixels, rounding half away from zero.
func ToPixels(emu int64) int {
	return int(math.Round(float64(emu) / EMUPerPixel))
}

// Resolve converts an offset/extent pair to a pixel rectangle. A nil offset is
// the origin and a nil extent is a one-inch square.
func Resolve(off *Point, ext *Size) Rect {
	p := Point{}
	if off != nil {
		p = *off
	}
	s := Size{CX: DefaultExtent, CY: DefaultExtent}
	if ext != nil {
		s = *ext
	}
	return Rect{
		X:      ToPixels(p.X),
		Y:      ToPixels(p.Y),
		Width:  ToPixels(s.CX),
		Height: ToPixels(s.CY),
	}
}

// PointsToPixels converts a typographic point size to pixels at 96 DPI.
func PointsToPixels(pt float64) int {
	return int(math.Round(pt * 96 / 72))
}
