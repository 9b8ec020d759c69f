package capture

import (
	"fmt"
	"image"
	"math"
	"time"
)

// Region is a rectangle in fractions of a window's client area.
type Region struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// DefaultRegion covers the flame result text in the reroll dialog.
func DefaultRegion() Region { return Region{Left: 0.3, Top: 0.4, Right: 0.7, Bottom: 0.7} }

// Validate enforces 0 <= v <= 1 and left < right, top < bottom.
func (r Region) Validate() error {
	for name, v := range map[string]float64{"left": r.Left, "top": r.Top, "right": r.Right, "bottom": r.Bottom} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("capture region %s=%v out of [0,1]", name, v)
		}
	}
	if r.Left >= r.Right {
		return fmt.Errorf("capture region left=%v must be < right=%v", r.Left, r.Right)
	}
	if r.Top >= r.Bottom {
		return fmt.Errorf("capture region top=%v must be < bottom=%v", r.Top, r.Bottom)
	}
	return nil
}

// Resolve converts the fractions to absolute pixels inside client.
func (r Region) Resolve(client image.Rectangle) image.Rectangle {
	w, h := float64(client.Dx()), float64(client.Dy())
	return image.Rect(
		client.Min.X+int(math.Round(r.Left*w)),
		client.Min.Y+int(math.Round(r.Top*h)),
		client.Min.X+int(math.Round(r.Right*w)),
		client.Min.Y+int(math.Round(r.Bottom*h)),
	)
}

// RegionFrom converts an absolute rectangle back to fractions of client.
// Used when the user drags a selection on screen.
func RegionFrom(abs, client image.Rectangle) Region {
	w, h := float64(client.Dx()), float64(client.Dy())
	if w <= 0 || h <= 0 {
		return Region{}
	}
	r := abs.Intersect(client)
	return Region{
		Left:   float64(r.Min.X-client.Min.X) / w,
		Top:    float64(r.Min.Y-client.Min.Y) / h,
		Right:  float64(r.Max.X-client.Min.X) / w,
		Bottom: float64(r.Max.Y-client.Min.Y) / h,
	}
}

// Point is a position in fractions of a window's client area.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate enforces both coordinates within [0,1].
func (p Point) Validate() error {
	if math.IsNaN(p.X) || p.X < 0 || p.X > 1 || math.IsNaN(p.Y) || p.Y < 0 || p.Y > 1 {
		return fmt.Errorf("position (%v,%v) out of [0,1]", p.X, p.Y)
	}
	return nil
}

// Resolve converts the fractions to an absolute screen point inside client.
func (p Point) Resolve(client image.Rectangle) image.Point {
	return image.Pt(
		client.Min.X+int(math.Round(p.X*float64(client.Dx()))),
		client.Min.Y+int(math.Round(p.Y*float64(client.Dy()))),
	)
}

// PointFrom converts an absolute screen point to fractions of client,
// clamped to the client area.
func PointFrom(pt image.Point, client image.Rectangle) Point {
	w, h := float64(client.Dx()), float64(client.Dy())
	if w <= 0 || h <= 0 {
		return Point{}
	}
	x := math.Min(math.Max(float64(pt.X-client.Min.X)/w, 0), 1)
	y := math.Min(math.Max(float64(pt.Y-client.Min.Y)/h, 0), 1)
	return Point{X: x, Y: y}
}

// Frame is one captured bitmap plus the screen rectangle it came from.
type Frame struct {
	Image      *image.RGBA
	Rect       image.Rectangle
	CapturedAt time.Time
	Sequence   uint64
}

// CaptureStats summarises grabber behaviour for instrumentation.
type CaptureStats struct {
	Captures   uint64
	Failures   uint64
	AvgCapture time.Duration
	LastRect   image.Rectangle
	Sequence   uint64
}
