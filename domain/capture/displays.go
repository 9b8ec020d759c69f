package capture

import (
	"image"

	"github.com/kbinani/screenshot"
)

// VirtualDesktop returns the union of all active display bounds.
func VirtualDesktop() (image.Rectangle, bool) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return image.Rectangle{}, false
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, !union.Empty()
}

// Displays lists the bounds of each active display.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}
