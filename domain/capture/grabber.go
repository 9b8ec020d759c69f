package capture

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/vova616/screenshot"
)

// Grabber returns a bitmap of an absolute screen rectangle.
type Grabber interface {
	Capture(rect image.Rectangle) (*image.RGBA, error)
}

// GrabberFunc adapts a plain function to the Grabber interface.
type GrabberFunc func(rect image.Rectangle) (*image.RGBA, error)

func (f GrabberFunc) Capture(rect image.Rectangle) (*image.RGBA, error) { return f(rect) }

// Backend names accepted by NewGrabber.
const (
	BackendScreenshot = "screenshot"
	BackendGDI        = "gdi"
)

// ErrEmptyRect is returned for zero-area or fully off-screen requests.
var ErrEmptyRect = errors.New("capture: empty rectangle")

// NewGrabber returns the grabber for backend. Unknown names fall back to the
// portable screenshot backend.
func NewGrabber(backend string) Grabber {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendGDI:
		return gdiGrabber{}
	default:
		return screenGrabber{}
	}
}

// screenGrabber captures through the screenshot library.
type screenGrabber struct{}

func (screenGrabber) Capture(rect image.Rectangle) (*image.RGBA, error) {
	r, err := clip(rect)
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("capture: rect %v: %w", r, err)
	}
	return img, nil
}

// clip intersects rect with the virtual desktop. When display bounds are not
// available the rectangle is passed through unchanged.
func clip(rect image.Rectangle) (image.Rectangle, error) {
	if rect.Empty() {
		return image.Rectangle{}, ErrEmptyRect
	}
	desk, ok := VirtualDesktop()
	if !ok {
		return rect, nil
	}
	r := rect.Intersect(desk)
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: %v outside desktop %v", ErrEmptyRect, rect, desk)
	}
	return r, nil
}
