//go:build !windows

package capture

import (
	"errors"
	"image"
)

type gdiGrabber struct{}

func (gdiGrabber) Capture(image.Rectangle) (*image.RGBA, error) {
	return nil, errors.New("capture: gdi backend requires windows")
}
