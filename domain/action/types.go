package action

import (
	"errors"
	"image"
)

// Button names a mouse button.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

var (
	// ErrWindowNotFound is returned when no visible window matches the title.
	ErrWindowNotFound = errors.New("window not found")
	// ErrUnsupported is returned on platforms without an implementation.
	ErrUnsupported = errors.New("not supported on this platform")
	// ErrUnknownKey is returned for key names without a virtual-key mapping.
	ErrUnknownKey = errors.New("unknown key")
)

// Window is a located top-level window. Rect and Client are absolute screen
// coordinates; Client excludes borders and the title bar.
type Window struct {
	Handle uintptr
	Title  string
	Rect   image.Rectangle
	Client image.Rectangle
}

// Injector sends synthetic input at absolute screen coordinates.
type Injector interface {
	MoveTo(x, y int) error
	Click(x, y int, button Button) error
	KeyDown(key string) error
	KeyUp(key string) error
}

// Locator finds windows by title substring and brings them to the front.
type Locator interface {
	Locate(title string) (Window, error)
	Activate(w Window) error
}

// StaticLocator always returns the same window. It is used when no window
// title is configured and the whole desktop acts as the client area.
type StaticLocator struct{ Window Window }

func (s StaticLocator) Locate(string) (Window, error) {
	if s.Window.Client.Empty() {
		return Window{}, ErrWindowNotFound
	}
	return s.Window, nil
}

func (StaticLocator) Activate(Window) error { return nil }

var _ Locator = StaticLocator{}
