//go:build !windows

package action

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-vgo/robotgo"
)

type robotInjector struct{}

// NewInjector returns the robotgo backed injector.
func NewInjector() Injector { return robotInjector{} }

func (robotInjector) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (robotInjector) Click(x, y int, button Button) error {
	robotgo.Move(x, y)
	robotgo.MilliSleep(30)
	robotgo.Click(string(button))
	return nil
}

func (robotInjector) KeyDown(key string) error { return toggle(key, "down") }

func (robotInjector) KeyUp(key string) error { return toggle(key, "up") }

func toggle(key, dir string) error {
	if _, err := ParseVK(key); err != nil {
		return err
	}
	if err := robotgo.KeyToggle(robotKey(key), dir); err != nil {
		return fmt.Errorf("key %s %s: %w", key, dir, err)
	}
	return nil
}

// robotKey maps our key names onto robotgo's.
func robotKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "return":
		return "enter"
	case "escape":
		return "esc"
	case "delete":
		return "delete"
	case "ctrl":
		return "control"
	}
	return k
}

type unsupportedLocator struct{}

// NewLocator returns a locator that cannot find windows on this platform.
// Callers fall back to StaticLocator with the desktop bounds.
func NewLocator() Locator { return unsupportedLocator{} }

func (unsupportedLocator) Locate(title string) (Window, error) {
	return Window{}, fmt.Errorf("locate %q: %w", title, ErrUnsupported)
}

func (unsupportedLocator) Activate(Window) error { return nil }

// ListWindows is not available on this platform.
func ListWindows() ([]string, error) { return nil, ErrUnsupported }

// ForegroundWindowTitle returns the active window title as reported by robotgo.
func ForegroundWindowTitle() (string, error) { return robotgo.GetTitle(), nil }

// CursorPos returns the current pointer position in screen coordinates.
func CursorPos() (image.Point, error) {
	x, y := robotgo.Location()
	return image.Pt(x, y), nil
}
