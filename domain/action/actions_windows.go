//go:build windows

package action

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mouseeventfLeftDown  = 0x0002
	mouseeventfLeftUp    = 0x0004
	mouseeventfRightDown = 0x0008
	mouseeventfRightUp   = 0x0010
	keyeventfKeyUp       = 0x0002
	mapvkVKToVSC         = 0
	swRestore            = 9
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetCursorPos        = user32.NewProc("SetCursorPos")
	procGetCursorPos        = user32.NewProc("GetCursorPos")
	procMouseEvent          = user32.NewProc("mouse_event")
	procKeybdEvent          = user32.NewProc("keybd_event")
	procMapVirtualKeyW      = user32.NewProc("MapVirtualKeyW")
	procEnumWindows         = user32.NewProc("EnumWindows")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procGetClientRect       = user32.NewProc("GetClientRect")
	procClientToScreen      = user32.NewProc("ClientToScreen")
	procIsIconic            = user32.NewProc("IsIconic")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
)

type rect struct{ Left, Top, Right, Bottom int32 }

type point struct{ X, Y int32 }

// winInjector drives input through user32. With Steps > 0 the cursor glides
// to its target in that many increments instead of jumping.
type winInjector struct {
	Steps    int
	StepWait time.Duration
	ClickDur time.Duration
}

// NewInjector returns the user32 backed injector.
func NewInjector() Injector {
	return &winInjector{Steps: 12, StepWait: 5 * time.Millisecond, ClickDur: 30 * time.Millisecond}
}

func (w *winInjector) MoveTo(x, y int) error {
	if w.Steps > 0 {
		var cur point
		if r, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&cur))); r != 0 {
			sx, sy := int(cur.X), int(cur.Y)
			for i := 1; i < w.Steps; i++ {
				ix := sx + (x-sx)*i/w.Steps
				iy := sy + (y-sy)*i/w.Steps
				procSetCursorPos.Call(uintptr(int32(ix)), uintptr(int32(iy)))
				time.Sleep(w.StepWait)
			}
		}
	}
	if r, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y))); r == 0 {
		return fmt.Errorf("SetCursorPos(%d,%d): %w", x, y, err)
	}
	return nil
}

func (w *winInjector) Click(x, y int, button Button) error {
	if err := w.MoveTo(x, y); err != nil {
		return err
	}
	down, up := uintptr(mouseeventfLeftDown), uintptr(mouseeventfLeftUp)
	if button == ButtonRight {
		down, up = mouseeventfRightDown, mouseeventfRightUp
	}
	procMouseEvent.Call(down, 0, 0, 0, 0)
	time.Sleep(w.ClickDur)
	procMouseEvent.Call(up, 0, 0, 0, 0)
	return nil
}

func (w *winInjector) KeyDown(key string) error { return sendKey(key, 0) }

func (w *winInjector) KeyUp(key string) error { return sendKey(key, keyeventfKeyUp) }

// sendKey posts a key event with both the virtual-key and the hardware scan
// code; DirectInput games ignore events without a scan code.
func sendKey(key string, flags uintptr) error {
	vk, err := ParseVK(key)
	if err != nil {
		return err
	}
	scan, _, _ := procMapVirtualKeyW.Call(uintptr(vk), mapvkVKToVSC)
	procKeybdEvent.Call(uintptr(vk), scan&0xFF, flags, 0)
	return nil
}

// winLocator finds top-level windows through user32.
type winLocator struct{}

// NewLocator returns the user32 backed window locator.
func NewLocator() Locator { return winLocator{} }

// Locate returns the first visible window whose title contains title,
// ignoring case.
func (winLocator) Locate(title string) (Window, error) {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return Window{}, fmt.Errorf("%w: empty title", ErrWindowNotFound)
	}
	var found uintptr
	var foundTitle string
	enumVisible(func(hwnd uintptr, t string) bool {
		if strings.Contains(strings.ToLower(t), needle) {
			found, foundTitle = hwnd, t
			return false
		}
		return true
	})
	if found == 0 {
		return Window{}, fmt.Errorf("%w: %q", ErrWindowNotFound, title)
	}
	return geometry(found, foundTitle)
}

// Activate restores a minimized window and brings it to the foreground.
func (winLocator) Activate(w Window) error {
	if w.Handle == 0 {
		return nil
	}
	if iconic, _, _ := procIsIconic.Call(w.Handle); iconic != 0 {
		procShowWindow.Call(w.Handle, swRestore)
		time.Sleep(200 * time.Millisecond)
	}
	if fg, _, _ := procGetForegroundWindow.Call(); fg == w.Handle {
		return nil
	}
	if r, _, err := procSetForegroundWindow.Call(w.Handle); r == 0 {
		return fmt.Errorf("SetForegroundWindow %q: %w", w.Title, err)
	}
	return nil
}

func geometry(hwnd uintptr, title string) (Window, error) {
	var wr, cr rect
	if r, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&wr))); r == 0 {
		return Window{}, fmt.Errorf("GetWindowRect %q: %w", title, err)
	}
	if r, _, err := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&cr))); r == 0 {
		return Window{}, fmt.Errorf("GetClientRect %q: %w", title, err)
	}
	origin := point{}
	if r, _, err := procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(&origin))); r == 0 {
		return Window{}, fmt.Errorf("ClientToScreen %q: %w", title, err)
	}
	client := image.Rect(int(origin.X), int(origin.Y), int(origin.X+cr.Right-cr.Left), int(origin.Y+cr.Bottom-cr.Top))
	if client.Empty() {
		return Window{}, fmt.Errorf("%w: %q has an empty client area", ErrWindowNotFound, title)
	}
	return Window{
		Handle: hwnd,
		Title:  title,
		Rect:   image.Rect(int(wr.Left), int(wr.Top), int(wr.Right), int(wr.Bottom)),
		Client: client,
	}, nil
}

func windowText(hwnd uintptr) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return strings.TrimSpace(windows.UTF16ToString(buf[:n]))
}

// ListWindows returns titles of visible top-level windows with a non-empty title.
func ListWindows() ([]string, error) {
	var titles []string
	if err := enumVisible(func(_ uintptr, t string) bool {
		titles = append(titles, t)
		return true
	}); err != nil {
		return nil, err
	}
	return titles, nil
}

// The runtime caps the number of callbacks, so a single one is shared and
// enumeration is serialized.
var (
	enumMu       sync.Mutex
	enumVisit    func(hwnd uintptr, title string) bool
	enumStopped  bool
	enumCallback = syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		t := windowText(hwnd)
		if t == "" {
			return 1
		}
		if !enumVisit(hwnd, t) {
			enumStopped = true
			return 0
		}
		return 1
	})
)

// enumVisible calls visit for each visible titled top-level window until it
// returns false.
func enumVisible(visit func(hwnd uintptr, title string) bool) error {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumVisit, enumStopped = visit, false
	r, _, err := procEnumWindows.Call(enumCallback, 0)
	enumVisit = nil
	if r == 0 && !enumStopped {
		return fmt.Errorf("EnumWindows: %w", err)
	}
	return nil
}

// ForegroundWindowTitle returns the title of the current foreground window.
func ForegroundWindowTitle() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", errors.New("no foreground window")
	}
	return windowText(hwnd), nil
}

// CursorPos returns the current pointer position in screen coordinates.
func CursorPos() (image.Point, error) {
	var p point
	if r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p))); r == 0 {
		return image.Point{}, fmt.Errorf("GetCursorPos: %w", err)
	}
	return image.Pt(int(p.X), int(p.Y)), nil
}
