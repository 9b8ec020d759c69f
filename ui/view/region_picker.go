package view

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// RegionPicker opens a see-through, always-on-top window that the user moves
// and resizes over the flame result text. Confirm reports its screen rectangle.
type RegionPicker interface {
	Open(initial image.Rectangle)
}

type regionPicker struct {
	onConfirm func(abs image.Rectangle)
	win       *ToplevelWidget
}

const pickerKey = "#008080"

// NewRegionPicker returns a picker calling onConfirm with the chosen rectangle.
func NewRegionPicker(onConfirm func(abs image.Rectangle)) RegionPicker {
	return &regionPicker{onConfirm: onConfirm}
}

// Open shows the picker at initial, or focuses it when already open.
func (v *regionPicker) Open(initial image.Rectangle) {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	if initial.Dx() < 40 || initial.Dy() < 20 {
		initial = image.Rect(200, 200, 600, 450)
	}
	win := App.Toplevel(Borderwidth(2), Background(pickerKey))
	win.WmTitle("Capture Region")
	v.win = win
	WmGeometry(win.Window, fmt.Sprintf("%dx%d+%d+%d", initial.Dx(), initial.Dy(), initial.Min.X, initial.Min.Y))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmAttributes(win.Window, "-transparentcolor", pickerKey)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 1, Weight(1))
	left := win.Frame(Width(3), Background("#f59e0b"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background(pickerKey))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(3), Background("#f59e0b"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Use Region [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.close))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.close))
}

func (v *regionPicker) confirm() {
	if v.win == nil {
		return
	}
	rect, ok := parseGeometry(WmGeometry(v.win.Window))
	v.close()
	if ok && v.onConfirm != nil {
		v.onConfirm(rect)
	}
}

func (v *regionPicker) close() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

// geomRe matches Tk geometry strings "WIDTHxHEIGHT+X+Y".
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometry converts a Tk geometry string to a screen rectangle.
func parseGeometry(g string) (image.Rectangle, bool) {
	m := geomRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
