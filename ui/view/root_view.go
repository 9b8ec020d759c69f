package view

import (
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/soocke/flame-bot-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the user actions wired by the app.
type Handlers struct {
	Start         func()
	Stop          func()
	Probe         func()
	PickRegion    func()
	PickPosition  func()
	CopyOCR       func()
	Export        func()
	Exit          func()
	ApplySettings func(fields map[string]string)
	WindowChanged func(title string)
}

// RootView composes the top-level layout. Its methods satisfy the presenter
// view contracts and must be called on the Tk thread.
type RootView struct {
	logger *slog.Logger

	Session     SessionStats
	ConfigPanel ConfigPanel
	Preview     CapturePreview

	StateLabel    *TLabelWidget
	StatusLabel   *TLabelWidget
	ProgressLabel *LabelWidget
	Result        *TextWidget
	WindowSelect  *TComboboxWidget
	startBtn      *TButtonWidget
}

func NewRootView(logger *slog.Logger) *RootView {
	return &RootView{logger: logger}
}

// Build constructs the layout. titles fills the game window dropdown; fields
// seeds the settings form.
func (rv *RootView) Build(titles []string, fields map[string]string, h Handlers) {
	if rv == nil {
		return
	}
	top := Frame()
	Grid(top, Row(0), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	rv.Session = NewSessionStats(top, 0, 0)
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, In(top), Row(0), Column(2), Sticky("we"), Padx("0.4m"))

	btns := Frame()
	Grid(btns, Row(0), Column(4), Rowspan(13), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	row := 0
	button := func(text, style string, cmd func()) *TButtonWidget {
		if cmd == nil {
			cmd = func() {}
		}
		opts := []Opt{Txt(text), Command(cmd)}
		if style != "" {
			opts = append(opts, Style(style))
		}
		b := TButton(opts...)
		Grid(b, In(btns), Row(row), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		row++
		return b
	}
	rv.startBtn = button("Start Rolling", theme.StylePrimaryButton, h.Start)
	button("Stop [Esc]", theme.StyleDangerButton, h.Stop)
	button("Test Capture", "", h.Probe)
	if len(titles) == 0 {
		titles = []string{"<none>"}
	}
	rv.WindowSelect = TCombobox(Values(titles), Width(26))
	Grid(rv.WindowSelect, In(btns), Row(row), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	row++
	rv.WindowSelect.Current(0)
	Bind(rv.WindowSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.WindowSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(titles) {
			if rv.logger != nil {
				rv.logger.Error("window selection parse error", "error", err)
			}
			return
		}
		if h.WindowChanged != nil {
			h.WindowChanged(titles[idx])
		}
	}))
	button("Set Capture Region", "", h.PickRegion)
	button("Set Reroll Position", "", h.PickPosition)
	button("Copy OCR Text", "", h.CopyOCR)
	button("Export Report", "", h.Export)
	button("Theme", "", func() { theme.ToggleDark() })
	button("Exit", "", h.Exit)

	rv.ConfigPanel = NewConfigPanel(fields, h.ApplySettings)
	next := rv.ConfigPanel.Build(1)

	rv.StatusLabel = TLabel(Txt("Ready"), Anchor("w"), Style(theme.StyleStatusLabel))
	Grid(rv.StatusLabel, Row(next), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"))
	next++
	rv.ProgressLabel = Label(Txt(""), Anchor("w"))
	Grid(rv.ProgressLabel, Row(next), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"))
	next++
	rv.Result = Text(Height(6), Width(60), Wrap("word"))
	Grid(rv.Result, Row(next), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	next++
	rv.Preview = NewCapturePreview(next)
}

func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetProgress(text string) {
	if rv != nil && rv.ProgressLabel != nil {
		rv.ProgressLabel.Configure(Txt(text))
	}
}

// SetResult replaces the reading summary.
func (rv *RootView) SetResult(text string) {
	if rv == nil || rv.Result == nil {
		return
	}
	rv.Result.Delete("1.0", END)
	rv.Result.Insert("1.0", text)
}

// ConfigEditable locks the form and Start button while a run is active.
func (rv *RootView) ConfigEditable(enabled bool) {
	if rv == nil {
		return
	}
	if rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
	if rv.startBtn != nil {
		state := "disabled"
		if enabled {
			state = "normal"
		}
		rv.startBtn.Configure(State(state))
	}
}

// RefreshSettings reloads the form after an external settings change.
func (rv *RootView) RefreshSettings(fields map[string]string) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.Refresh(fields)
	}
}

func (rv *RootView) UpdateCapture(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdateCapture(img)
	}
}

func (rv *RootView) PreviewReset() {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Reset()
	}
}

func (rv *RootView) SetSession(run, total time.Duration) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetSession(run, total)
	}
}
