package app

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/ui/presenter"
	"github.com/soocke/flame-bot-go/ui/theme"
	"github.com/soocke/flame-bot-go/ui/view"
)

const (
	tick          = 100 * time.Millisecond
	positionDelay = 3 * time.Second
	// Title of the bot window; the focus watcher treats it as allowed.
	Title = "Flame Bot"
)

// app is the Tk control panel around a Container.
type app struct {
	c            *Container
	settingsPath string
	ctx          context.Context
	cancel       context.CancelFunc
	width        int
	height       int

	root     *view.RootView
	picker   view.RegionPicker
	run      *presenter.RunPresenter
	settings *presenter.SettingsPresenter
	loop     *presenter.Loop
	afterID  string

	settingsVersion uint64
}

func NewApp(ctx context.Context, c *Container, settingsPath string, width, height int) *app {
	ctx, cancel := context.WithCancel(ctx)
	a := &app{c: c, settingsPath: settingsPath, ctx: ctx, cancel: cancel, width: width, height: height}
	App.WmTitle(Title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exit)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the UI and blocks in the Tk event loop.
func (a *app) Start() {
	c := a.c
	theme.InitStyles()
	a.settings = presenter.NewSettingsPresenter(c.Settings, a.settingsPath, c.Logger)
	a.root = view.NewRootView(c.Logger)
	a.picker = view.NewRegionPicker(a.regionPicked)
	a.run = presenter.NewRunPresenter(a.ctx, c.Engine, c.Settings, c.Readings, a.root, c.Logger)

	a.root.Build(a.windowTitles(), a.settings.Fields(), view.Handlers{
		Start:         a.run.Start,
		Stop:          a.run.Stop,
		Probe:         a.run.Probe,
		PickRegion:    a.pickRegion,
		PickPosition:  a.pickPosition,
		CopyOCR:       a.copyOCR,
		Export:        a.export,
		Exit:          a.exit,
		ApplySettings: a.applySettings,
		WindowChanged: c.Engine.SetWindowTitle,
	})
	a.settingsVersion = c.Settings.Version()

	state := presenter.NewStatePresenter(c.Engine, a.root, c.Readings)
	c.Engine.AddListener(state.OnState)
	if c.Runtime.StopOnFocusLoss {
		fw := presenter.NewFocusWatcher(c.Engine, c.Logger, nil, c.Engine.WindowTitle, Title)
		c.Engine.AddListener(fw.OnState)
	}
	a.loop = presenter.NewLoop(
		presenter.NewSessionPresenter(c.Session, c.Engine, a.root),
		state,
		a.run,
		presenter.NewPreviewPresenter(c.Capture, a.root),
		a.scheduleUpdate,
	)
	a.scheduleUpdate()
	App.Wait()
}

func (a *app) scheduleUpdate() {
	a.afterID = TclAfter(tick, a.update)
}

func (a *app) update() {
	// settings reloaded from disk by the file watcher
	if v := a.c.Settings.Version(); v != a.settingsVersion {
		a.settingsVersion = v
		a.root.RefreshSettings(a.settings.Fields())
	}
	a.loop.Tick()
}

func (a *app) exit() {
	a.c.Engine.Stop()
	a.cancel()
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	Destroy(App)
}

// windowTitles lists visible windows with the configured game title first.
func (a *app) windowTitles() []string {
	titles := []string{a.c.Engine.WindowTitle()}
	list, err := action.ListWindows()
	if err != nil {
		a.c.Logger.Debug("window list unavailable", "error", err)
		return titles
	}
	for _, t := range list {
		if t != titles[0] && t != Title {
			titles = append(titles, t)
		}
	}
	return titles
}

func (a *app) applySettings(fields map[string]string) {
	if err := a.settings.Apply(fields); err != nil {
		a.root.SetStatus(fmt.Sprintf("Settings not saved: %v", err))
		return
	}
	a.settingsVersion = a.c.Settings.Version()
	a.root.SetStatus("Settings saved")
}

func (a *app) pickRegion() {
	w, err := a.c.Locate()
	if err != nil {
		a.root.SetStatus(fmt.Sprintf("Game window not found: %v", err))
		return
	}
	a.picker.Open(a.c.Settings.Get().CaptureRegion.Resolve(w.Client))
}

func (a *app) regionPicked(abs image.Rectangle) {
	w, err := a.c.Locate()
	if err != nil {
		a.root.SetStatus(fmt.Sprintf("Game window not found: %v", err))
		return
	}
	if err := a.settings.SetRegion(abs, w.Client); err != nil {
		a.root.SetStatus(fmt.Sprintf("Capture region not saved: %v", err))
		return
	}
	a.settingsVersion = a.c.Settings.Version()
	a.root.SetStatus("Capture region saved; use Test Capture to check it")
}

// pickPosition samples the cursor after a countdown so the user can hover
// the reroll button in the game.
func (a *app) pickPosition() {
	a.root.SetStatus(fmt.Sprintf("Hover the mouse over the reroll button; position is taken in %v", positionDelay))
	TclAfter(positionDelay, func() {
		pt, err := action.CursorPos()
		if err != nil {
			a.root.SetStatus(fmt.Sprintf("Cursor position unavailable: %v", err))
			return
		}
		w, err := a.c.Locate()
		if err != nil {
			a.root.SetStatus(fmt.Sprintf("Game window not found: %v", err))
			return
		}
		if err := a.settings.SetPosition(pt, w.Client); err != nil {
			a.root.SetStatus(fmt.Sprintf("Reroll position not saved: %v", err))
			return
		}
		a.settingsVersion = a.c.Settings.Version()
		a.root.SetStatus(fmt.Sprintf("Reroll position saved at %d,%d", pt.X, pt.Y))
	})
}

func (a *app) copyOCR() {
	text := a.c.Readings.RawText()
	if text == "" {
		a.root.SetStatus("No OCR text to copy yet")
		return
	}
	if err := copyText(text); err != nil {
		a.c.Logger.Error("clipboard write failed", "error", err)
		a.root.SetStatus(fmt.Sprintf("Clipboard unavailable: %v", err))
		return
	}
	a.root.SetStatus("OCR text copied to clipboard")
}

func (a *app) export() {
	if len(a.c.Journal.Rows()) == 0 {
		a.root.SetStatus("Nothing to export yet")
		return
	}
	path := filepath.Join(a.c.Runtime.ResultsDir, fmt.Sprintf("report_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")))
	if err := a.c.Journal.ExportXLSX(path); err != nil {
		a.c.Logger.Error("report export failed", "path", path, "error", err)
		a.root.SetStatus(fmt.Sprintf("Export failed: %v", err))
		return
	}
	a.root.SetStatus("Report written to " + path)
}
