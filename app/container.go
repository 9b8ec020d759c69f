package app

import (
	"log/slog"
	"runtime"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/capture"
	"github.com/soocke/flame-bot-go/domain/history"
	"github.com/soocke/flame-bot-go/domain/ocr"
	"github.com/soocke/flame-bot-go/domain/reroll"
	"github.com/soocke/flame-bot-go/ui/model"
)

// Container assembles the domain services and the models shared with the UI.
type Container struct {
	Runtime config.Runtime
	Logger  *slog.Logger

	Settings *model.SettingsModel
	Readings *model.ReadingModel
	Session  *model.SessionModel

	Capture *capture.Service
	OCR     *ocr.Tesseract
	Journal *history.Journal
	Locator action.Locator
	Engine  *reroll.Engine
}

// BuildContainer constructs all services. It has no side effects beyond
// logging; the Tk window is built by App.
func BuildContainer(settings *config.Settings, rt config.Runtime, logger *slog.Logger) *Container {
	c := &Container{Runtime: rt, Logger: logger}
	c.Settings = model.NewSettingsModel(settings)
	c.Readings = model.NewReadingModel()
	c.Session = model.NewSessionModel()

	c.Capture = capture.NewService(capture.NewGrabber(rt.CaptureBackend), logger.With("component", "capture"))
	ocfg := ocr.DefaultConfig()
	ocfg.Language = rt.OCRLanguage
	ocfg.TessdataPrefix = rt.TessdataPrefix
	ocfg.Mode = ocr.ParseMode(rt.OCRMode)
	ocfg.Timeout = rt.OCRTimeout
	if rt.Debug {
		ocfg.DebugDir = rt.DebugDir
	}
	c.OCR = ocr.NewTesseract(ocfg, logger.With("component", "ocr"), nil)
	c.Journal = history.NewJournal(rt.ResultsDir, rt.SaveScreenshots, logger.With("component", "history"))
	c.Locator = newLocator(rt, logger)

	opts := reroll.DefaultOptions()
	opts.Delays = settings.Delays
	opts.ConfirmKey = rt.ConfirmKey
	opts.WindowTitle = rt.WindowTitle
	c.Engine = reroll.NewEngine(reroll.Deps{
		Injector:  action.NewInjector(),
		Grabber:   c.Capture,
		Extractor: c.OCR,
		Locator:   c.Locator,
		Journal:   c.Journal,
	}, opts, logger.With("component", "reroll"))
	return c
}

// newLocator falls back to the whole virtual desktop as the client area when
// windows cannot be looked up by title.
func newLocator(rt config.Runtime, logger *slog.Logger) action.Locator {
	if rt.WindowTitle != "" && runtime.GOOS == "windows" {
		return action.NewLocator()
	}
	desk, ok := capture.VirtualDesktop()
	if !ok {
		logger.Warn("no displays found; window lookup unavailable")
		return action.NewLocator()
	}
	logger.Info("window lookup unavailable, using the desktop as game area", "bounds", desk.String())
	return action.StaticLocator{Window: action.Window{Title: "desktop", Rect: desk, Client: desk}}
}

// Locate returns the game window the engine would use.
func (c *Container) Locate() (action.Window, error) {
	return c.Locator.Locate(c.Engine.WindowTitle())
}
