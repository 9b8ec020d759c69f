package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/reroll"
	"github.com/soocke/flame-bot-go/ui/model"
)

// RunEngine narrows the reroll engine to what the run controls need.
type RunEngine interface {
	StartFromSettings(ctx context.Context, s *config.Settings) error
	Stop()
	Running() bool
	Probe(ctx context.Context, s *config.Settings) (reroll.ProbeResult, error)
}

// SettingsSource supplies the settings a run starts with.
type SettingsSource interface {
	Get() *config.Settings
}

// RunView updates UI elements affected by starting and stopping runs.
// The state label belongs to StatePresenter.
type RunView interface {
	SetStatus(text string)
	ConfigEditable(bool)
	PreviewReset()
}

// RunPresenter owns the Start, Stop and Test capture buttons. Probe results
// arrive on a worker goroutine and are flushed to the view on Tick.
type RunPresenter struct {
	ctx      context.Context
	engine   RunEngine
	settings SettingsSource
	readings *model.ReadingModel
	view     RunView
	logger   *slog.Logger

	probing atomic.Bool
	mu      sync.Mutex
	pending []string
}

func NewRunPresenter(ctx context.Context, engine RunEngine, settings SettingsSource, readings *model.ReadingModel, view RunView, logger *slog.Logger) *RunPresenter {
	return &RunPresenter{ctx: ctx, engine: engine, settings: settings, readings: readings, view: view, logger: logger}
}

// Start launches a run with the current settings. Errors are shown in the
// status line and leave the form editable.
func (p *RunPresenter) Start() {
	if p == nil || p.engine == nil || p.settings == nil || p.view == nil {
		return
	}
	if p.engine.Running() {
		return
	}
	p.view.ConfigEditable(false)
	if err := p.engine.StartFromSettings(p.ctx, p.settings.Get()); err != nil {
		p.view.ConfigEditable(true)
		p.view.SetStatus(startError(err))
		if p.logger != nil {
			p.logger.Warn("run not started", "error", err)
		}
		return
	}
	p.view.PreviewReset()
}

// Stop requests cancellation; the state presenter reflects the outcome.
func (p *RunPresenter) Stop() {
	if p == nil || p.engine == nil {
		return
	}
	p.engine.Stop()
}

// Toggle starts when idle and stops when running.
func (p *RunPresenter) Toggle() {
	if p == nil || p.engine == nil {
		return
	}
	if p.engine.Running() {
		p.Stop()
		return
	}
	p.Start()
}

// Probe takes one test capture in the background. Concurrent requests are
// dropped while one is in flight.
func (p *RunPresenter) Probe() {
	if p == nil || p.engine == nil || p.settings == nil {
		return
	}
	if !p.probing.CompareAndSwap(false, true) {
		return
	}
	s := p.settings.Get()
	go func() {
		defer p.probing.Store(false)
		defer recoverLog(p.logger, "probe goroutine panic")
		res, err := p.engine.Probe(p.ctx, s)
		if err != nil {
			p.post(startError(err))
			return
		}
		summary := res.Parsed.Summary()
		p.readings.Set(res.Image, res.Parsed, summary)
		msg := "Test capture: " + summary
		if res.OCR.Err != nil {
			msg = fmt.Sprintf("Test capture: OCR failed: %v", res.OCR.Err)
		} else if len(s.Thresholds) > 0 {
			if res.Eval.Met {
				msg += " (thresholds met)"
			} else {
				msg += fmt.Sprintf(" (%d of %d thresholds met)", res.Eval.Satisfied, len(s.Thresholds))
			}
		}
		p.post(msg)
	}()
}

// Tick flushes messages produced off the Tk thread.
func (p *RunPresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	msgs := p.pending
	p.pending = nil
	p.mu.Unlock()
	if len(msgs) > 0 {
		p.view.SetStatus(msgs[len(msgs)-1])
	}
}

func (p *RunPresenter) post(msg string) {
	p.mu.Lock()
	p.pending = append(p.pending, msg)
	p.mu.Unlock()
}

// startError maps engine errors to status line text.
func startError(err error) string {
	switch {
	case errors.Is(err, reroll.ErrAlreadyRunning):
		return "A roll process is already running"
	case errors.Is(err, action.ErrWindowNotFound), errors.Is(err, action.ErrUnsupported):
		return fmt.Sprintf("Game window not found: %v", err)
	case errors.Is(err, reroll.ErrInvalidRequest):
		return fmt.Sprintf("Check settings: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
