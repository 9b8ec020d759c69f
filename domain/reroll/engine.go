package reroll

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/capture"
	"github.com/soocke/flame-bot-go/domain/flame"
	"github.com/soocke/flame-bot-go/domain/history"
	"github.com/soocke/flame-bot-go/domain/ocr"
)

// Deps are the collaborators of an Engine. Locator, Journal and Clock are
// optional.
type Deps struct {
	Injector  action.Injector
	Grabber   capture.Grabber
	Extractor ocr.Extractor
	Locator   action.Locator
	Journal   Journal
	Clock     func() time.Time
}

// Options shape the reroll action.
type Options struct {
	Delays      config.Delays
	KeyPresses  int
	KeyHold     time.Duration
	ConfirmKey  string
	Button      action.Button
	WindowTitle string
}

// DefaultOptions clicks once and confirms twice with enter.
func DefaultOptions() Options {
	return Options{
		Delays:      config.Delays{Parse: 1.5, Action: 0.5},
		KeyPresses:  2,
		KeyHold:     100 * time.Millisecond,
		ConfirmKey:  "enter",
		Button:      action.ButtonLeft,
		WindowTitle: "MapleStory",
	}
}

// errStopped aborts a reroll action when the run is cancelled mid-delay.
var errStopped = errors.New("stopped")

// Engine runs at most one reroll session at a time on its own goroutine.
type Engine struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, stop <-chan struct{}, d time.Duration) bool

	running atomic.Bool

	mu        sync.Mutex
	snap      Snapshot
	session   *Session
	listeners []Listener
	done      chan struct{}
}

// NewEngine wires an engine. Missing ConfirmKey and Button fall back to the
// defaults.
func NewEngine(deps Deps, opts Options, logger *slog.Logger) *Engine {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if opts.ConfirmKey == "" {
		opts.ConfirmKey = "enter"
	}
	if opts.Button == "" {
		opts.Button = action.ButtonLeft
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{deps: deps, opts: opts, logger: logger, sleep: interruptibleSleep}
	e.snap.Status = statusMessage(StateIdle, 0, 0, nil)
	return e
}

// AddListener registers l for every later transition.
func (e *Engine) AddListener(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// Current returns the current state.
func (e *Engine) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.State
}

// Snapshot returns a copy of the progress of the current or last run.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Status returns the human readable status of the current or last run.
func (e *Engine) Status() string { return e.Snapshot().Status }

// WindowTitle returns the title substring used to find the game window.
func (e *Engine) WindowTitle() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.WindowTitle
}

// SetWindowTitle changes the game window used by later runs and probes.
func (e *Engine) SetWindowTitle(title string) {
	e.mu.Lock()
	e.opts.WindowTitle = title
	e.mu.Unlock()
	e.logger.Info("game window selected", "title", title)
}

// Running reports whether a run is in progress.
func (e *Engine) Running() bool { return e.running.Load() }

// Start validates req and launches a run. The run lives until it ends or ctx
// is cancelled, so ctx must outlive the call.
func (e *Engine) Start(ctx context.Context, req StartRequest) error {
	return e.start(ctx, req, action.Window{})
}

// StartFromSettings locates the game window, resolves the fractional
// positions of s against its client area and starts a run. A missing window
// is reported before any attempt is made.
func (e *Engine) StartFromSettings(ctx context.Context, s *config.Settings) error {
	if e.running.Load() {
		e.logger.Info("start ignored, run already in progress")
		return ErrAlreadyRunning
	}
	if s == nil {
		return fmt.Errorf("%w: no settings", ErrInvalidRequest)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	w, err := e.locate()
	if err != nil {
		return err
	}
	req := StartRequest{
		Thresholds: s.Thresholds,
		Tries:      s.Tries,
		Click:      s.RerollPosition.Resolve(w.Client),
		Capture:    s.CaptureRegion.Resolve(w.Client),
		Delays:     s.Delays,
		FlameType:  s.FlameType,
	}
	return e.start(ctx, req, w)
}

func (e *Engine) start(ctx context.Context, req StartRequest, w action.Window) error {
	if e.running.Load() {
		e.logger.Info("start ignored, run already in progress")
		return ErrAlreadyRunning
	}
	if err := req.Validate(); err != nil {
		return err
	}
	s := newSession(req, e.deps.Clock())
	done := make(chan struct{})
	// The flag flips under mu together with the session so that Stop never
	// sees a running engine paired with the previous session.
	e.mu.Lock()
	if !e.running.CompareAndSwap(false, true) {
		e.mu.Unlock()
		e.logger.Info("start ignored, run already in progress")
		return ErrAlreadyRunning
	}
	e.session = s
	e.done = done
	e.mu.Unlock()
	if e.deps.Journal != nil {
		e.deps.Journal.Begin(s.ID)
	}
	e.logger.Info("reroll run started",
		"session", s.ID, "flame_type", req.FlameType, "tries", req.Tries,
		"thresholds", formatThresholds(req.Thresholds), "click", req.Click.String(), "capture", req.Capture.String())
	e.transition(StateRunning, func(sn *Snapshot) {
		*sn = Snapshot{
			SessionID: s.ID,
			FlameType: req.FlameType,
			Tries:     req.Tries,
			Remaining: req.Tries,
			StartedAt: s.StartedAt,
			Status:    statusMessage(StateRunning, 0, req.Tries, nil),
		}
	})
	go e.run(ctx, s, w, done)
	return nil
}

// Stop requests cancellation of the current run. It is safe to call at any
// time and from any goroutine.
func (e *Engine) Stop() {
	e.mu.Lock()
	s := e.session
	running := e.running.Load()
	e.mu.Unlock()
	if s == nil || !running || s.Cancelled() {
		return
	}
	s.Cancel()
	e.logger.Info("reroll stop requested", "session", s.ID)
}

// Wait blocks until the current run, if any, has ended.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *Engine) run(ctx context.Context, s *Session, w action.Window, done chan struct{}) {
	defer close(done)
	state, attempts, err := e.loop(ctx, s, w)
	e.finish(s, state, attempts, err)
}

func (e *Engine) loop(ctx context.Context, s *Session, w action.Window) (state State, attempts int, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("reroll loop panic", "error", r, "stack", string(debug.Stack()))
			state, err = StateFailed, fmt.Errorf("panic: %v", r)
		}
	}()
	req := s.Request
	for remaining := req.Tries; remaining > 0; remaining-- {
		if e.stopped(ctx, s) {
			return StateCancelled, attempts, nil
		}
		attempts++
		n := attempts
		e.update(func(sn *Snapshot) { sn.Attempt = n })
		e.logger.Info("reroll attempt", "session", s.ID, "attempt", n, "remaining", remaining)

		e.activate(w)
		if err := e.trigger(ctx, s); err != nil {
			if errors.Is(err, errStopped) {
				return StateCancelled, attempts, nil
			}
			return StateFailed, attempts, err
		}
		if e.stopped(ctx, s) {
			return StateCancelled, attempts, nil
		}
		img, err := e.deps.Grabber.Capture(req.Capture)
		if err != nil {
			return StateFailed, attempts, fmt.Errorf("capture: %w", err)
		}
		parsed, res := e.read(ctx, img)
		eval := flame.Evaluate(parsed, req.Thresholds)
		e.observe(s, n, remaining-1, img, parsed, eval, res.Err)
		if e.stopped(ctx, s) {
			return StateCancelled, attempts, nil
		}
		if eval.Met {
			return StateSucceeded, attempts, nil
		}
	}
	return StateExhausted, attempts, nil
}

// trigger performs one reroll action: click the reroll control, confirm
// KeyPresses times, then let the result settle.
func (e *Engine) trigger(ctx context.Context, s *Session) error {
	in := e.deps.Injector
	c := s.Request.Click
	actionDelay, parseDelay := e.delays(s.Request)
	if err := in.MoveTo(c.X, c.Y); err != nil {
		return fmt.Errorf("move cursor: %w", err)
	}
	if err := in.Click(c.X, c.Y, e.opts.Button); err != nil {
		return fmt.Errorf("click reroll: %w", err)
	}
	if !e.sleep(ctx, s.stopCh, actionDelay) {
		return errStopped
	}
	for i := 0; i < e.opts.KeyPresses; i++ {
		if err := in.KeyDown(e.opts.ConfirmKey); err != nil {
			return fmt.Errorf("confirm key down: %w", err)
		}
		held := e.sleep(ctx, s.stopCh, e.opts.KeyHold)
		if err := in.KeyUp(e.opts.ConfirmKey); err != nil {
			return fmt.Errorf("confirm key up: %w", err)
		}
		if !held || !e.sleep(ctx, s.stopCh, actionDelay) {
			return errStopped
		}
	}
	if !e.sleep(ctx, s.stopCh, parseDelay) {
		return errStopped
	}
	return nil
}

// read runs OCR and parsing. A recognizer failure yields an empty reading
// whose RawText names the error.
func (e *Engine) read(ctx context.Context, img image.Image) (flame.ParsedStats, ocr.Result) {
	res := e.deps.Extractor.Extract(ctx, img)
	if res.Err != nil {
		e.logger.Warn("ocr failed, attempt yields no stats", "error", res.Err)
		return flame.ParsedStats{Stats: map[flame.Stat]int{}, RawText: "ocr error: " + res.Err.Error()}, res
	}
	return flame.ParseText(res.Text), res
}

func (e *Engine) observe(s *Session, attempt, remaining int, img image.Image, parsed flame.ParsedStats, eval flame.Evaluation, ocrErr error) {
	thresholds := s.Request.Thresholds
	e.update(func(sn *Snapshot) {
		sn.Remaining = remaining
		sn.Last = parsed
		sn.LastEval = eval
		if !sn.HasBest || flame.Better(parsed, sn.Best, thresholds) {
			sn.Best, sn.HasBest = parsed, true
		}
	})
	attrs := []any{"session", s.ID, "attempt", attempt, "stats", parsed.Summary(), "met", eval.Met}
	if parsed.CurrentlyOwned != nil {
		attrs = append(attrs, "owned", *parsed.CurrentlyOwned)
	}
	if parsed.Remaining != nil {
		attrs = append(attrs, "flames_remaining", *parsed.Remaining)
	}
	if !eval.Met {
		attrs = append(attrs, "unmet", formatShortfalls(eval.Unmet))
	}
	if ocrErr != nil {
		attrs = append(attrs, "ocr_error", ocrErr.Error())
	}
	e.logger.Info("reroll result", attrs...)
	if e.deps.Journal == nil {
		return
	}
	entry := history.Entry{
		SessionID: s.ID,
		FlameType: s.Request.FlameType,
		Attempt:   attempt,
		At:        e.deps.Clock(),
		Image:     img,
		Parsed:    parsed,
		Met:       eval.Met,
	}
	if ocrErr != nil {
		entry.OCRError = ocrErr.Error()
	}
	if err := e.deps.Journal.Record(entry); err != nil {
		e.logger.Warn("journal record failed", "attempt", attempt, "error", err)
	}
}

func (e *Engine) finish(s *Session, state State, attempts int, err error) {
	msg := statusMessage(state, attempts, s.Request.Tries, err)
	switch state {
	case StateFailed:
		e.logger.Error("reroll run failed", "session", s.ID, "attempt", attempts, "error", err)
	case StateSucceeded:
		e.logger.Info("reroll run succeeded", "session", s.ID, "attempts", attempts)
	default:
		e.logger.Info("reroll run ended", "session", s.ID, "state", state.String(), "attempts", attempts)
	}
	e.transition(state, func(sn *Snapshot) {
		sn.Status = msg
		sn.Err = err
		sn.EndedAt = e.deps.Clock()
	})
}

// transition applies mutate, switches state and notifies listeners outside
// the lock. Leaving a running state clears the running flag first so that a
// listener may start the next run.
func (e *Engine) transition(next State, mutate func(*Snapshot)) {
	e.mu.Lock()
	prev := e.snap.State
	if mutate != nil {
		mutate(&e.snap)
	}
	e.snap.State = next
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	if next.Terminal() {
		e.running.Store(false)
	}
	e.logger.Debug("reroll state transition", "from", prev.String(), "to", next.String())
	if prev == next {
		return
	}
	for _, l := range listeners {
		func() {
			defer recoverLog(e.logger, "state listener panic")
			l(prev, next)
		}()
	}
}

func (e *Engine) update(mutate func(*Snapshot)) {
	e.mu.Lock()
	mutate(&e.snap)
	e.mu.Unlock()
}

func (e *Engine) stopped(ctx context.Context, s *Session) bool {
	return s.Cancelled() || ctx.Err() != nil
}

func (e *Engine) locate() (action.Window, error) {
	if e.deps.Locator == nil {
		return action.Window{}, fmt.Errorf("%w: no window locator", action.ErrWindowNotFound)
	}
	title := e.WindowTitle()
	w, err := e.deps.Locator.Locate(title)
	if err != nil {
		e.logger.Warn("game window not found", "title", title, "error", err)
		return action.Window{}, err
	}
	e.logger.Debug("game window located", "title", w.Title, "client", w.Client.String())
	return w, nil
}

// activate brings the game window forward before each reroll. Failure is not
// fatal; the click itself usually focuses the window.
func (e *Engine) activate(w action.Window) {
	if e.deps.Locator == nil || w.Handle == 0 {
		return
	}
	if err := e.deps.Locator.Activate(w); err != nil {
		e.logger.Warn("could not activate game window", "title", w.Title, "error", err)
	}
}

func (e *Engine) delays(req StartRequest) (actionDelay, parseDelay time.Duration) {
	d := req.Delays
	if d == (config.Delays{}) {
		d = e.opts.Delays
	}
	return seconds(d.Action), seconds(d.Parse)
}

func seconds(v float64) time.Duration { return time.Duration(v * float64(time.Second)) }

// interruptibleSleep waits d and reports false when stop or ctx fired first.
func interruptibleSleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func formatThresholds(t flame.ThresholdSet) string {
	parts := make([]string, 0, len(t))
	for _, s := range t.Stats() {
		parts = append(parts, s.Label()+">="+s.FormatValue(t[s]))
	}
	return strings.Join(parts, ", ")
}

func formatShortfalls(unmet []flame.Shortfall) string {
	parts := make([]string, len(unmet))
	for i, u := range unmet {
		parts[i] = u.String()
	}
	return strings.Join(parts, "; ")
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
