package presenter

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/reroll"
)

// FocusEngine narrows the engine contract needed by the focus watcher.
type FocusEngine interface {
	Running() bool
	Stop()
}

// FocusWatcher stops a run when the foreground window is neither the game
// nor the bot itself for Grace consecutive polls. Synthetic clicks would
// otherwise land in whatever window the user switched to.
type FocusWatcher struct {
	Engine     FocusEngine
	Logger     *slog.Logger
	Foreground func() (string, error)
	Game       func() string // game window title substring
	Own        string        // bot window title
	Interval   time.Duration
	Grace      int

	mu   sync.Mutex
	done chan struct{}
}

// NewFocusWatcher constructs a watcher polling every 250ms.
func NewFocusWatcher(engine FocusEngine, logger *slog.Logger, fg func() (string, error), game func() string, own string) *FocusWatcher {
	if fg == nil {
		fg = action.ForegroundWindowTitle
	}
	if game == nil {
		game = func() string { return "" }
	}
	return &FocusWatcher{Engine: engine, Logger: logger, Foreground: fg, Game: game, Own: own, Interval: 250 * time.Millisecond, Grace: 2}
}

// OnState is registered as an engine listener; polling runs only while a
// run is active.
func (w *FocusWatcher) OnState(_, next reroll.State) {
	if w == nil {
		return
	}
	if next == reroll.StateRunning {
		w.start()
		return
	}
	w.stop()
}

func (w *FocusWatcher) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	w.done = make(chan struct{})
	go w.loop(w.done)
}

func (w *FocusWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		return
	}
	close(w.done)
	w.done = nil
}

func (w *FocusWatcher) loop(done chan struct{}) {
	interval := w.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	misses := 0
	for {
		select {
		case <-ticker.C:
			if w.poll(&misses) {
				w.stop()
				return
			}
		case <-done:
			return
		}
	}
}

// poll reports whether the run was stopped. misses counts consecutive polls
// with a foreign foreground window.
func (w *FocusWatcher) poll(misses *int) bool {
	if w.Engine == nil || !w.Engine.Running() {
		return false
	}
	title, err := w.Foreground()
	if err != nil {
		if w.Logger != nil {
			w.Logger.Debug("foreground title error", "error", err)
		}
		return false
	}
	title = strings.TrimSpace(title)
	if title == "" || w.allowed(title) {
		*misses = 0
		return false
	}
	*misses++
	if *misses < max(w.Grace, 1) {
		return false
	}
	if w.Logger != nil {
		w.Logger.Warn("focus lost, stopping run", "window", title)
	}
	w.Engine.Stop()
	return true
}

func (w *FocusWatcher) allowed(title string) bool {
	lower := strings.ToLower(title)
	if game := strings.ToLower(strings.TrimSpace(w.Game())); game != "" && strings.Contains(lower, game) {
		return true
	}
	return w.Own != "" && lower == strings.ToLower(w.Own)
}
