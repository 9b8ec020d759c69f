package reroll

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/flame"
	"github.com/soocke/flame-bot-go/domain/history"
)

// State enumerates the states of a reroll run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateExhausted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s >= StateSucceeded }

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("a reroll run is already in progress")
	// ErrInvalidRequest wraps every StartRequest validation failure.
	ErrInvalidRequest = errors.New("invalid start request")
)

// Listener is called on each state transition, on the worker goroutine.
type Listener func(prev, next State)

// Journal archives attempts. history.Journal implements it.
type Journal interface {
	Begin(sessionID string)
	Record(history.Entry) error
}

var _ Journal = (*history.Journal)(nil)

// StartRequest carries everything a run needs, already resolved to absolute
// screen coordinates.
type StartRequest struct {
	Thresholds flame.ThresholdSet
	Tries      int
	Click      image.Point
	Capture    image.Rectangle
	// Delays overrides Options.Delays when non-zero.
	Delays    config.Delays
	FlameType string
}

// Validate checks the request without touching the engine.
func (r StartRequest) Validate() error {
	var errs []error
	if err := r.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if r.Tries <= 0 {
		errs = append(errs, fmt.Errorf("tries must be positive, got %d", r.Tries))
	}
	if r.Capture.Empty() {
		errs = append(errs, fmt.Errorf("capture rectangle %v is empty", r.Capture))
	}
	if r.Delays.Parse < 0 || r.Delays.Action < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Session is the mutable state of one run. Only the worker mutates it; the
// cancellation flag may be set from any goroutine and is never cleared.
type Session struct {
	ID        string
	Request   StartRequest
	StartedAt time.Time

	cancelled atomic.Bool
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func newSession(req StartRequest, now time.Time) *Session {
	req.Thresholds = req.Thresholds.Clone()
	return &Session{ID: uuid.New().String(), Request: req, StartedAt: now, stopCh: make(chan struct{})}
}

// Cancel sets the cancellation flag and wakes any pending delay.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Cancelled reports whether Cancel was called.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// Snapshot is a read-only copy of engine progress for presenters.
type Snapshot struct {
	State     State
	SessionID string
	FlameType string
	Attempt   int
	Tries     int
	Remaining int
	Last      flame.ParsedStats
	LastEval  flame.Evaluation
	Best      flame.ParsedStats
	HasBest   bool
	Status    string
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// statusMessage renders the human readable outcome of a terminal state.
func statusMessage(state State, attempts, tries int, err error) string {
	switch state {
	case StateSucceeded:
		return fmt.Sprintf("Thresholds met after %d attempt(s)", attempts)
	case StateExhausted:
		return fmt.Sprintf("Maximum number of tries (%d) reached without meeting thresholds", tries)
	case StateCancelled:
		return fmt.Sprintf("Roll process stopped by user after %d attempt(s)", attempts)
	case StateFailed:
		return fmt.Sprintf("Roll process failed on attempt %d: %v", attempts, err)
	case StateRunning:
		return "Rolling..."
	default:
		return "Ready"
	}
}
