package capture

import (
	"image"
	"log/slog"
	"sync/atomic"
	"time"
)

// Service wraps a Grabber, stamps each bitmap into a Frame and keeps
// instrumentation counters. It is safe for concurrent use.
type Service struct {
	grabber      Grabber
	logger       *slog.Logger
	latest       atomic.Pointer[Frame]
	lastRect     atomic.Pointer[image.Rectangle]
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

// NewService returns a Service backed by g.
func NewService(g Grabber, logger *slog.Logger) *Service {
	return &Service{grabber: g, logger: logger}
}

// Capture grabs rect and returns it as a Frame.
func (s *Service) Capture(rect image.Rectangle) (*image.RGBA, error) {
	f, err := s.Grab(rect)
	if err != nil {
		return nil, err
	}
	return f.Image, nil
}

// Grab grabs rect and records timing. The frame is also kept as LatestFrame.
func (s *Service) Grab(rect image.Rectangle) (Frame, error) {
	start := time.Now()
	s.lastRect.Store(&rect)
	img, err := s.grabber.Capture(rect)
	if err != nil {
		s.failures.Add(1)
		if s.logger != nil {
			s.logger.Error("capture failed", "rect", rect.String(), "error", err)
		}
		return Frame{}, err
	}
	s.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.captures.Add(1)
	f := Frame{Image: img, Rect: rect, CapturedAt: time.Now(), Sequence: s.sequence.Add(1)}
	s.latest.Store(&f)
	return f, nil
}

// LatestFrame returns the most recent successful frame.
func (s *Service) LatestFrame() Frame {
	if f := s.latest.Load(); f != nil {
		return *f
	}
	return Frame{}
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() CaptureStats {
	captures := s.captures.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(s.captureNanos.Load() / captures)
	}
	var last image.Rectangle
	if r := s.lastRect.Load(); r != nil {
		last = *r
	}
	return CaptureStats{
		Captures:   captures,
		Failures:   s.failures.Load(),
		AvgCapture: avg,
		LastRect:   last,
		Sequence:   s.sequence.Load(),
	}
}

// LogStats writes the counters at debug level.
func (s *Service) LogStats() {
	if s.logger == nil {
		return
	}
	st := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", st.Captures,
		"failures", st.Failures,
		"avg_capture", st.AvgCapture,
		"sequence", st.Sequence,
	)
}

var _ Grabber = (*Service)(nil)
