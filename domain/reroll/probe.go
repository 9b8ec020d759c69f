package reroll

import (
	"context"
	"fmt"
	"image"

	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/flame"
	"github.com/soocke/flame-bot-go/domain/ocr"
)

// ProbeResult is one capture and reading taken without rerolling.
type ProbeResult struct {
	Window action.Window
	Rect   image.Rectangle
	Image  *image.RGBA
	OCR    ocr.Result
	Parsed flame.ParsedStats
	Eval   flame.Evaluation
}

// Probe captures the configured region once and runs it through OCR and the
// parser so the region and thresholds can be checked before a run. No input
// is sent to the game. Probing is refused while a run owns the screen.
func (e *Engine) Probe(ctx context.Context, s *config.Settings) (ProbeResult, error) {
	if e.running.Load() {
		return ProbeResult{}, ErrAlreadyRunning
	}
	if s == nil {
		return ProbeResult{}, fmt.Errorf("%w: no settings", ErrInvalidRequest)
	}
	if err := s.CaptureRegion.Validate(); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	w, err := e.locate()
	if err != nil {
		return ProbeResult{}, err
	}
	e.activate(w)
	rect := s.CaptureRegion.Resolve(w.Client)
	img, err := e.deps.Grabber.Capture(rect)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("capture: %w", err)
	}
	parsed, res := e.read(ctx, img)
	out := ProbeResult{
		Window: w,
		Rect:   rect,
		Image:  img,
		OCR:    res,
		Parsed: parsed,
		Eval:   flame.Evaluate(parsed, s.Thresholds),
	}
	e.logger.Info("probe", "rect", rect.String(), "stats", parsed.Summary(), "met", out.Eval.Met, "ocr_ms", res.Duration.Milliseconds())
	return out, nil
}
