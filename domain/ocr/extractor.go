package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// ErrTimeout is returned when recognition does not finish before the deadline.
var ErrTimeout = errors.New("ocr timed out")

// Span is one recognized word.
type Span struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Result is the outcome of one extraction. Text is empty when Err is set.
type Result struct {
	Text     string
	Spans    []Span
	Mode     Mode
	Duration time.Duration
	Err      error
}

// Extractor turns a captured image into raw text.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) Result
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(ctx context.Context, img image.Image) Result

func (f ExtractorFunc) Extract(ctx context.Context, img image.Image) Result { return f(ctx, img) }

// RecognizeFunc runs the OCR engine over a PNG encoded image.
type RecognizeFunc func(cfg Config, data []byte) (string, []Span, error)

// Config drives Tesseract.
type Config struct {
	Language       string
	TessdataPrefix string
	Mode           Mode
	Options        Options
	Timeout        time.Duration
	// DebugDir, when set, receives the intermediate images of each pass.
	DebugDir string
}

// DefaultConfig returns English recognition with automatic preprocessing.
func DefaultConfig() Config {
	return Config{
		Language: "eng",
		Mode:     ModeAuto,
		Options:  DefaultOptions(),
		Timeout:  20 * time.Second,
	}
}

// Tesseract preprocesses frames and runs them through libtesseract.
type Tesseract struct {
	cfg       Config
	logger    *slog.Logger
	recognize RecognizeFunc
	passes    atomic.Uint64
}

var _ Extractor = (*Tesseract)(nil)

// NewTesseract builds an extractor. A nil recognize uses gosseract.
func NewTesseract(cfg Config, logger *slog.Logger, recognize RecognizeFunc) *Tesseract {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Options == (Options{}) {
		cfg.Options = DefaultOptions()
	}
	if recognize == nil {
		recognize = tesseractRecognize
	}
	return &Tesseract{cfg: cfg, logger: logger, recognize: recognize}
}

// Extract never panics; failures are reported through Result.Err.
func (t *Tesseract) Extract(ctx context.Context, img image.Image) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("ocr panic: %v", r)}
		}
		res.Duration = time.Since(start)
		if res.Err != nil && t.logger != nil {
			t.logger.Warn("ocr failed", "error", res.Err, "duration", res.Duration)
		}
	}()
	if img == nil || img.Bounds().Empty() {
		return Result{Err: errors.New("ocr: empty image")}
	}
	stages := Preprocess(img, t.cfg.Mode, t.cfg.Options)
	pass := t.passes.Add(1)
	if t.cfg.DebugDir != "" {
		t.dumpStages(pass, stages)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, stages.Binary); err != nil {
		return Result{Mode: stages.Mode, Err: fmt.Errorf("encode png: %w", err)}
	}
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}
	text, spans, err := t.recognizeWithContext(ctx, buf.Bytes())
	if err != nil {
		return Result{Mode: stages.Mode, Err: err}
	}
	if t.logger != nil {
		t.logger.Debug("ocr pass", "pass", pass, "mode", stages.Mode, "chars", len(text), "words", len(spans))
	}
	return Result{Text: text, Spans: spans, Mode: stages.Mode}
}

// recognizeWithContext runs the engine on its own goroutine so a stuck call
// cannot hold the caller past ctx. The engine itself is not interrupted.
func (t *Tesseract) recognizeWithContext(ctx context.Context, data []byte) (string, []Span, error) {
	type outcome struct {
		text  string
		spans []Span
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("ocr panic: %v", r)}
			}
		}()
		text, spans, err := t.recognize(t.cfg, data)
		done <- outcome{text: text, spans: spans, err: err}
	}()
	select {
	case o := <-done:
		return o.text, o.spans, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", nil, ErrTimeout
		}
		return "", nil, ctx.Err()
	}
}

func (t *Tesseract) dumpStages(pass uint64, s Stages) {
	if err := os.MkdirAll(t.cfg.DebugDir, 0o755); err != nil {
		return
	}
	prefix := filepath.Join(t.cfg.DebugDir, fmt.Sprintf("ocr_%04d", pass))
	for name, img := range map[string]image.Image{"scaled": s.Scaled, "masked": s.Masked, "binary": s.Binary} {
		if img == nil {
			continue
		}
		if err := imaging.Save(img, prefix+"_"+name+".png"); err != nil && t.logger != nil {
			t.logger.Debug("ocr debug dump failed", "error", err)
		}
	}
}

// tesseractRecognize uses a fresh client per call; gosseract clients are not
// safe for concurrent use.
func tesseractRecognize(cfg Config, data []byte) (string, []Span, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			return "", nil, fmt.Errorf("tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		return "", nil, fmt.Errorf("language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", nil, fmt.Errorf("page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", nil, fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", nil, fmt.Errorf("recognize: %w", err)
	}
	var spans []Span
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		spans = make([]Span, 0, len(boxes))
		for _, b := range boxes {
			w := strings.TrimSpace(b.Word)
			if w == "" {
				continue
			}
			spans = append(spans, Span{Text: w, Confidence: b.Confidence, Box: b.Box})
		}
	}
	return strings.TrimSpace(text), spans, nil
}
