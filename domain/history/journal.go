package history

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/flame-bot-go/domain/flame"
)

// Entry is one reroll attempt as it is archived.
type Entry struct {
	SessionID string
	FlameType string
	Attempt   int
	At        time.Time
	Image     image.Image
	Parsed    flame.ParsedStats
	Met       bool
	// OCRError is set when the recognizer failed for this attempt.
	OCRError string
	// Screenshot is filled in by Record when the image was written.
	Screenshot string
}

// Journal archives attempts under Dir/YYYY-MM-DD: a PNG per attempt and an
// append-only text log of the raw readings. Entries of the current session
// are kept in memory for the report.
type Journal struct {
	Dir             string
	SaveScreenshots bool

	logger *slog.Logger
	mu     sync.Mutex
	rows   []Entry
}

// NewJournal returns a journal rooted at dir.
func NewJournal(dir string, saveScreenshots bool, logger *slog.Logger) *Journal {
	return &Journal{Dir: dir, SaveScreenshots: saveScreenshots, logger: logger}
}

// Begin drops the rows of the previous session.
func (j *Journal) Begin(sessionID string) {
	j.mu.Lock()
	j.rows = j.rows[:0]
	j.mu.Unlock()
	if j.logger != nil {
		j.logger.Debug("journal session started", "session", sessionID)
	}
}

// Record archives e. The in-memory row is kept even when writing fails.
func (j *Journal) Record(e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	var errs []error
	if j.Dir != "" {
		day := filepath.Join(j.Dir, e.At.Format("2006-01-02"))
		if err := os.MkdirAll(day, 0o755); err != nil {
			errs = append(errs, err)
		} else {
			if j.SaveScreenshots && e.Image != nil {
				name := filepath.Join(day, fmt.Sprintf("flame_%s_%02d.png", e.At.Format("15-04-05"), e.Attempt))
				if err := imaging.Save(e.Image, name); err != nil {
					errs = append(errs, fmt.Errorf("save screenshot: %w", err))
				} else {
					e.Screenshot = name
				}
			}
			if err := appendLog(filepath.Join(day, "ocr_log.txt"), e); err != nil {
				errs = append(errs, fmt.Errorf("append log: %w", err))
			}
		}
	}
	e.Image = nil
	j.mu.Lock()
	j.rows = append(j.rows, e)
	j.mu.Unlock()
	err := errors.Join(errs...)
	if err != nil && j.logger != nil {
		j.logger.Warn("journal write failed", "attempt", e.Attempt, "error", err)
	}
	return err
}

// Rows returns a copy of the recorded entries.
func (j *Journal) Rows() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.rows))
	copy(out, j.rows)
	return out
}

func appendLog(path string, e Entry) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	header := fmt.Sprintf("[%s] session=%s attempt=%d met=%t", e.At.Format(time.RFC3339), e.SessionID, e.Attempt, e.Met)
	if e.OCRError != "" {
		header += " ocr_error=" + strconv.Quote(e.OCRError)
	}
	_, err = fmt.Fprintf(f, "%s\n%s\n--- normalized ---\n%s\n\n", header, e.Parsed.OriginalText, e.Parsed.RawText)
	return err
}
