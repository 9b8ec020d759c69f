package model

import (
	"image"
	"sync"

	"github.com/soocke/flame-bot-go/domain/flame"
)

// Reading is the latest capture shown in the preview.
type Reading struct {
	Seq     uint64
	Image   image.Image
	Parsed  flame.ParsedStats
	Summary string
}

// ReadingModel keeps the most recent probe or run reading. Writers are
// worker goroutines; the Tk thread polls Latest.
type ReadingModel struct {
	mu  sync.Mutex
	cur Reading
}

func NewReadingModel() *ReadingModel { return &ReadingModel{} }

// Set stores a new reading and returns its sequence number.
func (m *ReadingModel) Set(img image.Image, parsed flame.ParsedStats, summary string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = Reading{Seq: m.cur.Seq + 1, Image: img, Parsed: parsed, Summary: summary}
	return m.cur.Seq
}

// Latest returns the current reading; Seq is zero before the first Set.
func (m *ReadingModel) Latest() Reading {
	if m == nil {
		return Reading{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// RawText returns the unnormalized recognizer output of the latest reading.
func (m *ReadingModel) RawText() string {
	r := m.Latest()
	return r.Parsed.OriginalText
}
