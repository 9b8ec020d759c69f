package presenter

import (
	"image"

	"github.com/soocke/flame-bot-go/domain/capture"
)

// FrameSource supplies the most recent captured frame.
type FrameSource interface {
	LatestFrame() capture.Frame
}

// PreviewView shows the captured stat region.
type PreviewView interface {
	UpdateCapture(img image.Image)
}

// PreviewPresenter forwards each new frame to the preview once.
type PreviewPresenter struct {
	frames  FrameSource
	view    PreviewView
	lastSeq uint64
}

func NewPreviewPresenter(frames FrameSource, view PreviewView) *PreviewPresenter {
	return &PreviewPresenter{frames: frames, view: view}
}

// Tick updates the preview when a newer frame exists.
func (p *PreviewPresenter) Tick() {
	if p == nil || p.frames == nil || p.view == nil {
		return
	}
	f := p.frames.LatestFrame()
	if f.Image == nil || f.Sequence == p.lastSeq {
		return
	}
	p.lastSeq = f.Sequence
	p.view.UpdateCapture(f.Image)
}
