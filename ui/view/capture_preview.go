package view

import (
	"image"

	"github.com/soocke/flame-bot-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the last captured stat region.
type CapturePreview interface {
	UpdateCapture(img image.Image)
	Reset()
}

type capturePreview struct {
	label *LabelWidget
	photo *Img // disposed before each replacement
}

const (
	previewW = 360
	previewH = 220
)

// NewCapturePreview grids the preview label spanning columns 0-3 of row.
func NewCapturePreview(row int) CapturePreview {
	v := &capturePreview{}
	v.photo = NewPhoto(Data(images.EncodePNG(images.Placeholder(previewW/2, previewH/2))))
	v.label = Label(Image(v.photo), Borderwidth(1), Relief("sunken"))
	Grid(v.label, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return v
}

func (v *capturePreview) UpdateCapture(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	v.show(images.ScaleToFit(img, previewW, previewH))
}

func (v *capturePreview) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.show(images.Placeholder(previewW/2, previewH/2))
}

func (v *capturePreview) show(img image.Image) {
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(images.EncodePNG(img)))
	v.label.Configure(Image(v.photo))
}
