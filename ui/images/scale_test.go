package images

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestScaleToFit_KeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 200))
	out := ScaleToFit(src, 400, 225)
	if b := out.Bounds(); b.Dx() != 400 || b.Dy() != 100 {
		t.Fatalf("expected 400x100, got %v", b)
	}
}

func TestScaleToFit_SmallImageUnchanged(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 40))
	if out := ScaleToFit(src, 400, 225); out != image.Image(src) {
		t.Fatalf("small images must be returned as is")
	}
}

func TestEncodePNG_Decodes(t *testing.T) {
	data := EncodePNG(Placeholder(8, 6))
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("bounds %v", b)
	}
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image must encode to nil")
	}
}
