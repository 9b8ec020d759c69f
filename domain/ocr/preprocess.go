package ocr

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Mode selects the preprocessing pipeline.
type Mode string

const (
	// ModeAuto picks ModeColor unless the frame carries no saturated pixels.
	ModeAuto Mode = "auto"
	// ModeColor isolates blue stat text before thresholding.
	ModeColor Mode = "color"
	// ModeGray is contrast stretch and a hard threshold for grayscale frames.
	ModeGray Mode = "gray"
)

// ParseMode maps a config string to a Mode, defaulting to ModeAuto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeColor, ModeGray:
		return Mode(s)
	}
	return ModeAuto
}

// Options tune the preprocessing pipelines.
type Options struct {
	Scale float64
	// Hue band on the 0..180 scale, and saturation/value floors on 0..255.
	HueMin, HueMax float64
	SatMin, ValMin float64
	// BlockSize is the adaptive threshold window (odd), C the offset.
	BlockSize int
	C         float64
	// Contrast, Cutoff and BlurSigma drive the gray pipeline. Contrast is an
	// imaging.AdjustContrast percentage; 50 doubles the slope around mid-gray
	// and 100 already binarizes.
	Contrast  float64
	Cutoff    uint8
	BlurSigma float64
}

// DefaultOptions returns the tuned defaults the parser patterns expect.
func DefaultOptions() Options {
	return Options{
		Scale:     3,
		HueMin:    100,
		HueMax:    140,
		SatMin:    150,
		ValMin:    50,
		BlockSize: 11,
		C:         2,
		Contrast:  50,
		Cutoff:    128,
		BlurSigma: 0.5,
	}
}

// Stages keeps the intermediate images of one preprocessing pass.
type Stages struct {
	Mode   Mode
	Scaled image.Image
	Masked *image.Gray
	Binary *image.Gray
}

// Preprocess runs the pipeline selected by mode and returns the binary image.
func Preprocess(img image.Image, mode Mode, opts Options) Stages {
	if mode == ModeAuto {
		mode = DetectMode(img, opts)
	}
	if mode == ModeGray {
		return preprocessGray(img, opts)
	}
	return preprocessColor(img, opts)
}

// DetectMode returns ModeGray when no pixel passes the saturation floor.
func DetectMode(img image.Image, opts Options) Mode {
	b := img.Bounds()
	step := 1
	if b.Dx()*b.Dy() > 250_000 {
		step = 3
	}
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			_, s, _ := hsv(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			if s >= opts.SatMin {
				return ModeColor
			}
		}
	}
	return ModeGray
}

// preprocessColor upscales, keeps only pixels in the blue hue band, converts
// to luminance and applies a Gaussian adaptive threshold.
func preprocessColor(img image.Image, opts Options) Stages {
	scaled := upscale(img, opts.Scale)
	b := scaled.Bounds()
	masked := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := y * scaled.Stride
		for x := 0; x < b.Dx(); x++ {
			i := row + x*4
			r, g, bl := scaled.Pix[i], scaled.Pix[i+1], scaled.Pix[i+2]
			h, s, v := hsv(r, g, bl)
			if h >= opts.HueMin && h <= opts.HueMax && s >= opts.SatMin && v >= opts.ValMin {
				masked.Pix[y*masked.Stride+x] = luma(r, g, bl)
			}
		}
	}
	return Stages{
		Mode:   ModeColor,
		Scaled: scaled,
		Masked: masked,
		Binary: AdaptiveThreshold(masked, opts.BlockSize, opts.C),
	}
}

// preprocessGray is grayscale, contrast, threshold at Cutoff, light blur.
func preprocessGray(img image.Image, opts Options) Stages {
	gray := imaging.Grayscale(img)
	contrasted := imaging.AdjustContrast(gray, opts.Contrast)
	b := contrasted.Bounds()
	bin := image.NewNRGBA(b)
	for i := 0; i+3 < len(contrasted.Pix); i += 4 {
		v := uint8(0)
		if contrasted.Pix[i] >= opts.Cutoff {
			v = 255
		}
		bin.Pix[i], bin.Pix[i+1], bin.Pix[i+2], bin.Pix[i+3] = v, v, v, 255
	}
	blurred := imaging.Blur(bin, opts.BlurSigma)
	out := toGray(blurred)
	return Stages{Mode: ModeGray, Scaled: gray, Masked: toGray(contrasted), Binary: out}
}

func upscale(img image.Image, scale float64) *image.NRGBA {
	if scale <= 1 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	return imaging.Resize(img, w, h, imaging.CatmullRom)
}

// AdaptiveThreshold binarizes src: a pixel becomes white when it exceeds the
// Gaussian-weighted mean of its block x block neighbourhood minus c. Borders
// replicate the edge pixels.
func AdaptiveThreshold(src *image.Gray, block int, c float64) *image.Gray {
	if block < 3 {
		block = 3
	}
	if block%2 == 0 {
		block++
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	kernel := gaussianKernel(block)
	r := block / 2
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += kernel[k+r] * float64(row[clamp(x+k, w)])
			}
			tmp[y*w+x] = sum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k := -r; k <= r; k++ {
				mean += kernel[k+r] * tmp[clamp(y+k, h)*w+x]
			}
			if float64(src.Pix[y*src.Stride+x]) > mean-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel returns normalized 1-D weights with the sigma OpenCV derives
// for a given aperture.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	r := size / 2
	var sum float64
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// hsv converts RGB to hue on 0..180 and saturation/value on 0..255.
func hsv(r, g, b uint8) (h, s, v float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	mx := math.Max(rf, math.Max(gf, bf))
	mn := math.Min(rf, math.Min(gf, bf))
	v = mx
	if mx == 0 {
		return 0, 0, 0
	}
	d := mx - mn
	s = 255 * d / mx
	if d == 0 {
		return 0, s, v
	}
	switch mx {
	case rf:
		h = 60 * (gf - bf) / d
	case gf:
		h = 120 + 60*(bf-rf)/d
	default:
		h = 240 + 60*(rf-gf)/d
	}
	if h < 0 {
		h += 360
	}
	return h / 2, s, v
}

func luma(r, g, b uint8) uint8 {
	return uint8(math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)))
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return out
}
