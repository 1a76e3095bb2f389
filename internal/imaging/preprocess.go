package imaging

import (
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// darkBackgroundL is the CIE L* (0..1 scale) below which a label's border is
// considered dark, i.e. light text printed on a dark panel.
const darkBackgroundL = 0.5

// MaxUpscale bounds the factor PrepareForOCR enlarges an image by.
const MaxUpscale = 8.0

// PrepareOptions controls PrepareForOCR.
type PrepareOptions struct {
	// MinWidth upscales narrower images to this width before binarization.
	// Zero disables upscaling. The factor never exceeds MaxUpscale.
	MinWidth int

	// MaxPixels bounds the area of the upscaled image. Upscaling stops short
	// of MinWidth rather than exceed it. Zero means no bound.
	MaxPixels int

	// DetectPolarity inverts the binarized image when the label has a dark
	// background so that Tesseract always sees dark text on white.
	DetectPolarity bool
}

// Prepared is the result of PrepareForOCR.
type Prepared struct {
	// Image is the binarized label: every pixel is 0 or 255.
	Image *image.Gray

	// Threshold is the Otsu level; pixels above it became white before any
	// inversion.
	Threshold uint8

	// Scaled reports whether the image was upscaled.
	Scaled bool

	// Inverted reports whether polarity detection flipped the image.
	Inverted bool
}

// PrepareForOCR runs the label preprocessing pipeline:
//
//  1. Upscale small images (Lanczos) so glyphs are tall enough for Tesseract
//  2. Convert to 8-bit grayscale (ITU-R BT.601 luma)
//  3. Binarize with a global Otsu threshold
//  4. Optionally invert when the border colour is dark
func PrepareForOCR(img image.Image, opts PrepareOptions) *Prepared {
	out := &Prepared{}

	b := img.Bounds()
	if w, h, ok := UpscaleSize(b.Dx(), b.Dy(), opts.MinWidth, opts.MaxPixels); ok {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
		out.Scaled = true
	}

	gray := Grayscale(img)
	out.Threshold = OtsuThreshold(gray)
	out.Image = Binarize(gray, out.Threshold)

	if opts.DetectPolarity && HasDarkBackground(img) {
		out.Image = toGray(effect.Invert(out.Image))
		out.Inverted = true
	}

	return out
}

// UpscaleSize returns the size a w x h image is enlarged to so that its width
// reaches minWidth, keeping the aspect ratio. The factor is capped at
// MaxUpscale and, when maxPixels is positive, so that the result holds at
// most maxPixels pixels. ok is false when no enlargement applies.
func UpscaleSize(w, h, minWidth, maxPixels int) (nw, nh int, ok bool) {
	if minWidth <= 0 || w <= 0 || h <= 0 || w >= minWidth {
		return 0, 0, false
	}

	scale := float64(minWidth) / float64(w)
	if scale > MaxUpscale {
		scale = MaxUpscale
	}
	if maxPixels > 0 {
		if limit := math.Sqrt(float64(maxPixels) / (float64(w) * float64(h))); scale > limit {
			scale = limit
		}
	}

	nw = int(float64(w) * scale)
	if scale == float64(minWidth)/float64(w) {
		nw = minWidth
	}
	nh = int(math.Round(float64(h) * scale))
	if maxPixels > 0 && nw > 0 {
		nh = min(nh, maxPixels/nw)
	}
	if nw <= w || nh < 1 {
		return 0, 0, false
	}
	return nw, nh, true
}

// Grayscale converts img to 8-bit grayscale using the BT.601 luma weights
// (0.299 R + 0.587 G + 0.114 B). The result's bounds start at the origin.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	return toGray(img)
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Histogram counts pixels at each gray level.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}
	return hist
}

// OtsuThreshold picks the gray level t that maximizes the between-class
// variance of the two classes [0, t] and (t, 255].
//
// For an image with a single gray level there is no split with positive
// variance and 0 is returned.
func OtsuThreshold(gray *image.Gray) uint8 {
	hist := Histogram(gray)

	total := 0
	var sumAll float64
	for level, n := range hist {
		total += n
		sumAll += float64(level) * float64(n)
	}
	if total == 0 {
		return 0
	}

	var (
		best     uint8
		bestVar  float64
		weightBg int
		sumBg    float64
	)

	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}

		sumBg += float64(t) * float64(hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)

		diff := meanBg - meanFg
		between := float64(weightBg) * float64(weightFg) * diff * diff
		if between > bestVar {
			bestVar = between
			best = uint8(t)
		}
	}

	return best
}

// Binarize maps pixels brighter than threshold to 255 and the rest to 0.
func Binarize(gray *image.Gray, threshold uint8) *image.Gray {
	if threshold == 255 {
		return image.NewGray(gray.Bounds())
	}
	// segment.Threshold whitens pixels >= level.
	return segment.Threshold(gray, threshold+1)
}

// HasDarkBackground reports whether the mean colour of the image border has a
// perceptual lightness (CIE L*) below the midpoint.
func HasDarkBackground(img image.Image) bool {
	b := img.Bounds()
	if b.Empty() {
		return false
	}

	var r, g, bl float64
	n := 0
	add := func(x, y int) {
		cr, cg, cb, _ := img.At(x, y).RGBA()
		r += float64(cr) / 0xffff
		g += float64(cg) / 0xffff
		bl += float64(cb) / 0xffff
		n++
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		add(x, b.Min.Y)
		if b.Dy() > 1 {
			add(x, b.Max.Y-1)
		}
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		add(b.Min.X, y)
		if b.Dx() > 1 {
			add(b.Max.X-1, y)
		}
	}

	mean := colorful.Color{R: r / float64(n), G: g / float64(n), B: bl / float64(n)}
	l, _, _ := mean.Lab()
	return l < darkBackgroundL
}
