package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/nutrilabel/internal/imaging"
)

// ErrImageTooLarge is returned for images above ExtractorOptions.MaxPixels.
var ErrImageTooLarge = errors.New("image too large")

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	// MinWidth upscales narrower images before binarization. Zero disables it.
	MinWidth int

	// MaxPixels rejects larger inputs and bounds the upscaled image. Zero
	// means no bound.
	MaxPixels int

	// DetectPolarity inverts light-on-dark labels.
	DetectPolarity bool

	// Cache memoizes results. Nil disables caching.
	Cache *Cache
}

// Extraction is the outcome of one label extraction.
type Extraction struct {
	Text       string
	Cached     bool
	Threshold  uint8
	Scaled     bool
	Inverted   bool
	Words      int
	Confidence float64
}

// Extractor turns label images into raw text: it preprocesses the image
// (grayscale, Otsu binarization), consults the cache, and runs the engine.
type Extractor struct {
	engine Engine
	opts   ExtractorOptions
	log    *zap.Logger
}

// NewExtractor returns an Extractor around engine. A nil logger is replaced
// with a no-op logger.
func NewExtractor(engine Engine, opts ExtractorOptions, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{engine: engine, opts: opts, log: log}
}

// ExtractFile decodes the image at path and extracts its text.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, img)
}

// Extract preprocesses img and extracts its text.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*Extraction, error) {
	if b := img.Bounds(); e.opts.MaxPixels > 0 && b.Dx()*b.Dy() > e.opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, b.Dx(), b.Dy(), e.opts.MaxPixels)
	}

	prepared := imaging.PrepareForOCR(img, imaging.PrepareOptions{
		MinWidth:       e.opts.MinWidth,
		MaxPixels:      e.opts.MaxPixels,
		DetectPolarity: e.opts.DetectPolarity,
	})

	out := &Extraction{
		Threshold: prepared.Threshold,
		Scaled:    prepared.Scaled,
		Inverted:  prepared.Inverted,
	}

	var (
		key    Key
		useKey bool
	)
	if e.opts.Cache != nil {
		k, err := KeyOf(prepared.Image)
		if err != nil {
			e.log.Debug("skipping OCR cache", zap.Error(err))
		} else {
			key, useKey = k, true
			if text, ok := e.opts.Cache.Get(key); ok {
				out.Text = text
				out.Cached = true
				return out, nil
			}
		}
	}

	res, err := e.engine.Recognize(ctx, prepared.Image)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	out.Text = res.FullText
	out.Words = len(res.Regions)
	out.Confidence = res.MeanConfidence()

	if useKey {
		e.opts.Cache.Set(key, res.FullText)
	}
	return out, nil
}

// Info reports engine status for health checks. Engines that cannot describe
// themselves are reported as available.
func (e *Extractor) Info() Info {
	info := Info{Available: true, Backend: fmt.Sprintf("%T", e.engine)}
	if d, ok := e.engine.(interface{ Info() Info }); ok {
		info = d.Info()
	}
	info.CacheEntries = e.opts.Cache.Len()
	return info
}
