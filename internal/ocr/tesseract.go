package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text in an already preprocessed image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (*Result, error)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a recognized word with its location and confidence.
type TextRegion struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Result contains the text recognized in one image.
type Result struct {
	// FullText is all recognized text with Tesseract's line breaks.
	FullText string `json:"full_text"`

	// Regions holds word boxes. It is empty when Tesseract could not report
	// bounding boxes; FullText is still valid in that case.
	Regions []TextRegion `json:"regions"`
}

// MeanConfidence averages word confidences (0.0 to 1.0). It returns 0 when
// there are no regions.
func (r *Result) MeanConfidence() float64 {
	if len(r.Regions) == 0 {
		return 0
	}
	var sum float64
	for _, reg := range r.Regions {
		sum += reg.Confidence
	}
	return sum / float64(len(r.Regions))
}

// TesseractOptions configures the Tesseract engine.
type TesseractOptions struct {
	// Language is a Tesseract language code such as "eng". The matching
	// traineddata must be installed.
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses Tesseract's compiled-in default or TESSDATA_PREFIX.
	TessdataPrefix string

	// PageSegMode is a Tesseract page segmentation mode (0-13). 3 is fully
	// automatic segmentation, which suits multi-line labels.
	PageSegMode int
}

// Tesseract is an Engine backed by libtesseract through gosseract.
//
// A new gosseract client is created for every call, so a single Tesseract
// value is safe for concurrent use.
type Tesseract struct {
	opts TesseractOptions

	infoOnce sync.Once
	info     Info
}

// NewTesseract returns a Tesseract engine. Language defaults to "eng".
func NewTesseract(opts TesseractOptions) *Tesseract {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Tesseract{opts: opts}
}

// Recognize performs OCR on img.
//
// The image is handed to Tesseract as an in-memory PNG. Word-level bounding
// boxes are collected when available; a failure to obtain them is not an
// error.
//
// Tesseract itself cannot be interrupted, so ctx is only checked before the
// engine starts and after it returns.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(t.opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetPageSegMode(gosseract.PageSegMode(t.opts.PageSegMode)); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &Result{
			FullText: text,
			Regions:  []TextRegion{},
		}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &Result{
		FullText: text,
		Regions:  regions,
	}, nil
}

// Info describes the OCR subsystem for health reporting.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	Language     string `json:"language"`
	TessdataPath string `json:"tessdata_path,omitempty"`
	CacheEntries int    `json:"cache_entries"`
}

// Info reports the linked Tesseract version and whether the configured
// language loads. The check initializes Tesseract on a blank image once; the
// result is reused afterwards.
func (t *Tesseract) Info() Info {
	t.infoOnce.Do(func() { t.info = t.check() })
	return t.info
}

func (t *Tesseract) check() Info {
	info := Info{
		Backend:      "gosseract",
		Language:     t.opts.Language,
		TessdataPath: t.opts.TessdataPrefix,
	}

	client := gosseract.NewClient()
	defer client.Close()

	info.Version = client.Version()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			info.Error = err.Error()
			return info
		}
	}
	if err := client.SetLanguage(t.opts.Language); err != nil {
		info.Error = err.Error()
		return info
	}

	var buf bytes.Buffer
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	if err := imaging.Encode(&buf, blank, imaging.PNG); err != nil {
		info.Error = err.Error()
		return info
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		info.Error = err.Error()
		return info
	}
	if _, err := client.Text(); err != nil {
		info.Error = err.Error()
		return info
	}

	info.Available = true
	return info
}
