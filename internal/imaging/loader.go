package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrUnsupportedFormat is returned when the file is not an image in one of the
// registered formats.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageInfo contains metadata about a stored label image.
type ImageInfo struct {
	// Width is the image width in pixels, before any EXIF rotation.
	Width int `json:"width"`

	// Height is the image height in pixels, before any EXIF rotation.
	Height int `json:"height"`

	// Format is the decoder name sniffed from the file contents:
	// "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Load decodes the image at path.
//
// JPEG files carrying an EXIF orientation tag are rotated upright, which
// matters for phone photos of product packaging: Tesseract reads sideways
// text poorly.
//
// Errors wrap ErrUnsupportedFormat when the contents are not a known image
// format.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("failed to decode image: %w", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Inspect reads only the image header and returns its metadata.
//
// The format is detected from the file contents, not its extension, so an
// upload named "label.jpg" that is actually a PNG reports "png".
func Inspect(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
