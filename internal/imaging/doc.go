// Package imaging loads uploaded label images and prepares them for OCR.
//
// # Supported Formats
//
// Decoders are registered for PNG, JPEG, GIF (standard library) and BMP,
// TIFF, WebP (golang.org/x/image). The format is always sniffed from file
// contents; file extensions supplied by the client are never trusted.
//
// # Preprocessing Pipeline
//
// PrepareForOCR mirrors the classic "grayscale + binary Otsu" recipe used
// with Tesseract:
//
//   - Grayscale: ITU-R BT.601 luma, one byte per pixel
//   - Otsu: the global threshold maximizing between-class variance
//   - Binarize: pixels above the threshold become white (255), others black (0)
//
// Two optional steps help with photographed packaging:
//
//   - Upscaling narrow images with a Lanczos filter (disintegration/imaging)
//   - Polarity detection: labels printed light-on-dark are inverted (bild)
//     when the border's CIE L* lightness (go-colorful) is below 50%
//
// # Coordinate System
//
// Images returned by this package have bounds starting at (0,0). Input images
// with an offset origin are translated.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use on distinct images.
package imaging
