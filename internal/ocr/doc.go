// Package ocr extracts raw text from nutrition label images using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) behind the
// Engine interface and adds an Extractor that runs the label preprocessing
// pipeline from internal/imaging before recognition.
//
// # Prerequisites
//
// Tesseract and its development headers must be installed to build and run:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The traineddata directory can be overridden with TesseractOptions.TessdataPrefix
// (config key ocr.tessdata_prefix) or the TESSDATA_PREFIX environment variable.
//
// # Caching
//
// Extraction results can be memoized in a Cache. A 32x32 extended difference
// hash of the binarized image selects the entry and a SHA-256 of its pixels
// must match for a hit, so a repeated upload hits while a label with one
// different digit does not. Entries expire after the
// configured TTL.
//
// # Error Handling
//
// Engine errors are wrapped with context and returned; callers decide whether
// a failed extraction is fatal. The HTTP layer treats it as "no text".
package ocr
