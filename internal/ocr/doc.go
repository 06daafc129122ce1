// Package ocr reads the student name from a sheet.
//
// Name extraction sits behind the NameReader interface so that grading does
// not depend on Tesseract being installed. TesseractReader wraps the
// Tesseract engine (via gosseract/v2); NopReader returns empty names.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Preprocessing
//
// The name region is cropped, enlarged so that its height is at least 64
// pixels, converted to grayscale and binarized at the Otsu level before it
// is handed to Tesseract in single-line mode with a letters-only whitelist.
// PrepareName exposes that step so it can be inspected without Tesseract.
package ocr
