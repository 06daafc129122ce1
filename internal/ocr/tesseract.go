package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// NameReader extracts the student name written inside a region of a sheet.
//
// Implementations return an empty string when nothing legible is found. The
// returned text is an opaque label; callers do not validate it.
type NameReader interface {
	ReadName(img image.Image, roi image.Rectangle) (string, error)
}

// NopReader is a NameReader that never reads anything. It stands in when
// Tesseract is unavailable or disabled.
type NopReader struct{}

// ReadName always returns an empty name.
func (NopReader) ReadName(image.Image, image.Rectangle) (string, error) {
	return "", nil
}

// nameWhitelist restricts recognition to letters and spaces.
const nameWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz "

// TesseractReader reads handwritten or printed names with Tesseract.
//
// The region is cropped, enlarged, binarized with Otsu's method and passed to
// Tesseract as a single text line restricted to letters. A new Tesseract
// client is created per call, so a TesseractReader may be shared between
// goroutines.
type TesseractReader struct {
	// Language is the Tesseract language code, "eng" when empty. The
	// corresponding training data must be installed.
	Language string
}

// ReadName implements NameReader.
func (r *TesseractReader) ReadName(img image.Image, roi image.Rectangle) (string, error) {
	prepared, err := PrepareName(img, roi)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return "", fmt.Errorf("failed to encode name region: %w", err)
	}

	lang := r.Language
	if lang == "" {
		lang = "eng"
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(nameWhitelist); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return CleanName(text), nil
}

// CleanName collapses runs of whitespace and trims the result.
func CleanName(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
