package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"

	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// minNameHeight is the height the name strip is enlarged to before
// recognition. Tesseract reads best with glyphs around 30px tall.
const minNameHeight = 64

// PrepareName crops the name region and turns it into a clean black on white
// line for recognition: upscaled, grayscale, and binarized at the Otsu level.
func PrepareName(img image.Image, roi image.Rectangle) (*image.Gray, error) {
	crop, err := imaging.CropROI(img, roi)
	if err != nil {
		return nil, err
	}
	gray := imaging.Grayscale(imaging.Upscale(crop, minNameHeight))
	return segment.Threshold(gray, OtsuLevel(gray)), nil
}

// OtsuLevel returns the threshold that best separates the gray levels of img
// into two classes (maximum between-class variance). Pixels at or above the
// level are background.
//
// A uniform image has nothing to separate; its level is 0, so every pixel
// is background.
func OtsuLevel(img image.Image) uint8 {
	bins := histogram.NewRGBAHistogram(img).R.Bins

	var total, sum float64
	for v, n := range bins {
		total += float64(n)
		sum += float64(v) * float64(n)
	}
	if total == 0 {
		return 128
	}

	var (
		bestVar   = -1.0
		bestLevel = 0
		wB, sumB  float64
	)
	for t := 0; t < 256; t++ {
		wB += float64(bins[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(bins[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			bestLevel = t
		}
	}

	if bestVar < 0 {
		return 0
	}
	return uint8(bestLevel + 1)
}
