//go:build gocv

package pipeline

import (
	"image"

	"github.com/gauravn17/ImpactOCR/internal/config"
	"github.com/gauravn17/ImpactOCR/internal/detection"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// opencvBackend runs normalization and contour extraction on OpenCV.
type opencvBackend struct{}

func (opencvBackend) Normalize(img image.Image, opts imaging.NormalizeOptions) (*imaging.BinaryMask, error) {
	return imaging.NormalizeOpenCV(img, opts)
}

func (opencvBackend) Locate(mask *imaging.BinaryMask, geom detection.Geometry) ([]detection.Region, error) {
	return detection.LocateOpenCV(mask, geom)
}

func init() {
	RegisterBackend(config.BackendOpenCV, opencvBackend{})
}
