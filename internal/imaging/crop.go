package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage carries a PNG rendering for transport over JSON.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG renders img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// CropROI extracts a region of interest, given in image coordinates, from img.
//
// The region is clipped to the image. A region that falls entirely outside
// the image is an error. The result is anchored at (0,0).
func CropROI(img image.Image, roi image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	clipped := roi.Canon().Intersect(bounds)
	if clipped.Empty() {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			roi.Min.X, roi.Min.Y, roi.Max.X, roi.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return imaging.Crop(img, clipped), nil
}

// Upscale enlarges img so that its shorter side is at least minSide pixels.
// Images that are already large enough are returned unchanged.
func Upscale(img image.Image, minSide int) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	short := w
	if h < short {
		short = h
	}
	if short == 0 || short >= minSide {
		return img
	}
	scale := float64(minSide) / float64(short)
	return imaging.Resize(img, int(float64(w)*scale+0.5), int(float64(h)*scale+0.5), imaging.Lanczos)
}
