package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// NormalizeOptions tunes the conversion of a sheet into a BinaryMask.
type NormalizeOptions struct {
	// BlurKernel is the side of the Gaussian smoothing kernel (odd, >= 3).
	BlurKernel int `json:"blur_kernel" yaml:"blur_kernel"`

	// BlockSize is the side of the neighbourhood used for the local
	// threshold (odd, >= 3).
	BlockSize int `json:"block_size" yaml:"block_size"`

	// Bias is subtracted from the local mean; a pixel must be at least this
	// many intensity levels darker than its surroundings to count as ink.
	Bias float64 `json:"bias" yaml:"bias"`
}

// DefaultNormalizeOptions returns the settings tuned for typical print/scan
// contrast: 5x5 blur, 11x11 neighbourhood, bias of 2 levels.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		BlurKernel: 5,
		BlockSize:  11,
		Bias:       2,
	}
}

// Normalize converts a sheet image into a mark mask.
//
// # Algorithm
//
//  1. Grayscale conversion (luminance).
//  2. Gaussian smoothing with a BlurKernel x BlurKernel kernel. Skipping this
//     step over-fragments bubble outlines, so it always runs.
//  3. Local mean: a Gaussian-weighted average over a BlockSize x BlockSize
//     neighbourhood of the smoothed image.
//  4. Inverse binarization: a pixel is on when smoothed <= mean - Bias.
//
// Because the threshold follows the local mean, a shadow across one side of
// the page does not bias that side of the sheet. Both convolutions replicate
// edge pixels at the image border.
//
// Returns *ImageLoadError when img is nil or empty.
func Normalize(img image.Image, opts NormalizeOptions) (*BinaryMask, error) {
	if err := CheckImage(img); err != nil {
		return nil, err
	}
	if err := checkKernelSize("blur kernel", opts.BlurKernel); err != nil {
		return nil, err
	}
	if err := checkKernelSize("block size", opts.BlockSize); err != nil {
		return nil, err
	}

	gray := Grayscale(img)
	blurred := GaussianSmooth(gray, opts.BlurKernel)
	mean := GaussianSmooth(blurred, opts.BlockSize)

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	mask := NewBinaryMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := float64(blurred.Pix[y*blurred.Stride+x])
			local := float64(mean.Pix[y*mean.Stride+x])
			if src <= local-opts.Bias {
				mask.bits[y*w+x] = true
			}
		}
	}
	return mask, nil
}

// Grayscale converts any image into an 8-bit single-channel image anchored
// at (0,0), using ITU-R BT.601 luma weights.
func Grayscale(img image.Image) *image.Gray {
	return redChannel(effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114))
}

// GaussianSmooth blurs a grayscale image with a size x size Gaussian kernel.
//
// The kernel is separable, so it is applied as a horizontal pass followed by
// a vertical pass. Sigma follows the usual rule for a kernel of a given size:
//
//	sigma = 0.3*((size-1)/2 - 1) + 0.8
func GaussianSmooth(src *image.Gray, size int) *image.Gray {
	weights := gaussianWeights(size)
	opts := &convolution.Options{Wrap: false, KeepAlpha: true}

	horizontal := &convolution.Kernel{Matrix: weights, Width: size, Height: 1}
	vertical := &convolution.Kernel{Matrix: weights, Width: 1, Height: size}

	pass := convolution.Convolve(src, horizontal, opts)
	pass = convolution.Convolve(pass, vertical, opts)
	return redChannel(pass)
}

// gaussianWeights returns a normalized 1-D Gaussian of the given odd length.
func gaussianWeights(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	center := size / 2
	weights := make([]float64, size)
	var sum float64
	for i := range weights {
		d := float64(i - center)
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// redChannel extracts the R plane of a gray RGBA image into a Gray anchored
// at (0,0). Every channel carries the same value.
func redChannel(rgba *image.RGBA) *image.Gray {
	b := rgba.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < b.Dx(); x++ {
			g.Pix[y*g.Stride+x] = row[x*4]
		}
	}
	return g
}

func checkKernelSize(name string, size int) error {
	if size < 3 || size%2 == 0 {
		return fmt.Errorf("%s must be an odd number >= 3, got %d", name, size)
	}
	return nil
}
