//go:build gocv

package imaging

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

// NormalizeOpenCV is Normalize implemented on OpenCV.
//
// It runs the same steps (grayscale, Gaussian blur, Gaussian-weighted
// adaptive threshold with inverse binarization) with the native OpenCV
// routines. Away from the image border the result agrees with Normalize up
// to rounding at the threshold; OpenCV reflects edges instead of replicating.
func NormalizeOpenCV(img image.Image, opts NormalizeOptions) (*BinaryMask, error) {
	if err := CheckImage(img); err != nil {
		return nil, err
	}
	if err := checkKernelSize("blur kernel", opts.BlurKernel); err != nil {
		return nil, err
	}
	if err := checkKernelSize("block size", opts.BlockSize); err != nil {
		return nil, err
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(opts.BlurKernel, opts.BlurKernel), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinaryInv, opts.BlockSize, float32(opts.Bias))

	mask := NewBinaryMask(b.Dx(), b.Dy())
	for i, v := range binary.ToBytes() {
		mask.bits[i] = v != 0
	}
	return mask, nil
}
