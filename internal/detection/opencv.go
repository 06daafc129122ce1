//go:build gocv

package detection

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// LocateOpenCV is Locate with contour extraction done by OpenCV.
//
// External contours come from cv::findContours with the full point chain, so
// regions carry the same contour shape as the native tracer and are scored
// the same way.
func LocateOpenCV(mask *imaging.BinaryMask, geom Geometry) ([]Region, error) {
	g := mask.ToGray()
	mat, err := gocv.NewMatFromBytes(mask.Height(), mask.Width(), gocv.MatTypeCV8UC1, g.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask to mat: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	scaled := geom.ScaledTo(mask.Width())
	regions := make([]Region, 0)
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		pts := make([]Point, 0, contour.Size())
		for j := 0; j < contour.Size(); j++ {
			pt := contour.At(j)
			pts = append(pts, Point{X: pt.X, Y: pt.Y})
		}
		r := NewRegion(pts)
		if scaled.Accepts(r) {
			regions = append(regions, r)
		}
	}
	return regions, nil
}
