package detection

import (
	"image"

	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// Bounds represents an axis-aligned bounding box in pixel coordinates.
//
// X and Y are the top-left corner. Width and Height count pixels, so a box
// covering a single pixel has Width and Height of 1.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the bounds to an image.Rectangle (Max exclusive).
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Region is a detected bubble candidate: its bounding box, the contour it was
// derived from, and the area enclosed by that contour.
type Region struct {
	// Bounds is the pixel extent of the contour.
	Bounds Bounds `json:"bounds"`

	// Area is the polygon area enclosed by the contour in square pixels.
	// It is smaller than Width*Height because the contour runs through
	// pixel centres.
	Area float64 `json:"area"`

	// Contour is the traced outer boundary.
	Contour []Point `json:"-"`
}

// NewRegion computes the bounds and area of a contour.
// An empty contour yields a zero Region.
func NewRegion(contour []Point) Region {
	if len(contour) == 0 {
		return Region{}
	}

	minX, minY := contour[0].X, contour[0].Y
	maxX, maxY := minX, minY
	for _, p := range contour[1:] {
		minX = minInt(minX, p.X)
		minY = minInt(minY, p.Y)
		maxX = maxInt(maxX, p.X)
		maxY = maxInt(maxY, p.Y)
	}

	return Region{
		Bounds: Bounds{
			X:      minX,
			Y:      minY,
			Width:  maxX - minX + 1,
			Height: maxY - minY + 1,
		},
		Area:    polygonArea(contour),
		Contour: contour,
	}
}

// polygonArea returns the absolute shoelace area of a closed polygon.
func polygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var twice int
	for i := range pts {
		j := (i + 1) % len(pts)
		twice += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if twice < 0 {
		twice = -twice
	}
	return float64(twice) / 2
}

// Geometry holds the shape constraints a contour must meet to count as a
// bubble. Sizes are in pixels, aspect is width/height.
type Geometry struct {
	MinSize   float64 `json:"min_size" yaml:"min_size"`
	MaxSize   float64 `json:"max_size" yaml:"max_size"`
	MinAspect float64 `json:"min_aspect" yaml:"min_aspect"`
	MaxAspect float64 `json:"max_aspect" yaml:"max_aspect"`
	MinArea   float64 `json:"min_area" yaml:"min_area"`

	// ReferenceWidth is the sheet width, in pixels, that the size and area
	// bounds were tuned for. When set, the bounds are scaled to the width
	// of the sheet being processed. Zero means the bounds are absolute.
	ReferenceWidth int `json:"reference_width" yaml:"reference_width"`
}

// DefaultGeometry returns bounds suited to a bubble sheet scanned at about
// 150 DPI.
func DefaultGeometry() Geometry {
	return Geometry{
		MinSize:   15,
		MaxSize:   60,
		MinAspect: 0.8,
		MaxAspect: 1.2,
		MinArea:   200,
	}
}

// ScaledTo adapts the size and area bounds to a sheet of the given width.
// Aspect bounds are scale-free and stay unchanged. Without a ReferenceWidth
// the geometry is returned as is.
func (g Geometry) ScaledTo(width int) Geometry {
	if g.ReferenceWidth <= 0 || width <= 0 {
		return g
	}
	s := float64(width) / float64(g.ReferenceWidth)
	g.MinSize *= s
	g.MaxSize *= s
	g.MinArea *= s * s
	g.ReferenceWidth = 0
	return g
}

// Accepts reports whether r is plausibly bubble-shaped. Width, height and
// aspect must lie within their inclusive bounds and the area must exceed
// MinArea.
func (g Geometry) Accepts(r Region) bool {
	w, h := float64(r.Bounds.Width), float64(r.Bounds.Height)
	if w < g.MinSize || w > g.MaxSize || h < g.MinSize || h > g.MaxSize {
		return false
	}
	aspect := w / h
	if aspect < g.MinAspect || aspect > g.MaxAspect {
		return false
	}
	return r.Area > g.MinArea
}

// Locate finds bubble-shaped regions in a mark mask.
//
// Outer contours are extracted from the mask and kept only when they satisfy
// every constraint of the geometry (scaled to the mask width when a
// reference width is set). Regions are returned in discovery order. A mask
// with no qualifying shapes yields an empty, non-nil slice.
//
// The filter prefers missing a malformed bubble over grading a speck of
// noise as a selection.
func Locate(mask *imaging.BinaryMask, geom Geometry) []Region {
	g := geom.ScaledTo(mask.Width())
	regions := make([]Region, 0)
	for _, contour := range FindExternalContours(mask) {
		r := NewRegion(contour)
		if g.Accepts(r) {
			regions = append(regions, r)
		}
	}
	return regions
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
