package detection

import (
	"math"
	"sort"

	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// FillRatios scores every region of a group against the mark mask, in
// option order.
func FillRatios(group BubbleGroup, mask *imaging.BinaryMask) []float64 {
	ratios := make([]float64, len(group.Regions))
	for i, r := range group.Regions {
		ratios[i] = FillRatio(r, mask)
	}
	return ratios
}

// FillRatio returns the fraction of the region's shape that is on in mask.
//
// The shape is the filled contour polygon including its boundary pixels.
// The result is always within [0, 1]; a region whose shape covers no pixels
// scores 0.
func FillRatio(r Region, mask *imaging.BinaryMask) float64 {
	shape := shapeMask(r)
	if shape.total == 0 {
		return 0
	}

	on := 0
	for y := 0; y < shape.height; y++ {
		for x := 0; x < shape.width; x++ {
			if shape.bits[y*shape.width+x] && mask.At(shape.x+x, shape.y+y) {
				on++
			}
		}
	}
	return float64(on) / float64(shape.total)
}

// regionShape is a pixel mask of a filled contour, local to its bounds.
type regionShape struct {
	x, y          int
	width, height int
	bits          []bool
	total         int
}

func (s *regionShape) set(x, y int) {
	x -= s.x
	y -= s.y
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	if !s.bits[y*s.width+x] {
		s.bits[y*s.width+x] = true
		s.total++
	}
}

// shapeMask rasterizes the filled contour polygon of r.
//
// The interior is filled with an even-odd scanline pass over integer rows,
// counting an edge when the row is in [min(y0,y1), max(y0,y1)). The boundary
// is then drawn segment by segment so that contours given as sparse vertices
// are closed as well.
func shapeMask(r Region) *regionShape {
	b := r.Bounds
	s := &regionShape{x: b.X, y: b.Y, width: b.Width, height: b.Height}
	if b.Width <= 0 || b.Height <= 0 || len(r.Contour) == 0 {
		return s
	}
	s.bits = make([]bool, b.Width*b.Height)

	pts := r.Contour
	n := len(pts)
	xs := make([]float64, 0, 8)
	for y := b.Y; y < b.Y+b.Height; y++ {
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p, q := pts[i], pts[(i+1)%n]
			if p.Y == q.Y {
				continue
			}
			lo, hi := p, q
			if lo.Y > hi.Y {
				lo, hi = hi, lo
			}
			if y < lo.Y || y >= hi.Y {
				continue
			}
			t := float64(y-lo.Y) / float64(hi.Y-lo.Y)
			xs = append(xs, float64(lo.X)+t*float64(hi.X-lo.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				s.set(x, y)
			}
		}
	}

	for i := 0; i < n; i++ {
		drawSegment(s, pts[i], pts[(i+1)%n])
	}
	return s
}

// drawSegment marks the pixels of a straight segment (Bresenham).
func drawSegment(s *regionShape, a, b Point) {
	dx := absInt(b.X - a.X)
	dy := -absInt(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		s.set(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
