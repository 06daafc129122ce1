package detection

import (
	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Neighbour offsets in clockwise order (screen coordinates, Y down),
// starting East.
var neighbours = [8]Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

const (
	dirWest  = 4
	dirNorth = 6
)

// FindExternalContours returns the outer boundary of every top-level shape
// in the mask.
//
// Shapes are 8-connected groups of on pixels. A shape that sits entirely
// inside a hole of another shape (a dot drawn inside a ring, for instance) is
// not top-level and is not reported. Each contour lists the boundary pixels
// in clockwise tracing order, starting from the shape's top-most, left-most
// pixel. Contours are returned in raster order of those start pixels.
//
// # Algorithm
//
//  1. Outer background: flood the off pixels that are 4-connected to the
//     image border.
//  2. Labelling: group on pixels into 8-connected components with an
//     iterative flood fill.
//  3. Selection: a component is top-level when the pixel above its first
//     raster pixel is outside the image or part of the outer background.
//  4. Tracing: Moore neighbour tracing around the component, stopping when
//     the start pixel is left in the same direction as the first step.
func FindExternalContours(mask *imaging.BinaryMask) [][]Point {
	width, height := mask.Width(), mask.Height()
	if width == 0 || height == 0 {
		return nil
	}

	outside := outerBackground(mask)
	visited := make([]bool, width*height)
	contours := make([][]Point, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask.At(x, y) || visited[y*width+x] {
				continue
			}
			size := labelComponent(mask, visited, x, y)

			if y > 0 && !outside[(y-1)*width+x] {
				continue
			}
			contours = append(contours, traceBoundary(mask, Point{X: x, Y: y}, size))
		}
	}
	return contours
}

// outerBackground marks every off pixel reachable from the image border
// through 4-connected off pixels.
func outerBackground(mask *imaging.BinaryMask) []bool {
	width, height := mask.Width(), mask.Height()
	outside := make([]bool, width*height)
	stack := make([]Point, 0, 2*(width+height))

	push := func(x, y int) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return
		}
		if outside[y*width+x] || mask.At(x, y) {
			return
		}
		outside[y*width+x] = true
		stack = append(stack, Point{X: x, Y: y})
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outside
}

// labelComponent performs an iterative flood-fill from a starting point,
// marking the 8-connected component as visited. It returns the number of
// pixels in the component.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large shapes.
func labelComponent(mask *imaging.BinaryMask, visited []bool, startX, startY int) int {
	width := mask.Width()
	stack := []Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true
	size := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++

		for _, d := range neighbours {
			nx, ny := p.X+d.X, p.Y+d.Y
			if !mask.At(nx, ny) || visited[ny*width+nx] {
				continue
			}
			visited[ny*width+nx] = true
			stack = append(stack, Point{X: nx, Y: ny})
		}
	}
	return size
}

// traceBoundary walks the outer boundary of the component containing start.
//
// start must be the component's first pixel in raster order, so its West and
// North neighbours are off. size bounds the walk: a boundary never visits a
// pixel more than four times. A start pixel joining two parts of the shape
// is listed again each time the walk passes through it.
func traceBoundary(mask *imaging.BinaryMask, start Point, size int) []Point {
	contour := []Point{start}
	limit := 4*size + 8

	cur := start
	backtrack := dirWest
	firstDir := -1

	for steps := 0; steps < limit; steps++ {
		dir := -1
		for i := 1; i <= 8; i++ {
			d := (backtrack + i) % 8
			if mask.At(cur.X+neighbours[d].X, cur.Y+neighbours[d].Y) {
				dir = d
				break
			}
		}
		if dir < 0 {
			// Isolated pixel.
			return contour
		}

		if cur == start {
			if firstDir < 0 {
				firstDir = dir
			} else if dir == firstDir {
				// Back where the walk began; start is already first.
				return contour[:len(contour)-1]
			}
		}

		next := Point{X: cur.X + neighbours[dir].X, Y: cur.Y + neighbours[dir].Y}

		// The last off pixel examined, seen from next, is the new backtrack.
		prev := neighbours[(dir+7)%8]
		backtrack = directionOf(prev.X-neighbours[dir].X, prev.Y-neighbours[dir].Y)

		contour = append(contour, next)
		cur = next
	}
	return contour
}

func directionOf(dx, dy int) int {
	for i, d := range neighbours {
		if d.X == dx && d.Y == dy {
			return i
		}
	}
	return dirNorth
}
