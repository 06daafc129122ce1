package imaging

import (
	"image"
	"image/color"
)

// BinaryMask is a 2-D grid of mark / no-mark values derived from a sheet.
//
// Pixels that belong to dark ink are "on". Coordinates are 0-based with the
// origin at the top-left corner, independent of the bounds of the source
// image. Downstream stages only read a mask; Set exists for the stage that
// builds it.
type BinaryMask struct {
	width  int
	height int
	bits   []bool
}

// NewBinaryMask returns an all-off mask of the given size.
// Negative dimensions are treated as zero.
func NewBinaryMask(width, height int) *BinaryMask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &BinaryMask{
		width:  width,
		height: height,
		bits:   make([]bool, width*height),
	}
}

// MaskFromGray marks every pixel of g whose intensity is >= level.
func MaskFromGray(g *image.Gray, level uint8) *BinaryMask {
	b := g.Bounds()
	m := NewBinaryMask(b.Dx(), b.Dy())
	for y := 0; y < m.height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+m.width]
		for x, v := range row {
			m.bits[y*m.width+x] = v >= level
		}
	}
	return m
}

// Width returns the mask width in pixels.
func (m *BinaryMask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *BinaryMask) Height() int { return m.height }

// Bounds returns the mask rectangle, always anchored at (0,0).
func (m *BinaryMask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// At reports whether (x, y) is on. Coordinates outside the mask are off.
func (m *BinaryMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Set turns (x, y) on or off. Coordinates outside the mask are ignored.
func (m *BinaryMask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.bits[y*m.width+x] = on
}

// Fill sets every pixel of r (clipped to the mask) to on.
func (m *BinaryMask) Fill(r image.Rectangle, on bool) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.bits[y*m.width+x] = on
		}
	}
}

// Count returns the number of on pixels.
func (m *BinaryMask) Count() int {
	n := 0
	for _, on := range m.bits {
		if on {
			n++
		}
	}
	return n
}

// CountIn returns the number of on pixels inside r.
func (m *BinaryMask) CountIn(r image.Rectangle) int {
	r = r.Intersect(m.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if m.bits[y*m.width+x] {
				n++
			}
		}
	}
	return n
}

// ToGray renders the mask as a grayscale image, on pixels white (255).
func (m *BinaryMask) ToGray() *image.Gray {
	g := image.NewGray(m.Bounds())
	for i, on := range m.bits {
		if on {
			g.Pix[i] = 255
		}
	}
	return g
}

// maskImage adapts a BinaryMask to image.Image so it can be PNG-encoded.
type maskImage struct{ m *BinaryMask }

func (mi maskImage) ColorModel() color.Model { return color.GrayModel }
func (mi maskImage) Bounds() image.Rectangle { return mi.m.Bounds() }
func (mi maskImage) At(x, y int) color.Color {
	if mi.m.At(x, y) {
		return color.Gray{Y: 255}
	}
	return color.Gray{Y: 0}
}

// Image returns a read-only image.Image view of the mask.
func (m *BinaryMask) Image() image.Image {
	return maskImage{m: m}
}
