package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Mark describes one located bubble for the review overlay.
type Mark struct {
	// Bounds is the bubble bounding box in image coordinates.
	Bounds image.Rectangle

	// Fill is the measured fill ratio (0.0 to 1.0).
	Fill float64

	// Selected marks the bubble that was resolved as the answer.
	Selected bool

	// Grouped is false for bubbles that were located but dropped with an
	// incomplete trailing group.
	Grouped bool

	// Label is drawn above the box, typically the question number on the
	// first bubble of each group. Only digits are rendered.
	Label string
}

var (
	emptyColor   = colorful.Hsv(0, 0.85, 0.90)
	filledColor  = colorful.Hsv(130, 0.80, 0.70)
	droppedColor = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	labelFG      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBG      = color.NRGBA{R: 0, G: 0, B: 0, A: 200}
)

// Annotate draws the located bubbles over a copy of the sheet.
//
// Each box is outlined in a colour blended (in HCL space) from red for an
// empty bubble to green for a fully filled one. Selected bubbles get a thick
// outline, dropped bubbles a thin grey one. The source image is not modified.
func Annotate(img image.Image, marks []Mark) *image.NRGBA {
	canvas := imaging.Clone(img)
	origin := img.Bounds().Min

	for _, m := range marks {
		r := m.Bounds.Sub(origin)

		var c color.Color = droppedColor
		thickness := 1
		if m.Grouped {
			c = FillColor(m.Fill)
			if m.Selected {
				thickness = 3
			}
		}
		drawBox(canvas, r, c, thickness)

		if m.Label != "" {
			// Keep labels of top-row bubbles inside the canvas.
			y := r.Min.Y - 9
			if top := canvas.Bounds().Min.Y + 1; y < top {
				y = top
			}
			drawLabel(canvas, r.Min.X, y, m.Label, labelFG, labelBG)
		}
	}
	return canvas
}

// FillColor maps a fill ratio onto the overlay palette.
func FillColor(fill float64) color.Color {
	if fill < 0 {
		fill = 0
	}
	if fill > 1 {
		fill = 1
	}
	return emptyColor.BlendHcl(filledColor, fill).Clamped()
}

// drawBox outlines r, growing the outline outward for thickness > 1.
func drawBox(img *image.NRGBA, r image.Rectangle, c color.Color, thickness int) {
	bounds := img.Bounds()
	for t := 0; t < thickness; t++ {
		x1, y1 := r.Min.X-t, r.Min.Y-t
		x2, y2 := r.Max.X-1+t, r.Max.Y-1+t
		for x := x1; x <= x2; x++ {
			setClipped(img, bounds, x, y1, c)
			setClipped(img, bounds, x, y2, c)
		}
		for y := y1; y <= y2; y++ {
			setClipped(img, bounds, x1, y, c)
			setClipped(img, bounds, x2, y, c)
		}
	}
}

func setClipped(img *image.NRGBA, bounds image.Rectangle, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(bounds) {
		img.Set(x, y, c)
	}
}

// drawLabel draws digits with a 3x5 pixel font on a filled background.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, bounds, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, bounds, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
