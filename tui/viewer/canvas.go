package viewer

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/df07/go-optics-engine/pkg/core"
)

// glyphs maps the engine palette onto terminal runes
var glyphs = map[core.Color]rune{
	core.ColorRay:      '*',
	core.ColorObstacle: 'o',
	core.ColorEmitter:  '=',
	core.ColorControl:  '+',
	core.ColorDebug:    '.',
}

// TermCanvas draws into terminal cells, scaling world coordinates to the screen size
type TermCanvas struct {
	screen       tcell.Screen
	worldW       float64
	worldH       float64
	cols, rows   int
	scaleX       float64
	scaleY       float64
	maxLineCells int
}

// NewTermCanvas creates a canvas mapping a worldW x worldH area onto the screen
func NewTermCanvas(screen tcell.Screen, worldW, worldH float64) *TermCanvas {
	c := &TermCanvas{screen: screen, worldW: worldW, worldH: worldH}
	c.Resize()
	return c
}

// Resize picks up the current screen size
func (c *TermCanvas) Resize() {
	c.cols, c.rows = c.screen.Size()
	if c.cols < 1 {
		c.cols = 1
	}
	if c.rows < 1 {
		c.rows = 1
	}
	c.scaleX = float64(c.cols) / c.worldW
	c.scaleY = float64(c.rows) / c.worldH
	c.maxLineCells = 4 * (c.cols + c.rows)
}

// ToCell converts a world position to a cell
func (c *TermCanvas) ToCell(p core.Vec2) (int, int) {
	return int(math.Floor(p.X * c.scaleX)), int(math.Floor(p.Y * c.scaleY))
}

// ToWorld converts a cell to the world position at its center
func (c *TermCanvas) ToWorld(col, row int) core.Vec2 {
	return core.NewVec2((float64(col)+0.5)/c.scaleX, (float64(row)+0.5)/c.scaleY)
}

func (c *TermCanvas) style(col core.Color) tcell.Style {
	if col.A < 128 {
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	}
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(col.R), int32(col.G), int32(col.B)))
}

func (c *TermCanvas) plot(col, row int, r rune, style tcell.Style) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.screen.SetContent(col, row, r, nil, style)
}

func glyph(col core.Color) rune {
	if r, ok := glyphs[col]; ok {
		return r
	}
	return '#'
}

// DrawLine plots the cells a line passes through
func (c *TermCanvas) DrawLine(from, to core.Vec2, col core.Color, width float64) {
	if !from.IsFinite() || !to.IsFinite() {
		return
	}
	x0, y0 := from.X*c.scaleX, from.Y*c.scaleY
	x1, y1 := to.X*c.scaleX, to.Y*c.scaleY

	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps > c.maxLineCells {
		// Lines far longer than the screen are sampled coarsely
		steps = c.maxLineCells
	}
	r, style := glyph(col), c.style(col)
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		c.plot(int(math.Floor(x0+(x1-x0)*t)), int(math.Floor(y0+(y1-y0)*t)), r, style)
	}
}

// DrawCircle plots the cells on a circle outline
func (c *TermCanvas) DrawCircle(center core.Vec2, radius float64, col core.Color, width float64) {
	if radius <= 0 || !center.IsFinite() {
		return
	}
	circumference := 2 * math.Pi * radius * math.Max(c.scaleX, c.scaleY)
	samples := int(math.Min(math.Max(8, 2*circumference), float64(c.maxLineCells)))
	r, style := glyph(col), c.style(col)
	for i := 0; i < samples; i++ {
		angle := 2 * math.Pi * float64(i) / float64(samples)
		p := center.Add(core.NewVec2(math.Cos(angle), math.Sin(angle)).Multiply(radius))
		x, y := c.ToCell(p)
		c.plot(x, y, r, style)
	}
}
