package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/df07/go-optics-engine/pkg/core"
)

// circleSegments is the polygon resolution used for circles
const circleSegments = 64

// ImageCanvas rasterises lines and circles into an RGBA image
type ImageCanvas struct {
	img    *image.RGBA
	raster *vector.Rasterizer
}

// NewImageCanvas creates a canvas filled with the background color
func NewImageCanvas(width, height int, background core.Color) *ImageCanvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(toNRGBA(background)), image.Point{}, draw.Src)
	return &ImageCanvas{
		img:    img,
		raster: vector.NewRasterizer(width, height),
	}
}

// Image returns the rendered image
func (c *ImageCanvas) Image() *image.RGBA {
	return c.img
}

// EncodePNG writes the image as PNG
func (c *ImageCanvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func toNRGBA(c core.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// bounds returns the canvas rectangle grown by margin
func (c *ImageCanvas) bounds(margin float64) (minX, minY, maxX, maxY float64) {
	b := c.img.Bounds()
	return -margin, -margin, float64(b.Dx()) + margin, float64(b.Dy()) + margin
}

// DrawLine draws a line of the given width as a filled quad
func (c *ImageCanvas) DrawLine(from, to core.Vec2, col core.Color, width float64) {
	from, to, ok := c.clip(from, to, width)
	if !ok {
		return
	}

	dir := to.Subtract(from).Normalize()
	if dir.LengthSquared() == 0 {
		// Zero-length lines render as a dot
		dir = core.NewVec2(1, 0)
	}
	half := math.Max(width, 1) / 2
	side := dir.Perpendicular().Multiply(half)
	from = from.Subtract(dir.Multiply(half))
	to = to.Add(dir.Multiply(half))

	c.raster.Reset(c.img.Bounds().Dx(), c.img.Bounds().Dy())
	c.moveTo(from.Add(side))
	c.lineTo(to.Add(side))
	c.lineTo(to.Subtract(side))
	c.lineTo(from.Subtract(side))
	c.raster.ClosePath()
	c.fill(col)
}

// DrawCircle draws a circle outline of the given stroke width
func (c *ImageCanvas) DrawCircle(center core.Vec2, radius float64, col core.Color, width float64) {
	if radius <= 0 || !center.IsFinite() {
		return
	}
	half := math.Max(width, 1) / 2
	outer := radius + half
	minX, minY, maxX, maxY := c.bounds(outer)
	if center.X < minX || center.X > maxX || center.Y < minY || center.Y > maxY {
		return
	}
	inner := math.Max(radius-half, 0)

	c.raster.Reset(c.img.Bounds().Dx(), c.img.Bounds().Dy())
	c.polygon(center, outer, 1)
	if inner > 0 {
		// Opposite winding cuts the hole
		c.polygon(center, inner, -1)
	}
	c.fill(col)
}

func (c *ImageCanvas) polygon(center core.Vec2, radius, winding float64) {
	for i := 0; i <= circleSegments; i++ {
		angle := winding * 2 * math.Pi * float64(i) / circleSegments
		p := center.Add(core.NewVec2(math.Cos(angle), math.Sin(angle)).Multiply(radius))
		if i == 0 {
			c.moveTo(p)
		} else {
			c.lineTo(p)
		}
	}
	c.raster.ClosePath()
}

func (c *ImageCanvas) moveTo(p core.Vec2) {
	c.raster.MoveTo(float32(p.X), float32(p.Y))
}

func (c *ImageCanvas) lineTo(p core.Vec2) {
	c.raster.LineTo(float32(p.X), float32(p.Y))
}

func (c *ImageCanvas) fill(col core.Color) {
	c.raster.DrawOp = draw.Over
	c.raster.Draw(c.img, c.img.Bounds(), image.NewUniform(toNRGBA(col)), image.Point{})
}

// clip trims a segment to the canvas grown by the stroke width (Liang-Barsky)
func (c *ImageCanvas) clip(from, to core.Vec2, width float64) (core.Vec2, core.Vec2, bool) {
	if !from.IsFinite() || !to.IsFinite() {
		return from, to, false
	}
	minX, minY, maxX, maxY := c.bounds(width + 1)
	d := to.Subtract(from)
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-d.X, from.X - minX},
		{d.X, maxX - from.X},
		{-d.Y, from.Y - minY},
		{d.Y, maxY - from.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return from, to, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			t0 = math.Max(t0, r)
		} else {
			t1 = math.Min(t1, r)
		}
		if t0 > t1 {
			return from, to, false
		}
	}
	return from.Add(d.Multiply(t0)), from.Add(d.Multiply(t1)), true
}
