package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-optics-engine/pkg/core"
)

func TestNewImageCanvasFillsBackground(t *testing.T) {
	c := NewImageCanvas(8, 4, core.Color{R: 1, G: 2, B: 3, A: 255})
	px := c.Image().RGBAAt(7, 3)
	assert.Equal(t, uint8(1), px.R)
	assert.Equal(t, uint8(2), px.G)
	assert.Equal(t, uint8(3), px.B)
}

func TestDrawLine(t *testing.T) {
	c := NewImageCanvas(100, 100, Background)
	c.DrawLine(core.NewVec2(10, 50), core.NewVec2(90, 50), core.ColorRay, 2)

	img := c.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(50, 49).R)
	assert.Equal(t, uint8(255), img.RGBAAt(50, 50).R)
	assert.Zero(t, img.RGBAAt(50, 10).R)
	assert.Zero(t, img.RGBAAt(95, 50).R)
}

func TestDrawLineClipsHugeCoordinates(t *testing.T) {
	c := NewImageCanvas(100, 100, Background)
	c.DrawLine(core.NewVec2(-1e9, 50), core.NewVec2(1e9, 50), core.ColorRay, 2)
	assert.Equal(t, uint8(255), c.Image().RGBAAt(50, 50).R)
	assert.Equal(t, uint8(255), c.Image().RGBAAt(0, 50).R)
}

func TestDrawLineSkipsInvisibleLines(t *testing.T) {
	c := NewImageCanvas(50, 50, Background)
	before := append([]uint8(nil), c.Image().Pix...)

	c.DrawLine(core.NewVec2(-100, -100), core.NewVec2(-50, -300), core.ColorRay, 1)
	c.DrawLine(core.NewVec2(math.NaN(), 0), core.NewVec2(10, 10), core.ColorRay, 1)
	c.DrawLine(core.NewVec2(0, 0), core.NewVec2(math.Inf(1), 10), core.ColorRay, 1)

	assert.Equal(t, before, c.Image().Pix)
}

func TestDrawLineZeroLength(t *testing.T) {
	c := NewImageCanvas(20, 20, Background)
	c.DrawLine(core.NewVec2(10, 10), core.NewVec2(10, 10), core.ColorRay, 4)
	assert.NotZero(t, c.Image().RGBAAt(10, 10).R)
}

func TestDrawCircleIsARing(t *testing.T) {
	c := NewImageCanvas(100, 100, Background)
	c.DrawCircle(core.NewVec2(50, 50), 20, core.ColorControl, 2)

	img := c.Image()
	assert.Zero(t, img.RGBAAt(50, 50).G, "center stays clear")
	assert.NotZero(t, img.RGBAAt(70, 49).G)
	assert.NotZero(t, img.RGBAAt(29, 50).G)
	assert.Zero(t, img.RGBAAt(95, 95).G)
}

func TestDrawCircleOffCanvas(t *testing.T) {
	c := NewImageCanvas(50, 50, Background)
	before := append([]uint8(nil), c.Image().Pix...)
	c.DrawCircle(core.NewVec2(500, 500), 10, core.ColorObstacle, 2)
	c.DrawCircle(core.NewVec2(25, 25), 0, core.ColorObstacle, 2)
	assert.Equal(t, before, c.Image().Pix)
}

func TestDebugColorBlends(t *testing.T) {
	c := NewImageCanvas(40, 40, Background)
	c.DrawCircle(core.NewVec2(20, 20), 10, core.ColorDebug, 4)
	px := c.Image().RGBAAt(30, 19)
	assert.NotZero(t, px.R)
	assert.Less(t, px.R, uint8(32), "translucent overlay only tints the background")
}

func TestEncodePNG(t *testing.T) {
	c := NewImageCanvas(32, 16, Background)
	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}
