package render

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/scene"
)

type countingCanvas struct {
	lines   map[core.Color]int
	circles map[core.Color]int
}

func newCountingCanvas() *countingCanvas {
	return &countingCanvas{lines: map[core.Color]int{}, circles: map[core.Color]int{}}
}

func (c *countingCanvas) DrawLine(from, to core.Vec2, color core.Color, width float64) {
	c.lines[color]++
}

func (c *countingCanvas) DrawCircle(center core.Vec2, radius float64, color core.Color, width float64) {
	c.circles[color]++
}

func march(t *testing.T, s *scene.Scene, record bool) *marcher.Frame {
	t.Helper()
	config := marcher.DefaultConfig()
	config.RecordSteps = record
	frame, err := marcher.NewMarcher(config, nil).MarchScene(context.Background(), s)
	require.NoError(t, err)
	return frame
}

func TestDrawFrame(t *testing.T) {
	s := scene.NewDefaultScene(1280, 720)
	frame := march(t, s, false)
	canvas := newCountingCanvas()

	DrawFrame(canvas, s, frame, DefaultOptions())

	assert.Equal(t, len(frame.Segments()), canvas.lines[core.ColorRay])
	assert.Equal(t, 1, canvas.lines[core.ColorEmitter])
	assert.Equal(t, 1, canvas.circles[core.ColorObstacle])
	assert.Equal(t, len(s.Handles()), canvas.circles[core.ColorControl])
	assert.Zero(t, canvas.circles[core.ColorDebug])
}

func TestDrawFrameDebugOverlay(t *testing.T) {
	s := scene.NewDefaultScene(1280, 720)
	frame := march(t, s, true)

	expected := 0
	for _, step := range frame.Paths[0].Steps {
		if step.Length > 2 {
			expected++
		}
	}
	require.NotZero(t, expected)

	canvas := newCountingCanvas()
	DrawFrame(canvas, s, frame, Options{Debug: true})
	assert.Equal(t, expected, canvas.circles[core.ColorDebug])
	assert.Zero(t, canvas.circles[core.ColorControl], "handles disabled")
}

func TestDrawFrameWithoutFrame(t *testing.T) {
	s := scene.NewMirrorScene(1280, 720)
	canvas := newCountingCanvas()
	DrawFrame(canvas, s, nil, Options{})
	assert.Zero(t, canvas.lines[core.ColorRay])
	assert.Equal(t, 1, canvas.lines[core.ColorObstacle])
}

func TestWritePNG(t *testing.T) {
	s := scene.NewFanScene(320, 180)
	frame := march(t, s, false)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, 320, 180, s, frame, DefaultOptions()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}
