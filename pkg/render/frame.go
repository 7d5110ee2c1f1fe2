package render

import (
	"io"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/scene"
)

// Background is the clear color of rendered frames
var Background = core.Color{R: 0, G: 0, B: 0, A: 255}

// Options selects the overlays drawn on top of a frame
type Options struct {
	Debug        bool    // Draw a circle at every recorded march sample
	Handles      bool    // Draw markers on editable control points
	RayWidth     float64 // Stroke width of ray segments
	MarkerRadius float64 // Radius of control point markers
}

// DefaultOptions returns the standard overlay settings
func DefaultOptions() Options {
	return Options{
		Handles:      true,
		RayWidth:     1,
		MarkerRadius: 6,
	}
}

// DrawFrame draws the marched rays, then the scene outlines and overlays
func DrawFrame(canvas core.Canvas, s *scene.Scene, frame *marcher.Frame, opts Options) {
	if frame != nil {
		for _, path := range frame.Paths {
			for _, seg := range path.Segments {
				canvas.DrawLine(seg.From, seg.To, core.ColorRay, opts.RayWidth)
			}
		}

		if opts.Debug {
			for _, path := range frame.Paths {
				for _, step := range path.Steps {
					if r := step.Length - 2; r > 0 {
						canvas.DrawCircle(step.Position, r, core.ColorDebug, 1)
					}
				}
			}
		}
	}

	s.Render(canvas)

	if opts.Handles {
		s.RenderHandles(canvas, opts.MarkerRadius)
	}
}

// WritePNG renders a frame into a new image and encodes it as PNG
func WritePNG(w io.Writer, width, height int, s *scene.Scene, frame *marcher.Frame, opts Options) error {
	canvas := NewImageCanvas(width, height, Background)
	DrawFrame(canvas, s, frame, opts)
	return canvas.EncodePNG(w)
}
