package core

// Logger interface for marcher and host logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Color is an 8-bit RGBA color used by render collaborators
type Color struct {
	R, G, B, A uint8
}

// Colors used by the default outlines and ray paths
var (
	ColorRay      = Color{255, 0, 0, 255}
	ColorObstacle = Color{0, 0, 255, 255}
	ColorEmitter  = Color{255, 255, 255, 255}
	ColorControl  = Color{0, 255, 0, 255}
	ColorDebug    = Color{255, 255, 255, 10}
)

// Canvas is the drawing contract consumed by hitboxes, emitters and the frame renderer.
// Coordinates are in scene units; implementations map them to their own surface.
type Canvas interface {
	DrawLine(from, to Vec2, color Color, width float64)
	DrawCircle(center Vec2, radius float64, color Color, width float64)
}
