package geometry

import (
	"math"

	"github.com/df07/go-optics-engine/pkg/core"
)

// Circle represents a circular hitbox
type Circle struct {
	Center core.Vec2
	Radius float64
}

// NewCircle creates a new circle
func NewCircle(center core.Vec2, radius float64) *Circle {
	return &Circle{
		Center: center,
		Radius: radius,
	}
}

// SignedDistance returns |center - p| - radius
func (c *Circle) SignedDistance(p core.Vec2) float64 {
	return c.Center.Subtract(p).Length() - c.Radius
}

// NormalAt returns the unit vector from p toward the center.
// This points inward for points outside the circle; reflection is insensitive to the sign.
func (c *Circle) NormalAt(p core.Vec2) core.Vec2 {
	return c.Center.Subtract(p).Normalize()
}

// Render draws the circle outline
func (c *Circle) Render(canvas core.Canvas) {
	canvas.DrawCircle(c.Center, c.Radius, core.ColorObstacle, 2)
}

// Controls returns a drag point and three radius points spread evenly around the circle
func (c *Circle) Controls() []Control {
	controls := []Control{{Kind: ControlDrag}}
	for i := 0; i < 3; i++ {
		controls = append(controls, Control{
			Kind:   ControlRadius,
			Index:  i,
			Angle:  2 * math.Pi / 3 * float64(i),
			Factor: 1,
		})
	}
	return controls
}

// ControlPosition resolves a control against the current circle
func (c *Circle) ControlPosition(ctrl Control) core.Vec2 {
	switch ctrl.Kind {
	case ControlRadius:
		return RadiusHandle(c.Center, c.Radius, ctrl.Factor, ctrl.Angle)
	default:
		return c.Center
	}
}

// ApplyControl moves or resizes the circle
func (c *Circle) ApplyControl(ctrl Control, p core.Vec2) {
	switch ctrl.Kind {
	case ControlDrag:
		c.Center = p
	case ControlRadius:
		c.Radius = SizeFromHandle(c.Center, p, ctrl.Factor)
	}
}
