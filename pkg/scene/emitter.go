package scene

import (
	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
)

// Emitter generates a fan of parallel rays spread across a line
type Emitter struct {
	Position    core.Vec2
	Direction   core.Vec2 // Unit direction shared by every generated ray
	RayCount    int
	Width       float64 // Length of the line the rays start from
	AngleSpread float64 // Reserved; ray generation does not read it
	Static      bool
}

// NewEmitter creates a new emitter, normalizing its direction
func NewEmitter(position, direction core.Vec2, width, angleSpread float64, rayCount int, isStatic bool) *Emitter {
	return &Emitter{
		Position:    position,
		Direction:   direction.Normalize(),
		RayCount:    rayCount,
		Width:       width,
		AngleSpread: angleSpread,
		Static:      isStatic,
	}
}

// scatterAxis returns the axis rays are distributed along
func (e *Emitter) scatterAxis() core.Vec2 {
	return core.NewVec2(e.Direction.Y, -e.Direction.X)
}

// Rays generates a fresh, ordered list of rays.
// With more than one ray they are spaced evenly from one end of the emitter line to the other.
func (e *Emitter) Rays() []core.Ray {
	if e.RayCount <= 1 {
		return []core.Ray{core.NewRay(e.Position, e.Direction)}
	}

	axis := e.scatterAxis()
	start := e.Position.Subtract(axis.Multiply(e.Width / 2))

	rays := make([]core.Ray, 0, e.RayCount)
	for i := 0; i < e.RayCount; i++ {
		offset := float64(i) / float64(e.RayCount-1) * e.Width
		rays = append(rays, core.NewRay(start.Add(axis.Multiply(offset)), e.Direction))
	}
	return rays
}

// Render draws the emitter line
func (e *Emitter) Render(canvas core.Canvas) {
	along := e.scatterAxis().Normalize().Multiply(e.Width / 2)
	canvas.DrawLine(e.Position.Add(along), e.Position.Subtract(along), core.ColorEmitter, 2)
}

// Controls returns the drag and direction controls of the emitter
func (e *Emitter) Controls() []geometry.Control {
	return []geometry.Control{
		{Kind: geometry.ControlDrag},
		{Kind: geometry.ControlDirection, LengthFactor: geometry.DefaultDirectionLength},
	}
}

// ControlPosition resolves a control against the current emitter
func (e *Emitter) ControlPosition(ctrl geometry.Control) core.Vec2 {
	if ctrl.Kind == geometry.ControlDirection {
		return geometry.DirectionHandle(e.Position, e.Direction, ctrl.LengthFactor)
	}
	return e.Position
}

// ApplyControl moves or rotates the emitter
func (e *Emitter) ApplyControl(ctrl geometry.Control, p core.Vec2) {
	switch ctrl.Kind {
	case geometry.ControlDrag:
		e.Position = p
	case geometry.ControlDirection:
		if dir := geometry.DirectionFromHandle(e.Position, p); dir.LengthSquared() > 0 {
			e.Direction = dir
		}
	}
}
