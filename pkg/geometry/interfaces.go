package geometry

import "github.com/df07/go-optics-engine/pkg/core"

// Hitbox is a surface that rays can be marched against
type Hitbox interface {
	// SignedDistance returns the distance from p to the surface (negative inside)
	SignedDistance(p core.Vec2) float64

	// NormalAt returns a unit surface normal for the query point p
	NormalAt(p core.Vec2) core.Vec2

	// Render draws the outline of the hitbox
	Render(canvas core.Canvas)

	// Controls lists the selectable control points exposed to editors
	Controls() []Control

	// ControlPosition resolves a control to its current position
	ControlPosition(c Control) core.Vec2

	// ApplyControl back-solves the parameter behind a control from a new position
	ApplyControl(c Control, p core.Vec2)
}
