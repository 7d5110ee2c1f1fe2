package geometry

import (
	"math"

	"github.com/df07/go-optics-engine/pkg/core"
)

// ControlKind identifies what parameter a control point edits
type ControlKind int

const (
	ControlDrag      ControlKind = iota // Moves the position
	ControlDirection                    // Rotates the direction
	ControlRadius                       // Resizes (radius or length)
)

// DefaultDirectionLength is how far a direction control sits from its origin
const DefaultDirectionLength = 150.0

func (k ControlKind) String() string {
	switch k {
	case ControlDrag:
		return "drag"
	case ControlDirection:
		return "direction"
	case ControlRadius:
		return "radius"
	default:
		return "unknown"
	}
}

// Control describes a selectable control point. It carries no reference to the
// owning element; the owner resolves it against its current state.
type Control struct {
	Kind         ControlKind `json:"kind"`
	Index        int         `json:"index"`        // Distinguishes controls of the same kind on one element
	Angle        float64     `json:"angle"`        // Placement angle for radius controls with a fixed angle
	Factor       float64     `json:"factor"`       // Size = distance * Factor for radius controls
	LengthFactor float64     `json:"lengthFactor"` // Distance of a direction control from its origin
}

// DirectionHandle returns the position of a direction control
func DirectionHandle(origin, direction core.Vec2, lengthFactor float64) core.Vec2 {
	return origin.Add(direction.Multiply(lengthFactor))
}

// DirectionFromHandle returns the unit direction pointing from origin toward p
func DirectionFromHandle(origin, p core.Vec2) core.Vec2 {
	return origin.Subtract(p).Normalize().Negate()
}

// RadiusHandle returns the position of a size control placed at angle around origin
func RadiusHandle(origin core.Vec2, size, factor, angle float64) core.Vec2 {
	return origin.Add(core.NewVec2(math.Cos(angle), math.Sin(angle)).Multiply(size / factor))
}

// SizeFromHandle back-solves a size from the handle position p
func SizeFromHandle(origin, p core.Vec2, factor float64) float64 {
	return origin.Subtract(p).Length() * factor
}
