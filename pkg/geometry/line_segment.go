package geometry

import (
	"math"

	"github.com/df07/go-optics-engine/pkg/core"
)

// LineSegment represents a finite two-sided mirror line.
// The segment is centered at Center and runs perpendicular to Direction,
// which doubles as its face normal.
type LineSegment struct {
	Center    core.Vec2
	Direction core.Vec2 // Unit face normal
	Length    float64
}

// NewLineSegment creates a new line segment, normalizing its direction
func NewLineSegment(center, direction core.Vec2, length float64) *LineSegment {
	return &LineSegment{
		Center:    center,
		Direction: direction.Normalize(),
		Length:    length,
	}
}

// AlongDirection returns the unit axis the segment runs along
func (l *LineSegment) AlongDirection() core.Vec2 {
	return l.Direction.Perpendicular().Normalize()
}

// Corners returns both endpoints of the segment
func (l *LineSegment) Corners() (core.Vec2, core.Vec2) {
	half := l.AlongDirection().Multiply(l.Length / 2)
	return l.Center.Add(half), l.Center.Subtract(half)
}

// faceNormal returns Direction flipped toward the side of relative
func (l *LineSegment) faceNormal(relative core.Vec2) core.Vec2 {
	if relative.Dot(l.Direction) < 0 {
		return l.Direction.Negate()
	}
	return l.Direction
}

// SignedDistance returns the minimum of both corner distances and the planar face distance.
// The face term only applies while p projects strictly inside the segment's extent.
func (l *LineSegment) SignedDistance(p core.Vec2) float64 {
	cornerA, cornerB := l.Corners()
	relative := p.Subtract(l.Center)

	faceDist := math.Inf(1)
	along := l.AlongDirection().Dot(relative)
	if along < l.Length/2 && along > -l.Length/2 {
		faceDist = l.faceNormal(relative).Dot(relative)
	}

	return math.Min(math.Min(cornerA.Subtract(p).Length(), cornerB.Subtract(p).Length()), faceDist)
}

// NormalAt returns Direction flipped to face p, judged relative to the segment center
func (l *LineSegment) NormalAt(p core.Vec2) core.Vec2 {
	return l.faceNormal(p.Subtract(l.Center))
}

// Render draws the segment between its corners
func (l *LineSegment) Render(canvas core.Canvas) {
	cornerA, cornerB := l.Corners()
	canvas.DrawLine(cornerA, cornerB, core.ColorObstacle, 2)
}

// Controls returns drag, direction and two length controls (one per end)
func (l *LineSegment) Controls() []Control {
	return []Control{
		{Kind: ControlDrag},
		{Kind: ControlDirection, LengthFactor: DefaultDirectionLength},
		{Kind: ControlRadius, Index: 0, Factor: 2},
		{Kind: ControlRadius, Index: 1, Factor: 2},
	}
}

// lengthControlAngle places the length controls on the two ends of the segment
func (l *LineSegment) lengthControlAngle(index int) float64 {
	if index == 0 {
		return -math.Atan2(l.Direction.X, l.Direction.Y)
	}
	return 1.5*math.Pi - math.Atan2(l.Direction.Y, -l.Direction.X)
}

// ControlPosition resolves a control against the current segment
func (l *LineSegment) ControlPosition(ctrl Control) core.Vec2 {
	switch ctrl.Kind {
	case ControlDirection:
		return DirectionHandle(l.Center, l.Direction, ctrl.LengthFactor)
	case ControlRadius:
		return RadiusHandle(l.Center, l.Length, ctrl.Factor, l.lengthControlAngle(ctrl.Index))
	default:
		return l.Center
	}
}

// ApplyControl moves, rotates or resizes the segment.
// A direction update that collapses to the zero vector is ignored.
func (l *LineSegment) ApplyControl(ctrl Control, p core.Vec2) {
	switch ctrl.Kind {
	case ControlDrag:
		l.Center = p
	case ControlDirection:
		if dir := DirectionFromHandle(l.Center, p); dir.LengthSquared() > 0 {
			l.Direction = dir
		}
	case ControlRadius:
		l.Length = SizeFromHandle(l.Center, p, ctrl.Factor)
	}
}
