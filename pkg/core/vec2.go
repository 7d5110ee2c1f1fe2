package core

import "math"

// normalizeEpsilon is the length below which a vector is treated as zero
const normalizeEpsilon = 1e-6

// DefaultWavelength is the wavelength (nm) assigned to freshly created rays
const DefaultWavelength = 630.0

// Vec2 represents a 2D vector
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Subtract returns the difference of two vectors
func (v Vec2) Subtract(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Multiply returns the vector scaled by a scalar
func (v Vec2) Multiply(scalar float64) Vec2 {
	return Vec2{v.X * scalar, v.Y * scalar}
}

// Negate returns the negative of the vector
func (v Vec2) Negate() Vec2 {
	return Vec2{-v.X, -v.Y}
}

// Length returns the magnitude of the vector
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Dot returns the dot product of two vectors
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Perpendicular returns the vector rotated a quarter turn clockwise: (y, -x)
func (v Vec2) Perpendicular() Vec2 {
	return Vec2{v.Y, -v.X}
}

// Normalize returns a unit vector in the same direction.
// Vectors shorter than 1e-6 collapse to the zero vector and unit vectors are returned as-is.
func (v Vec2) Normalize() Vec2 {
	length := v.Length()
	if length == 1 {
		return v
	}
	if length < normalizeEpsilon {
		return Vec2{0, 0}
	}
	return Vec2{v.X / length, v.Y / length}
}

// IsFinite reports whether both components are neither NaN nor infinite
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Equals checks if two vectors are equal within a small tolerance
func (v Vec2) Equals(other Vec2) bool {
	const tolerance = 1e-9
	return math.Abs(v.X-other.X) < tolerance && math.Abs(v.Y-other.Y) < tolerance
}

// Ray represents a light ray with an origin, a unit direction and a wavelength tag
type Ray struct {
	Origin     Vec2
	Direction  Vec2
	Wavelength float64 // Informational only; no interaction reads it yet
}

// NewRay creates a new ray with a normalized direction and the default wavelength
func NewRay(origin, direction Vec2) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize(), Wavelength: DefaultWavelength}
}

// At returns the point at distance t along the ray
func (r Ray) At(t float64) Vec2 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Segment is a straight piece of a ray path
type Segment struct {
	From Vec2 `json:"from" yaml:"from"`
	To   Vec2 `json:"to" yaml:"to"`
}

// Length returns the length of the segment
func (s Segment) Length() float64 {
	return s.To.Subtract(s.From).Length()
}
