package interaction

import "github.com/df07/go-optics-engine/pkg/core"

// Reflection mirrors the ray direction about the surface normal
type Reflection struct{}

// NewReflection creates a new reflection interaction
func NewReflection() *Reflection {
	return &Reflection{}
}

// Interact replaces the ray direction with its mirror image; the position is left untouched
func (r *Reflection) Interact(ray *core.Ray, normal, hitPoint core.Vec2) {
	ray.Direction = Reflect(ray.Direction, normal).Normalize()
}

// Reflect calculates the reflection of a vector v off a surface with normal n
func Reflect(v, n core.Vec2) core.Vec2 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}
