package interaction

import "github.com/df07/go-optics-engine/pkg/core"

// Interaction is the optical behavior applied when a ray reaches a surface.
// Implementations mutate the ray in place and must not hold per-ray state,
// since one interaction may serve several rays marched concurrently.
type Interaction interface {
	Interact(ray *core.Ray, normal, hitPoint core.Vec2)
}
