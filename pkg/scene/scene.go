package scene

import (
	"errors"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
	"github.com/df07/go-optics-engine/pkg/interaction"
)

var (
	// ErrUnknownScene is returned when a scene name resolves to nothing
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidScene is returned when a scene description cannot be built
	ErrInvalidScene = errors.New("invalid scene")
	// ErrInvalidHandle is returned when a handle no longer points at a scene element
	ErrInvalidHandle = errors.New("invalid handle")
)

// Object pairs a hitbox with the interaction applied when a ray reaches it
type Object struct {
	Hitbox      geometry.Hitbox
	Interaction interaction.Interaction
	Static      bool // Static objects are excluded from editing; the march ignores this flag
}

// Scene contains the emitters and obstacles of a simulation.
// Both collections keep insertion order and may be edited between frames.
type Scene struct {
	Name     string
	Emitters []*Emitter
	Objects  []*Object
}

// NewScene creates an empty scene
func NewScene(name string) *Scene {
	return &Scene{
		Name:     name,
		Emitters: make([]*Emitter, 0),
		Objects:  make([]*Object, 0),
	}
}

// AddEmitter appends a new emitter to the scene
func (s *Scene) AddEmitter(position, direction core.Vec2, width, angleSpread float64, rayCount int, isStatic bool) *Emitter {
	emitter := NewEmitter(position, direction, width, angleSpread, rayCount, isStatic)
	s.Emitters = append(s.Emitters, emitter)
	return emitter
}

// AddObject appends a new obstacle to the scene
func (s *Scene) AddObject(hitbox geometry.Hitbox, inter interaction.Interaction, isStatic bool) *Object {
	object := &Object{Hitbox: hitbox, Interaction: inter, Static: isStatic}
	s.Objects = append(s.Objects, object)
	return object
}

// RayCount returns the number of rays generated per frame across all emitters
func (s *Scene) RayCount() int {
	count := 0
	for _, e := range s.Emitters {
		count += len(e.Rays())
	}
	return count
}

// Render draws emitter and obstacle outlines
func (s *Scene) Render(canvas core.Canvas) {
	for _, e := range s.Emitters {
		e.Render(canvas)
	}
	for _, o := range s.Objects {
		o.Hitbox.Render(canvas)
	}
}
