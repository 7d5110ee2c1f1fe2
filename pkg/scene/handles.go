package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
)

// MinSelectDistance is how close a pointer must be to grab a control point
const MinSelectDistance = 50.0

// TargetKind names the scene collection a handle points into
type TargetKind int

const (
	EmitterTarget TargetKind = iota
	ObjectTarget
)

func (k TargetKind) String() string {
	if k == EmitterTarget {
		return "emitter"
	}
	return "object"
}

// Handle addresses one control point by collection, index and control.
// Handles are resolved through the scene on every use, so they never
// outlive a reallocation of the underlying slices.
type Handle struct {
	Target  TargetKind       `json:"target"`
	Index   int              `json:"index"`
	Control geometry.Control `json:"control"`
}

// controllable is the editing surface shared by emitters and hitboxes
type controllable interface {
	Controls() []geometry.Control
	ControlPosition(c geometry.Control) core.Vec2
	ApplyControl(c geometry.Control, p core.Vec2)
}

func (s *Scene) resolve(h Handle) (controllable, error) {
	switch h.Target {
	case EmitterTarget:
		if h.Index < 0 || h.Index >= len(s.Emitters) {
			return nil, fmt.Errorf("%w: emitter %d of %d", ErrInvalidHandle, h.Index, len(s.Emitters))
		}
		return s.Emitters[h.Index], nil
	case ObjectTarget:
		if h.Index < 0 || h.Index >= len(s.Objects) {
			return nil, fmt.Errorf("%w: object %d of %d", ErrInvalidHandle, h.Index, len(s.Objects))
		}
		return s.Objects[h.Index].Hitbox, nil
	default:
		return nil, fmt.Errorf("%w: target %d", ErrInvalidHandle, h.Target)
	}
}

// isStatic reports whether a resolved handle points at a static element
func (s *Scene) isStatic(h Handle) bool {
	if h.Target == EmitterTarget {
		return s.Emitters[h.Index].Static
	}
	return s.Objects[h.Index].Static
}

// Handles lists the control points of every non-static emitter and object
func (s *Scene) Handles() []Handle {
	var handles []Handle
	for i, e := range s.Emitters {
		if e.Static {
			continue
		}
		for _, c := range e.Controls() {
			handles = append(handles, Handle{Target: EmitterTarget, Index: i, Control: c})
		}
	}
	for i, o := range s.Objects {
		if o.Static {
			continue
		}
		for _, c := range o.Hitbox.Controls() {
			handles = append(handles, Handle{Target: ObjectTarget, Index: i, Control: c})
		}
	}
	return handles
}

// HandlePosition returns the current position of a control point
func (s *Scene) HandlePosition(h Handle) (core.Vec2, error) {
	target, err := s.resolve(h)
	if err != nil {
		return core.Vec2{}, err
	}
	return target.ControlPosition(h.Control), nil
}

// ApplyHandle moves a control point, updating the parameter behind it.
// Static elements reject edits.
func (s *Scene) ApplyHandle(h Handle, p core.Vec2) error {
	target, err := s.resolve(h)
	if err != nil {
		return err
	}
	if s.isStatic(h) {
		return fmt.Errorf("%w: %s %d is static", ErrInvalidHandle, h.Target, h.Index)
	}
	target.ApplyControl(h.Control, p)
	return nil
}

// Nearest returns the handle closest to p within MinSelectDistance
func (s *Scene) Nearest(p core.Vec2) (Handle, bool) {
	best := Handle{}
	bestDist := math.Inf(1)
	for _, h := range s.Handles() {
		pos, err := s.HandlePosition(h)
		if err != nil {
			continue
		}
		dist := pos.Subtract(p).Length()
		if dist < bestDist && dist < MinSelectDistance {
			best, bestDist = h, dist
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// RenderHandles draws a marker on every editable control point
func (s *Scene) RenderHandles(canvas core.Canvas, markerRadius float64) {
	for _, h := range s.Handles() {
		if pos, err := s.HandlePosition(h); err == nil {
			canvas.DrawCircle(pos, markerRadius, core.ColorControl, 2)
		}
	}
}

// Selector tracks a press-drag-release editing gesture over a scene.
// A grab belongs to the scene it was made on.
type Selector struct {
	pressed bool
	active  *Handle
	scene   *Scene
}

// NewSelector creates an idle selector
func NewSelector() *Selector {
	return &Selector{}
}

// Update feeds the current pointer state. A fresh press grabs the nearest
// handle, holding moves it and releasing lets go.
func (sel *Selector) Update(s *Scene, pointer core.Vec2, pressed bool) error {
	sel.Bind(s)
	if pressed && !sel.pressed {
		if h, ok := s.Nearest(pointer); ok {
			sel.active = &h
		}
	}
	sel.pressed = pressed
	if !pressed {
		sel.active = nil
		return nil
	}

	if sel.active == nil {
		return nil
	}
	if err := s.ApplyHandle(*sel.active, pointer); err != nil {
		sel.active = nil
		return err
	}
	return nil
}

// Bind attaches the selector to s. Switching to another scene drops the
// current grab; a button still held stays inert until it is pressed again.
func (sel *Selector) Bind(s *Scene) {
	if sel.scene != s {
		sel.scene = s
		sel.active = nil
	}
}

// Active returns the handle currently being dragged
func (sel *Selector) Active() (Handle, bool) {
	if sel.active == nil {
		return Handle{}, false
	}
	return *sel.active, true
}

// Pressed reports whether the pointer is held down
func (sel *Selector) Pressed() bool {
	return sel.pressed
}
