package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
	"github.com/df07/go-optics-engine/pkg/interaction"
)

// Builder creates a builtin scene sized for the given bounds
type Builder func(width, height float64) *Scene

// builtins lists the scenes that ship with the engine
var builtins = map[string]struct {
	build       Builder
	description string
}{
	"default":  {NewDefaultScene, "Single ray aimed at a reflective circle"},
	"mirror":   {NewMirrorScene, "Default scene plus a tilted line mirror behind the emitter"},
	"fan":      {NewFanScene, "Wide emitter fanning rays across circles and mirrors"},
	"corridor": {NewCorridorScene, "Ray bouncing between two parallel mirrors until the iteration cap"},
	"empty":    {NewEmptyScene, "Emitter with no obstacles"},
}

// BuiltinNames returns the builtin scene names in sorted order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBuiltin creates a builtin scene by name
func NewBuiltin(name string, width, height float64) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return b.build(width, height), nil
}

// NewDefaultScene creates a scene with one ray fired at a reflective circle
func NewDefaultScene(width, height float64) *Scene {
	s := NewScene("default")
	center := core.NewVec2(width/2, height/2)

	s.AddEmitter(center, core.NewVec2(1, 0), 10, 0, 1, false)
	s.AddObject(
		geometry.NewCircle(center.Add(core.NewVec2(400, 0)), 50),
		interaction.NewReflection(),
		false,
	)
	return s
}

// NewMirrorScene extends the default scene with a tilted line mirror
func NewMirrorScene(width, height float64) *Scene {
	s := NewDefaultScene(width, height)
	s.Name = "mirror"
	center := core.NewVec2(width/2, height/2)

	s.AddObject(
		geometry.NewLineSegment(center.Subtract(core.NewVec2(400, 0)), core.NewVec2(1, 1), 100),
		interaction.NewReflection(),
		false,
	)
	return s
}

// NewFanScene creates a wide emitter lighting several obstacles
func NewFanScene(width, height float64) *Scene {
	s := NewScene("fan")
	center := core.NewVec2(width/2, height/2)

	s.AddEmitter(core.NewVec2(width*0.15, height/2), core.NewVec2(1, 0), height*0.5, 0, 25, false)

	reflect := interaction.NewReflection()
	s.AddObject(geometry.NewCircle(center, height*0.12), reflect, false)
	s.AddObject(geometry.NewCircle(center.Add(core.NewVec2(width*0.25, -height*0.25)), height*0.08), reflect, false)
	s.AddObject(geometry.NewLineSegment(core.NewVec2(width*0.85, height/2), core.NewVec2(-1, 0.3), height*0.6), reflect, false)
	s.AddObject(geometry.NewLineSegment(core.NewVec2(width/2, height*0.08), core.NewVec2(0, 1), width*0.6), reflect, true)
	return s
}

// NewCorridorScene traps a ray between two parallel mirrors
func NewCorridorScene(width, height float64) *Scene {
	s := NewScene("corridor")
	mid := height / 2

	s.AddEmitter(core.NewVec2(width/2, mid), core.NewVec2(1, 0), 0, 0, 1, false)

	reflect := interaction.NewReflection()
	s.AddObject(geometry.NewLineSegment(core.NewVec2(width*0.25, mid), core.NewVec2(1, 0), height*0.8), reflect, true)
	s.AddObject(geometry.NewLineSegment(core.NewVec2(width*0.75, mid), core.NewVec2(1, 0), height*0.8), reflect, true)
	return s
}

// NewEmptyScene creates a scene with an emitter and no obstacles
func NewEmptyScene(width, height float64) *Scene {
	s := NewScene("empty")
	s.AddEmitter(core.NewVec2(width/2, height/2), core.NewVec2(1, 0), 10, 0, 1, false)
	return s
}
