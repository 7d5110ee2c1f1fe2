package scene

import (
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
	"github.com/df07/go-optics-engine/pkg/interaction"
)

// Document is the file representation of a scene
type Document struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Group       string          `json:"group,omitempty" yaml:"group,omitempty"`
	Emitters    []EmitterConfig `json:"emitters" yaml:"emitters"`
	Objects     []ObjectConfig  `json:"objects" yaml:"objects"`
}

// EmitterConfig describes one emitter
type EmitterConfig struct {
	Position    core.Vec2 `json:"position" yaml:"position"`
	Direction   core.Vec2 `json:"direction" yaml:"direction"`
	Width       float64   `json:"width" yaml:"width"`
	AngleSpread float64   `json:"angleSpread,omitempty" yaml:"angle_spread,omitempty"`
	RayCount    int       `json:"rayCount" yaml:"ray_count"`
	Static      bool      `json:"static,omitempty" yaml:"static,omitempty"`
}

// ObjectConfig describes one obstacle; exactly one of Circle or Line must be set
type ObjectConfig struct {
	Interaction string        `json:"interaction,omitempty" yaml:"interaction,omitempty"`
	Static      bool          `json:"static,omitempty" yaml:"static,omitempty"`
	Circle      *CircleConfig `json:"circle,omitempty" yaml:"circle,omitempty"`
	Line        *LineConfig   `json:"line,omitempty" yaml:"line,omitempty"`
}

// CircleConfig describes a circle hitbox
type CircleConfig struct {
	Center core.Vec2 `json:"center" yaml:"center"`
	Radius float64   `json:"radius" yaml:"radius"`
}

// LineConfig describes a line segment hitbox
type LineConfig struct {
	Center    core.Vec2 `json:"center" yaml:"center"`
	Direction core.Vec2 `json:"direction" yaml:"direction"`
	Length    float64   `json:"length" yaml:"length"`
}

// MaxRayCount bounds the rays a single emitter may fire per frame
const MaxRayCount = 100_000

// interactionNames maps file names to interaction constructors
var interactionNames = map[string]func() interaction.Interaction{
	"":           func() interaction.Interaction { return interaction.NewReflection() },
	"reflection": func() interaction.Interaction { return interaction.NewReflection() },
}

// Build turns the document into a scene
func (d Document) Build() (*Scene, error) {
	s := NewScene(d.Name)

	for i, e := range d.Emitters {
		if e.RayCount < 0 {
			return nil, fmt.Errorf("%w: emitter %d has negative ray count %d", ErrInvalidScene, i, e.RayCount)
		}
		if e.RayCount > MaxRayCount {
			return nil, fmt.Errorf("%w: emitter %d ray count %d exceeds %d", ErrInvalidScene, i, e.RayCount, MaxRayCount)
		}
		if !finite(e.Position.X, e.Position.Y, e.Direction.X, e.Direction.Y, e.Width, e.AngleSpread) {
			return nil, fmt.Errorf("%w: emitter %d has a non-finite value", ErrInvalidScene, i)
		}
		if e.Width < 0 {
			return nil, fmt.Errorf("%w: emitter %d has negative width %g", ErrInvalidScene, i, e.Width)
		}
		s.AddEmitter(e.Position, e.Direction, e.Width, e.AngleSpread, e.RayCount, e.Static)
	}

	for i, o := range d.Objects {
		newInteraction, ok := interactionNames[o.Interaction]
		if !ok {
			return nil, fmt.Errorf("%w: object %d has unknown interaction %q", ErrInvalidScene, i, o.Interaction)
		}

		var hitbox geometry.Hitbox
		switch {
		case o.Circle != nil && o.Line != nil:
			return nil, fmt.Errorf("%w: object %d declares both circle and line", ErrInvalidScene, i)
		case o.Circle != nil:
			if !finite(o.Circle.Center.X, o.Circle.Center.Y, o.Circle.Radius) {
				return nil, fmt.Errorf("%w: object %d has a non-finite value", ErrInvalidScene, i)
			}
			if o.Circle.Radius < 0 {
				return nil, fmt.Errorf("%w: object %d has negative radius %g", ErrInvalidScene, i, o.Circle.Radius)
			}
			hitbox = geometry.NewCircle(o.Circle.Center, o.Circle.Radius)
		case o.Line != nil:
			if !finite(o.Line.Center.X, o.Line.Center.Y, o.Line.Direction.X, o.Line.Direction.Y, o.Line.Length) {
				return nil, fmt.Errorf("%w: object %d has a non-finite value", ErrInvalidScene, i)
			}
			if o.Line.Length < 0 {
				return nil, fmt.Errorf("%w: object %d has negative length %g", ErrInvalidScene, i, o.Line.Length)
			}
			hitbox = geometry.NewLineSegment(o.Line.Center, o.Line.Direction, o.Line.Length)
		default:
			return nil, fmt.Errorf("%w: object %d has no hitbox", ErrInvalidScene, i)
		}

		s.AddObject(hitbox, newInteraction(), o.Static)
	}

	return s, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ToDocument captures the current state of a scene
func ToDocument(s *Scene) (Document, error) {
	doc := Document{
		Name:     s.Name,
		Emitters: make([]EmitterConfig, 0, len(s.Emitters)),
		Objects:  make([]ObjectConfig, 0, len(s.Objects)),
	}

	for _, e := range s.Emitters {
		doc.Emitters = append(doc.Emitters, EmitterConfig{
			Position:    e.Position,
			Direction:   e.Direction,
			Width:       e.Width,
			AngleSpread: e.AngleSpread,
			RayCount:    e.RayCount,
			Static:      e.Static,
		})
	}

	for i, o := range s.Objects {
		cfg := ObjectConfig{Static: o.Static}
		switch inter := o.Interaction.(type) {
		case *interaction.Reflection:
			cfg.Interaction = "reflection"
		default:
			return Document{}, fmt.Errorf("%w: object %d has unsupported interaction %T", ErrInvalidScene, i, inter)
		}

		switch hb := o.Hitbox.(type) {
		case *geometry.Circle:
			cfg.Circle = &CircleConfig{Center: hb.Center, Radius: hb.Radius}
		case *geometry.LineSegment:
			cfg.Line = &LineConfig{Center: hb.Center, Direction: hb.Direction, Length: hb.Length}
		default:
			return Document{}, fmt.Errorf("%w: object %d has unsupported hitbox %T", ErrInvalidScene, i, hb)
		}
		doc.Objects = append(doc.Objects, cfg)
	}

	return doc, nil
}

// LoadYAML decodes a scene document from a reader and builds it
func LoadYAML(r io.Reader) (*Scene, Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, Document{}, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	s, err := doc.Build()
	if err != nil {
		return nil, Document{}, err
	}
	return s, doc, nil
}

// LoadFile loads a YAML scene file
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file %s: %w", path, err)
	}
	defer f.Close()

	s, doc, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene file %s: %w", path, err)
	}
	if doc.Name == "" {
		s.Name = sceneNameFromPath(path)
	}
	return s, nil
}

// MarshalYAML encodes the current scene state as YAML
func MarshalYAML(s *Scene) ([]byte, error) {
	doc, err := ToDocument(s)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
