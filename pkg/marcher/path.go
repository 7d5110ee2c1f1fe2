package marcher

import (
	"fmt"

	"github.com/df07/go-optics-engine/pkg/core"
)

// Termination explains why a ray stopped marching
type Termination int

const (
	Escaped    Termination = iota // Left the padded bounds
	Capped                        // Used up the iteration budget
	Penetrated                    // Ended up inside an obstacle
	NoObjects                     // Scene had no obstacles to march against
)

func (t Termination) String() string {
	switch t {
	case Escaped:
		return "escaped"
	case Capped:
		return "capped"
	case Penetrated:
		return "penetrated"
	case NoObjects:
		return "no-objects"
	default:
		return "unknown"
	}
}

// MarshalText encodes the termination by name
func (t Termination) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a termination name
func (t *Termination) UnmarshalText(text []byte) error {
	for _, candidate := range []Termination{Escaped, Capped, Penetrated, NoObjects} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown termination %q", text)
}

// Event records one interaction between a ray and an obstacle
type Event struct {
	Object   int       `json:"object"`   // Index of the obstacle in the scene
	Position core.Vec2 `json:"position"` // Where the interaction happened
	Normal   core.Vec2 `json:"normal"`
	Incoming core.Vec2 `json:"incoming"` // Direction before the interaction
	Outgoing core.Vec2 `json:"outgoing"` // Direction after the interaction
	Distance float64   `json:"distance"` // Signed distance to the obstacle at Position
}

// Step is one march sample: the position and the step taken from it
type Step struct {
	Position core.Vec2 `json:"position"`
	Length   float64   `json:"length"`
}

// RayPath is the result of marching a single ray
type RayPath struct {
	Ray         core.Ray       `json:"-"`
	Segments    []core.Segment `json:"segments"`
	Events      []Event        `json:"events,omitempty"`
	Iterations  int            `json:"iterations"`
	Termination Termination    `json:"termination"`
	Steps       []Step         `json:"steps,omitempty"` // Only filled when RecordSteps is set
}

// End returns the final position of the path
func (p RayPath) End() core.Vec2 {
	if len(p.Segments) == 0 {
		return p.Ray.Origin
	}
	return p.Segments[len(p.Segments)-1].To
}
