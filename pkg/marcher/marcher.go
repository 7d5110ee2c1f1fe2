package marcher

import (
	"context"
	"math"
	"time"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/scene"
)

// Frame is the result of marching every ray of a scene once
type Frame struct {
	Paths []RayPath  // Emitter order, then ray order within each emitter
	Stats FrameStats // Aggregated counts over all paths
}

// Segments flattens the segments of every path in order
func (f *Frame) Segments() []core.Segment {
	total := 0
	for _, p := range f.Paths {
		total += len(p.Segments)
	}
	segments := make([]core.Segment, 0, total)
	for _, p := range f.Paths {
		segments = append(segments, p.Segments...)
	}
	return segments
}

// Marcher traces rays through a scene by sphere tracing its signed distance fields
type Marcher struct {
	config Config
	logger core.Logger
}

type nopLogger struct{}

func (nopLogger) Printf(format string, args ...interface{}) {}

// NewMarcher creates a marcher. A nil logger discards output.
func NewMarcher(config Config, logger core.Logger) *Marcher {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Marcher{config: config, logger: logger}
}

// Config returns the engine parameters
func (m *Marcher) Config() Config {
	return m.config
}

// SetRecordSteps toggles recording of march samples for the debug overlay
func (m *Marcher) SetRecordSteps(record bool) {
	m.config.RecordSteps = record
}

// inBounds reports whether p lies inside the padded simulation area
func (m *Marcher) inBounds(p core.Vec2) bool {
	pad := m.config.OutOfBoundsPadding
	return p.X >= -pad && p.X <= m.config.Width+pad &&
		p.Y >= -pad && p.Y <= m.config.Height+pad
}

// MarchRay marches a single ray through the obstacles until it escapes,
// runs out of iterations or ends up inside an obstacle. The ray is copied;
// the obstacles are only read.
func (m *Marcher) MarchRay(ray core.Ray, objects []*scene.Object) RayPath {
	path := RayPath{Ray: ray}

	if len(objects) == 0 {
		end := ray.At(m.config.EmptySceneLength)
		path.Segments = []core.Segment{{From: ray.Origin, To: end}}
		path.Termination = NoObjects
		return path
	}

	tol := m.config.StepTolerance
	pos := ray.Origin
	lastEvent := ray.Origin
	internalCollision := false
	distances := make([]float64, len(objects))

	for m.inBounds(pos) && path.Iterations < m.config.MaxIterations && !internalCollision {
		minDist := math.Inf(1)
		for i, o := range objects {
			distances[i] = o.Hitbox.SignedDistance(pos)
			minDist = math.Min(minDist, distances[i])
		}

		for i, o := range objects {
			dist := distances[i]
			if dist >= tol {
				continue
			}

			path.Segments = append(path.Segments, core.Segment{From: lastEvent, To: pos})

			normal := o.Hitbox.NormalAt(pos)
			incoming := ray.Direction
			o.Interaction.Interact(&ray, normal, pos)
			path.Events = append(path.Events, Event{
				Object:   i,
				Position: pos,
				Normal:   normal,
				Incoming: incoming,
				Outgoing: ray.Direction,
				Distance: dist,
			})

			lastEvent = pos
			if dist < -tol {
				internalCollision = true
			}
		}

		step := math.Max(minDist, tol)
		if m.config.RecordSteps {
			path.Steps = append(path.Steps, Step{Position: pos, Length: step})
		}
		pos = pos.Add(ray.Direction.Multiply(step))
		path.Iterations++
	}

	path.Segments = append(path.Segments, core.Segment{From: lastEvent, To: pos})

	switch {
	case internalCollision:
		path.Termination = Penetrated
	case !m.inBounds(pos):
		path.Termination = Escaped
	default:
		path.Termination = Capped
	}
	return path
}

// MarchScene marches every ray of every emitter. Paths keep emitter order and
// ray order regardless of the worker count. Cancellation is checked between rays.
func (m *Marcher) MarchScene(ctx context.Context, s *scene.Scene) (*Frame, error) {
	start := time.Now()

	var rays []core.Ray
	for _, e := range s.Emitters {
		rays = append(rays, e.Rays()...)
	}
	objects := s.Objects

	workers := m.config.workers()
	if workers > len(rays) {
		workers = len(rays)
	}

	var paths []RayPath
	var err error
	if workers <= 1 {
		workers = 1
		paths, err = m.marchSequential(ctx, rays, objects)
	} else {
		paths, err = newWorkerPool(m, workers).march(ctx, rays, objects)
	}
	if err != nil {
		return nil, err
	}

	frame := &Frame{Paths: paths}
	for _, p := range paths {
		frame.Stats.Add(p)
	}
	frame.Stats.Workers = workers
	frame.Stats.Duration = time.Since(start)

	m.logger.Printf("Marched %d rays into %d segments in %v (%d workers, %d escaped, %d capped, %d penetrated)\n",
		frame.Stats.Rays, frame.Stats.Segments, frame.Stats.Duration, workers,
		frame.Stats.Escaped, frame.Stats.Capped, frame.Stats.Penetrated)
	return frame, nil
}

func (m *Marcher) marchSequential(ctx context.Context, rays []core.Ray, objects []*scene.Object) ([]RayPath, error) {
	paths := make([]RayPath, len(rays))
	for i, ray := range rays {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths[i] = m.MarchRay(ray, objects)
	}
	return paths, nil
}
