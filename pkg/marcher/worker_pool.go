package marcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/scene"
)

// rayTask is one ray queued for a worker
type rayTask struct {
	Index int // Slot in the result slice, preserves deterministic ordering
	Ray   core.Ray
}

// workerPool fans rays out over a fixed number of workers
type workerPool struct {
	marcher    *Marcher
	numWorkers int
}

func newWorkerPool(m *Marcher, numWorkers int) *workerPool {
	return &workerPool{marcher: m, numWorkers: numWorkers}
}

// march runs every ray and returns the paths in input order.
// Each worker owns its ray copy and writes to its own result slot.
func (wp *workerPool) march(ctx context.Context, rays []core.Ray, objects []*scene.Object) ([]RayPath, error) {
	paths := make([]RayPath, len(rays))
	tasks := make(chan rayTask)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tasks)
		for i, ray := range rays {
			select {
			case tasks <- rayTask{Index: i, Ray: ray}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < wp.numWorkers; w++ {
		g.Go(func() error {
			for task := range tasks {
				if err := gctx.Err(); err != nil {
					return err
				}
				paths[task.Index] = wp.marcher.MarchRay(task.Ray, objects)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
