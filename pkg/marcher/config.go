package marcher

import "runtime"

// Config contains the parameters of the marching engine
type Config struct {
	Width              float64 // Width of the simulation area
	Height             float64 // Height of the simulation area
	OutOfBoundsPadding float64 // Distance past the area edges a ray may travel before escaping
	StepTolerance      float64 // Minimum step length; distances below it trigger interactions
	MaxIterations      int     // Maximum number of steps per ray
	EmptySceneLength   float64 // Length of the single segment drawn when there are no obstacles
	NumWorkers         int     // Number of parallel workers (1 = sequential, 0 = use CPU count)
	RecordSteps        bool    // Keep every march sample for the debug overlay
}

// DefaultConfig returns the standard engine parameters
func DefaultConfig() Config {
	return Config{
		Width:              1280,
		Height:             720,
		OutOfBoundsPadding: 100,
		StepTolerance:      1.0,
		MaxIterations:      1000,
		EmptySceneLength:   1000,
		NumWorkers:         1,
		RecordSteps:        false,
	}
}

// workers resolves the effective worker count
func (c Config) workers() int {
	if c.NumWorkers <= 0 {
		return runtime.NumCPU()
	}
	return c.NumWorkers
}
