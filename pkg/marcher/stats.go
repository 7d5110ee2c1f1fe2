package marcher

import "time"

// FrameStats contains statistics about one marched frame
type FrameStats struct {
	Rays       int           `json:"rays"`       // Total number of rays marched
	Segments   int           `json:"segments"`   // Total number of segments produced
	Events     int           `json:"events"`     // Total number of interactions
	Iterations int           `json:"iterations"` // Sum of march iterations over all rays
	Escaped    int           `json:"escaped"`
	Capped     int           `json:"capped"`
	Penetrated int           `json:"penetrated"`
	NoObjects  int           `json:"noObjects"`
	Workers    int           `json:"workers"`  // Workers used for the frame
	Duration   time.Duration `json:"duration"` // Wall time of the march
}

// Add folds a ray path into the statistics
func (s *FrameStats) Add(p RayPath) {
	s.Rays++
	s.Segments += len(p.Segments)
	s.Events += len(p.Events)
	s.Iterations += p.Iterations
	switch p.Termination {
	case Escaped:
		s.Escaped++
	case Capped:
		s.Capped++
	case Penetrated:
		s.Penetrated++
	case NoObjects:
		s.NoObjects++
	}
}

// AverageIterations returns the mean number of iterations per ray
func (s FrameStats) AverageIterations() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.Iterations) / float64(s.Rays)
}
