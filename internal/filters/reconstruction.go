package filters

import "github.com/dstrand/ffbcore/internal/rt"

// Reconstruction smooths a lower-rate telemetry input by averaging over a
// ring of the last `level` samples, anti-aliasing the steppy input signal
// before the rest of the pipeline sees it.
type Reconstruction struct {
	level int
	ring  []float32
	pos   int
	count int
	sum   float32
}

// NewReconstruction constructs a Reconstruction node. level must be in
// [1,8]; level 0 means the node is disabled and the compiler omits it
// entirely rather than constructing one.
func NewReconstruction(level uint8) *Reconstruction {
	return &Reconstruction{
		level: int(level),
		ring:  make([]float32, level),
	}
}

func (r *Reconstruction) Step(f *rt.Frame) {
	evicted := r.ring[r.pos]
	r.ring[r.pos] = f.TorqueOut
	r.pos = (r.pos + 1) % r.level
	if r.count < r.level {
		r.count++
		r.sum += f.TorqueOut
	} else {
		r.sum += f.TorqueOut - evicted
	}
	f.TorqueOut = substituteOnNonFinite(f, r.sum/float32(r.count))
}
