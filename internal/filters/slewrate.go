package filters

import "github.com/dstrand/ffbcore/internal/rt"

// SlewRate caps the per-tick change in output magnitude, smoothing sudden
// torque steps.
type SlewRate struct {
	maxDelta   float32
	priorOutput float32
	primed      bool
}

// NewSlewRate constructs a SlewRate node. maxDelta >= 1.0 means uncapped
// and the compiler omits the node entirely.
func NewSlewRate(maxDelta float32) *SlewRate {
	return &SlewRate{maxDelta: maxDelta}
}

func (n *SlewRate) Step(f *rt.Frame) {
	if !n.primed {
		n.primed = true
		n.priorOutput = f.TorqueOut
		return
	}
	delta := f.TorqueOut - n.priorOutput
	if delta > n.maxDelta {
		delta = n.maxDelta
	} else if delta < -n.maxDelta {
		delta = -n.maxDelta
	}
	out := n.priorOutput + delta
	n.priorOutput = out
	f.TorqueOut = substituteOnNonFinite(f, out)
}
