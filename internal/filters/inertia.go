package filters

import "github.com/dstrand/ffbcore/internal/rt"

// Inertia applies acceleration-proportional opposition, resisting changes
// in wheel velocity rather than velocity itself.
type Inertia struct {
	gain           float32
	priorVelocity  float32
}

// NewInertia constructs an Inertia node. gain == 0 disables the node.
func NewInertia(gain float32) *Inertia {
	return &Inertia{gain: gain}
}

func (n *Inertia) Step(f *rt.Frame) {
	accel := f.WheelSpeed - n.priorVelocity
	n.priorVelocity = f.WheelSpeed
	f.TorqueOut = substituteOnNonFinite(f, f.TorqueOut-n.gain*accel)
}
