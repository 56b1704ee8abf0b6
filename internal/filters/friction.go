package filters

import "github.com/dstrand/ffbcore/internal/rt"

// Friction applies a velocity-independent drag bias opposing the current
// wheel direction.
type Friction struct {
	gain float32
}

// NewFriction constructs a Friction node. gain == 0 disables the node and
// the compiler omits it.
func NewFriction(gain float32) *Friction {
	return &Friction{gain: gain}
}

func (n *Friction) Step(f *rt.Frame) {
	bias := -n.gain * sign(f.WheelSpeed)
	f.TorqueOut = substituteOnNonFinite(f, f.TorqueOut+bias)
}

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
