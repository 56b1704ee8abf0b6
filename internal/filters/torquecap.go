package filters

import "github.com/dstrand/ffbcore/internal/rt"

// TorqueCap saturates the output magnitude to at most cap. It is the last
// amplitude-clamping stage before side-effects; bumpstop may add on top
// but is itself re-clamped into range.
type TorqueCap struct {
	cap float32
}

// NewTorqueCap constructs a TorqueCap node. cap >= 1.0 means uncapped and
// the compiler omits the node.
func NewTorqueCap(cap float32) *TorqueCap {
	return &TorqueCap{cap: cap}
}

func (n *TorqueCap) Step(f *rt.Frame) {
	f.TorqueOut = substituteOnNonFinite(f, Clamp(f.TorqueOut, -n.cap, n.cap))
}

// Clamp bounds v to [lo, hi]; shared by TorqueCap and Bumpstop's
// re-clamp-into-range step.
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
