package filters

import "github.com/dstrand/ffbcore/internal/rt"

// Damper applies velocity-proportional opposition: the faster the wheel
// turns, the more it resists.
type Damper struct {
	gain float32
}

// NewDamper constructs a Damper node. gain == 0 disables the node.
func NewDamper(gain float32) *Damper {
	return &Damper{gain: gain}
}

func (n *Damper) Step(f *rt.Frame) {
	f.TorqueOut = substituteOnNonFinite(f, f.TorqueOut-n.gain*f.WheelSpeed)
}
