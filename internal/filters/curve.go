package filters

import (
	"github.com/dstrand/ffbcore/internal/curve"
	"github.com/dstrand/ffbcore/internal/rt"
)

// Curve remaps the pipeline's running output through a pre-compiled
// response-curve LUT. The curve operates on a normalized [-1,1] signal by
// mapping magnitude through the [0,1] LUT and restoring sign, since
// FilterConfig.curve_points are specified in [0,1].
type Curve struct {
	lut *curve.LUT
}

// NewCurve constructs a Curve node from a compiled LUT.
func NewCurve(lut *curve.LUT) *Curve {
	return &Curve{lut: lut}
}

func (n *Curve) Step(f *rt.Frame) {
	x := f.TorqueOut
	mag := x
	s := float32(1)
	if mag < 0 {
		mag = -mag
		s = -1
	}
	if mag > 1 {
		mag = 1
	}
	f.TorqueOut = substituteOnNonFinite(f, s*n.lut.Lookup(mag))
}
