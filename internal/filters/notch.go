package filters

import (
	"math"

	"github.com/dstrand/ffbcore/internal/rt"
)

// Notch is a peaking/notch biquad stage computed from {freq, Q, gain_dB}
// using the standard RBJ peaking-EQ coefficient formulas at the fixed
// 1kHz tick rate, run in Direct Form II Transposed (the standard
// low-state-count form: two delay registers, no separate input history).
type Notch struct {
	b0, b1, b2 float32
	a1, a2     float32
	z1, z2     float32 // two-sample delay line
}

// NewNotch constructs a Notch node for the given frequency (Hz), Q factor,
// and gain (dB), sampled at sampleRateHz.
func NewNotch(freqHz, q, gainDB, sampleRateHz float32) *Notch {
	a := math.Pow(10, float64(gainDB)/40)
	w0 := 2 * math.Pi * float64(freqHz) / float64(sampleRateHz)
	alpha := math.Sin(w0) / (2 * float64(q))
	cosw0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw0
	a2 := 1 - alpha/a

	return &Notch{
		b0: float32(b0 / a0),
		b1: float32(b1 / a0),
		b2: float32(b2 / a0),
		a1: float32(a1 / a0),
		a2: float32(a2 / a0),
	}
}

func (n *Notch) Step(f *rt.Frame) {
	x := f.TorqueOut
	y := n.b0*x + n.z1
	n.z1 = n.b1*x + n.z2 - n.a1*y
	n.z2 = n.b2*x - n.a2*y
	f.TorqueOut = substituteOnNonFinite(f, y)
}
