package curve

import "github.com/dstrand/ffbcore/internal/constants"

// LUT is a fixed-size, immutable lookup table mapping [0,1] -> [0,1]. It is
// the only curve representation the RT worker is allowed to evaluate:
// Lookup performs no allocation, branching is bounded, and it never calls
// into Spec.Evaluate.
type LUT struct {
	table [constants.CurveLUTSize]float32
}

// Bytes returns the table contents as a flat slice, used by the pipeline
// compiler's config_hash computation to fold curve contents into the hash.
func (l *LUT) Bytes() []float32 {
	return l.table[:]
}

// Lookup performs linear interpolation between the two nearest LUT entries
// for the given input, clamped to [0,1]. RT-safe: O(1), no allocation.
func (l *LUT) Lookup(input float32) float32 {
	if input <= 0 {
		return l.table[0]
	}
	if input >= 1 {
		return l.table[len(l.table)-1]
	}
	scaled := input * float32(len(l.table)-1)
	lo := int(scaled)
	hi := lo + 1
	if hi >= len(l.table) {
		return l.table[lo]
	}
	frac := scaled - float32(lo)
	return l.table[lo] + frac*(l.table[hi]-l.table[lo])
}
