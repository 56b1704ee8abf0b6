// Package values defines the small, validated numeric newtypes the filter
// pipeline and configuration layer build on: Torque, AngleDeg, Gain,
// FrequencyHz and CurvePoint. Each constructor rejects non-finite or
// out-of-range input at the edge so the hot path never has to.
package values

import (
	"fmt"
	"math"
)

// Torque is a force-feedback torque command in newton-meters. Any finite
// value is legal; sign indicates direction.
type Torque float32

// NewTorque validates and constructs a Torque.
func NewTorque(v float32) (Torque, error) {
	if !isFinite(v) {
		return 0, fmt.Errorf("values: torque must be finite, got %v", v)
	}
	return Torque(v), nil
}

// Value returns the underlying float32.
func (t Torque) Value() float32 { return float32(t) }

// AngleDeg is a wheel rotation angle in degrees, measured from center.
type AngleDeg float32

// NewAngleDeg validates and constructs an AngleDeg.
func NewAngleDeg(v float32) (AngleDeg, error) {
	if !isFinite(v) {
		return 0, fmt.Errorf("values: angle must be finite, got %v", v)
	}
	return AngleDeg(v), nil
}

func (a AngleDeg) Value() float32 { return float32(a) }

// Gain is a unitless scaling factor constrained to [0, 1].
type Gain float32

// NewGain validates and constructs a Gain.
func NewGain(v float32) (Gain, error) {
	if !isFinite(v) || v < 0 || v > 1 {
		return 0, fmt.Errorf("values: gain must be finite in [0,1], got %v", v)
	}
	return Gain(v), nil
}

func (g Gain) Value() float32 { return float32(g) }

// FrequencyHz is a strictly positive frequency.
type FrequencyHz float32

// NewFrequencyHz validates and constructs a FrequencyHz.
func NewFrequencyHz(v float32) (FrequencyHz, error) {
	if !isFinite(v) || v <= 0 {
		return 0, fmt.Errorf("values: frequency must be finite and > 0, got %v", v)
	}
	return FrequencyHz(v), nil
}

func (f FrequencyHz) Value() float32 { return float32(f) }

// CurvePoint is one knot of a response curve; both axes are normalized to
// [0, 1] so curves compose independent of any particular device's torque
// or angle range.
type CurvePoint struct {
	Input  float32
	Output float32
}

// NewCurvePoint validates and constructs a CurvePoint.
func NewCurvePoint(input, output float32) (CurvePoint, error) {
	if !isFinite(input) || input < 0 || input > 1 {
		return CurvePoint{}, fmt.Errorf("values: curve point input must be finite in [0,1], got %v", input)
	}
	if !isFinite(output) || output < 0 || output > 1 {
		return CurvePoint{}, fmt.Errorf("values: curve point output must be finite in [0,1], got %v", output)
	}
	return CurvePoint{Input: input, Output: output}, nil
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFinite32 exposes the finite check for use outside this package, e.g.
// config and curve validation.
func IsFinite32(v float32) bool { return isFinite(v) }
