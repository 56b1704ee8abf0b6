// Package curve implements response-curve evaluation and the RT-safe
// lookup table the compiler bakes curves down to: a closed catalogue of
// Linear, Exponential, Logarithmic and PiecewiseLinear curves, the last
// built from FilterConfig's curve_points knot sequence.
package curve

import (
	"fmt"
	"math"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/values"
)

// Kind identifies which curve family a Spec describes.
type Kind int

const (
	KindLinear Kind = iota
	KindExponential
	KindLogarithmic
	KindPiecewiseLinear
)

// Spec is the off-RT description of a response curve; ToLUT converts it
// to a LUT. Evaluate itself is not RT-safe (Logarithmic/PiecewiseLinear
// involve a branch per knot); only LUT.Lookup is RT-safe.
type Spec struct {
	Kind     Kind
	Exponent float32            // valid when Kind == KindExponential
	Base     float32            // valid when Kind == KindLogarithmic
	Points   []values.CurvePoint // valid when Kind == KindPiecewiseLinear; sorted by Input
}

// Linear returns the identity curve spec.
func Linear() Spec { return Spec{Kind: KindLinear} }

// Exponential returns an exponential curve spec; exponent must be finite
// and > 0.
func Exponential(exponent float32) (Spec, error) {
	if !values.IsFinite32(exponent) || exponent <= 0 {
		return Spec{}, fmt.Errorf("curve: exponential exponent must be finite and > 0, got %v", exponent)
	}
	return Spec{Kind: KindExponential, Exponent: exponent}, nil
}

// Logarithmic returns a logarithmic curve spec; base must be finite and > 1.
func Logarithmic(base float32) (Spec, error) {
	if !values.IsFinite32(base) || base <= 1 {
		return Spec{}, fmt.Errorf("curve: logarithmic base must be finite and > 1, got %v", base)
	}
	return Spec{Kind: KindLogarithmic, Base: base}, nil
}

// PiecewiseLinear returns a curve spec built from a monotonic-in-input
// knot sequence, matching FilterConfig.curve_points.
func PiecewiseLinear(points []values.CurvePoint) (Spec, error) {
	if len(points) < 2 {
		return Spec{}, fmt.Errorf("curve: piecewise-linear curve needs at least 2 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Input < points[i-1].Input {
			return Spec{}, fmt.Errorf("curve: curve_points must be monotonic in input, point %d (%v) precedes point %d (%v)", i, points[i].Input, i-1, points[i-1].Input)
		}
	}
	cp := make([]values.CurvePoint, len(points))
	copy(cp, points)
	return Spec{Kind: KindPiecewiseLinear, Points: cp}, nil
}

// Validate re-checks a spec's parameters (used after round-tripping a
// Spec through configuration).
func (s Spec) Validate() error {
	switch s.Kind {
	case KindLinear:
		return nil
	case KindExponential:
		if !values.IsFinite32(s.Exponent) || s.Exponent <= 0 {
			return fmt.Errorf("curve: exponential exponent must be finite and > 0, got %v", s.Exponent)
		}
		return nil
	case KindLogarithmic:
		if !values.IsFinite32(s.Base) || s.Base <= 1 {
			return fmt.Errorf("curve: logarithmic base must be finite and > 1, got %v", s.Base)
		}
		return nil
	case KindPiecewiseLinear:
		if len(s.Points) < 2 {
			return fmt.Errorf("curve: piecewise-linear curve needs at least 2 points, got %d", len(s.Points))
		}
		for i := 1; i < len(s.Points); i++ {
			if s.Points[i].Input < s.Points[i-1].Input {
				return fmt.Errorf("curve: curve_points must be monotonic in input")
			}
		}
		return nil
	default:
		return fmt.Errorf("curve: unknown curve kind %d", s.Kind)
	}
}

// Evaluate computes the curve directly. Not RT-safe: callers on the hot
// path must use a compiled LUT instead.
func (s Spec) Evaluate(input float32) float32 {
	if input < 0 {
		input = 0
	}
	if input > 1 {
		input = 1
	}
	switch s.Kind {
	case KindLinear:
		return input
	case KindExponential:
		return float32(math.Pow(float64(input), float64(s.Exponent)))
	case KindLogarithmic:
		if input == 0 {
			return 0
		}
		if input == 1 {
			return 1
		}
		logBase := math.Log(float64(s.Base))
		value := 1 + float64(input)*(float64(s.Base)-1)
		return float32(math.Log(value) / logBase)
	case KindPiecewiseLinear:
		return evaluatePiecewiseLinear(s.Points, input)
	default:
		return input
	}
}

func evaluatePiecewiseLinear(points []values.CurvePoint, input float32) float32 {
	if input <= points[0].Input {
		return points[0].Output
	}
	last := len(points) - 1
	if input >= points[last].Input {
		return points[last].Output
	}
	for i := 1; i <= last; i++ {
		if input <= points[i].Input {
			lo, hi := points[i-1], points[i]
			span := hi.Input - lo.Input
			if span <= 0 {
				return hi.Output
			}
			frac := (input - lo.Input) / span
			return lo.Output + frac*(hi.Output-lo.Output)
		}
	}
	return points[last].Output
}

// ToLUT pre-computes a fixed-size lookup table for RT-safe evaluation.
// This allocates and must only be called off the RT worker (at compile
// time).
func (s Spec) ToLUT() *LUT {
	var table [constants.CurveLUTSize]float32
	denom := float32(constants.CurveLUTSize - 1)
	for i := range table {
		input := float32(i) / denom
		table[i] = s.Evaluate(input)
	}
	return &LUT{table: table}
}
