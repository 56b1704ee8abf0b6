package curve

import (
	"testing"

	"github.com/dstrand/ffbcore/internal/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearIsIdentity(t *testing.T) {
	s := Linear()
	assert.InDelta(t, 0.25, s.Evaluate(0.25), 1e-6)
	assert.InDelta(t, 1.0, s.Evaluate(1.0), 1e-6)
}

func TestExponentialRejectsInvalid(t *testing.T) {
	_, err := Exponential(0)
	assert.Error(t, err)
	_, err = Exponential(-1)
	assert.Error(t, err)

	s, err := Exponential(2)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, s.Evaluate(0.5), 1e-6)
}

func TestLogarithmicEndpoints(t *testing.T) {
	s, err := Logarithmic(10)
	require.NoError(t, err)
	assert.InDelta(t, 0, s.Evaluate(0), 1e-6)
	assert.InDelta(t, 1, s.Evaluate(1), 1e-6)
}

func TestPiecewiseLinearRequiresMonotonic(t *testing.T) {
	p1, _ := values.NewCurvePoint(0, 0)
	p2, _ := values.NewCurvePoint(0.5, 0.8)
	p3, _ := values.NewCurvePoint(0.25, 0.9)

	_, err := PiecewiseLinear([]values.CurvePoint{p1, p2, p3})
	assert.Error(t, err)

	p4, _ := values.NewCurvePoint(1, 1)
	s, err := PiecewiseLinear([]values.CurvePoint{p1, p2, p4})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, s.Evaluate(0.5), 1e-6)
	assert.InDelta(t, 0.9, s.Evaluate(0.75), 1e-6)
}

func TestToLUTApproximatesSpec(t *testing.T) {
	s, err := Exponential(2)
	require.NoError(t, err)
	lut := s.ToLUT()

	assert.InDelta(t, 0.0, lut.Lookup(0), 0.01)
	assert.InDelta(t, 0.25, lut.Lookup(0.5), 0.01)
	assert.InDelta(t, 1.0, lut.Lookup(1), 0.01)
}

func TestLUTClampsOutOfRangeInput(t *testing.T) {
	lut := Linear().ToLUT()
	assert.Equal(t, lut.Lookup(0), lut.Lookup(-5))
	assert.Equal(t, lut.Lookup(1), lut.Lookup(5))
}
