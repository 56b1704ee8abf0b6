package values

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTorqueRejectsNonFinite(t *testing.T) {
	_, err := NewTorque(float32(math.NaN()))
	require.Error(t, err)

	_, err = NewTorque(float32(math.Inf(1)))
	require.Error(t, err)

	tq, err := NewTorque(-4.5)
	require.NoError(t, err)
	assert.Equal(t, float32(-4.5), tq.Value())
}

func TestNewGainRange(t *testing.T) {
	_, err := NewGain(-0.01)
	assert.Error(t, err)

	_, err = NewGain(1.01)
	assert.Error(t, err)

	g, err := NewGain(0.5)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), g.Value())
}

func TestNewFrequencyHzMustBePositive(t *testing.T) {
	_, err := NewFrequencyHz(0)
	assert.Error(t, err)

	_, err = NewFrequencyHz(-10)
	assert.Error(t, err)

	f, err := NewFrequencyHz(40)
	require.NoError(t, err)
	assert.Equal(t, float32(40), f.Value())
}

func TestNewCurvePointBounds(t *testing.T) {
	_, err := NewCurvePoint(-0.1, 0.5)
	assert.Error(t, err)

	_, err = NewCurvePoint(0.5, 1.1)
	assert.Error(t, err)

	cp, err := NewCurvePoint(0.25, 0.75)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), cp.Input)
	assert.Equal(t, float32(0.75), cp.Output)
}
