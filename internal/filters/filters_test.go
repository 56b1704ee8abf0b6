package filters

import (
	"testing"

	"github.com/dstrand/ffbcore/internal/curve"
	"github.com/dstrand/ffbcore/internal/rt"
	"github.com/stretchr/testify/assert"
)

func stepN(t *testing.T, n Node, f *rt.Frame, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		n.Step(f)
	}
}

func TestReconstructionAveragesRing(t *testing.T) {
	n := NewReconstruction(2)
	f := &rt.Frame{TorqueOut: 1.0}
	n.Step(f)
	assert.InDelta(t, 1.0, f.TorqueOut, 1e-6)

	f.TorqueOut = 3.0
	n.Step(f)
	assert.InDelta(t, 2.0, f.TorqueOut, 1e-6) // (1+3)/2
}

func TestFrictionOpposesWheelDirection(t *testing.T) {
	n := NewFriction(0.2)
	f := &rt.Frame{TorqueOut: 0.5, WheelSpeed: 1.0}
	n.Step(f)
	assert.InDelta(t, 0.3, f.TorqueOut, 1e-6)

	f2 := &rt.Frame{TorqueOut: 0.5, WheelSpeed: -1.0}
	n.Step(f2)
	assert.InDelta(t, 0.7, f2.TorqueOut, 1e-6)
}

func TestDamperOpposesVelocity(t *testing.T) {
	n := NewDamper(0.1)
	f := &rt.Frame{TorqueOut: 0.5, WheelSpeed: 2.0}
	n.Step(f)
	assert.InDelta(t, 0.3, f.TorqueOut, 1e-6)
}

func TestInertiaOpposesAcceleration(t *testing.T) {
	n := NewInertia(0.5)
	f := &rt.Frame{TorqueOut: 0, WheelSpeed: 0}
	n.Step(f) // accel 0 on first tick
	assert.InDelta(t, 0, f.TorqueOut, 1e-6)

	f.TorqueOut = 0
	f.WheelSpeed = 2.0
	n.Step(f)
	assert.InDelta(t, -1.0, f.TorqueOut, 1e-6)
}

func TestSlewRateCapsDelta(t *testing.T) {
	n := NewSlewRate(0.1)
	f := &rt.Frame{TorqueOut: 0.0}
	n.Step(f) // primes

	f.TorqueOut = 1.0
	n.Step(f)
	assert.InDelta(t, 0.1, f.TorqueOut, 1e-6)

	f.TorqueOut = 1.0
	n.Step(f)
	assert.InDelta(t, 0.2, f.TorqueOut, 1e-6)
}

func TestTorqueCapSaturates(t *testing.T) {
	n := NewTorqueCap(0.5)
	f := &rt.Frame{TorqueOut: 0.9}
	n.Step(f)
	assert.InDelta(t, 0.5, f.TorqueOut, 1e-6)

	f.TorqueOut = -0.9
	n.Step(f)
	assert.InDelta(t, -0.5, f.TorqueOut, 1e-6)
}

func TestCurveNodePreservesSign(t *testing.T) {
	spec, err := curve.Exponential(2)
	assert.NoError(t, err)
	lut := spec.ToLUT()
	n := NewCurve(lut)

	f := &rt.Frame{TorqueOut: 0.5}
	n.Step(f)
	assert.InDelta(t, 0.25, f.TorqueOut, 0.01)

	f2 := &rt.Frame{TorqueOut: -0.5}
	n.Step(f2)
	assert.InDelta(t, -0.25, f2.TorqueOut, 0.01)
}

func TestBumpstopActivatesPastStartAngle(t *testing.T) {
	n := NewBumpstop(10, 20, 0.8, 0.1, 1.0)
	f := &rt.Frame{TorqueOut: 0, WheelSpeed: 5000} // rapidly integrate past start angle
	for i := 0; i < 5; i++ {
		n.Step(f)
	}
	assert.NotEqual(t, float32(0), f.TorqueOut)
	assert.LessOrEqual(t, f.TorqueOut, float32(1.0))
	assert.GreaterOrEqual(t, f.TorqueOut, float32(-1.0))
}

func TestBumpstopInactiveBeforeStartAngle(t *testing.T) {
	n := NewBumpstop(90, 180, 0.8, 0.1, 1.0)
	f := &rt.Frame{TorqueOut: 0.3, WheelSpeed: 0}
	n.Step(f)
	assert.InDelta(t, 0.3, f.TorqueOut, 1e-6)
}

func TestHandsOffTriggersAfterTimeout(t *testing.T) {
	n := NewHandsOff(0.02, 3)
	f := &rt.Frame{FFBIn: 0.0}

	n.Step(f)
	assert.False(t, f.HandsOff)
	n.Step(f)
	assert.False(t, f.HandsOff)
	n.Step(f)
	assert.True(t, f.HandsOff)
}

func TestHandsOffResetsOnInput(t *testing.T) {
	n := NewHandsOff(0.02, 2)
	f := &rt.Frame{FFBIn: 0.0}
	n.Step(f)
	n.Step(f)
	assert.True(t, f.HandsOff)

	f.FFBIn = 0.5
	n.Step(f)
	assert.False(t, f.HandsOff)
}

func TestNonFiniteOutputSubstitutesZeroAndFlagsFault(t *testing.T) {
	f := &rt.Frame{}
	out := substituteOnNonFinite(f, float32(1)/float32(0)) // +Inf
	assert.Equal(t, float32(0), out)
	assert.True(t, f.PipelineFault)
}

func TestNotchPassesThroughAtZeroGain(t *testing.T) {
	n := NewNotch(40, 1.0, 0, 1000)
	f := &rt.Frame{TorqueOut: 0.5}
	n.Step(f)
	assert.InDelta(t, 0.5, f.TorqueOut, 1e-3)
}
