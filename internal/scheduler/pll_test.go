package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPLLFirstUpdateReturnsTargetPeriod(t *testing.T) {
	p := NewPLL(1_000_000)
	got := p.Update(1_000_000)
	assert.Equal(t, uint64(1_000_000), got)
}

func TestPLLCorrectsTowardTargetWhenTicksRunFast(t *testing.T) {
	p := NewPLL(1_000_000)
	p.Update(0)
	// Second tick arrives early (period observed: 900_000ns, 10% fast).
	corrected := p.Update(900_000)
	assert.Less(t, corrected, uint64(1_000_000), "PLL should shorten the estimated period to track the faster clock")
}

func TestPLLClampsToMaxDriftFraction(t *testing.T) {
	p := NewPLL(1_000_000)
	p.Update(0)
	// Wildly fast observed period should still clamp to within ±10%.
	corrected := p.Update(100_000)
	assert.GreaterOrEqual(t, corrected, uint64(900_000))
	assert.LessOrEqual(t, corrected, uint64(1_100_000))
}

func TestPLLResetClearsPhaseError(t *testing.T) {
	p := NewPLL(1_000_000)
	p.Update(0)
	p.Update(1_100_000)
	assert.NotZero(t, p.PhaseErrorNs())
	p.Reset()
	assert.Zero(t, p.PhaseErrorNs())
}
