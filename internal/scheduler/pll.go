package scheduler

import "github.com/dstrand/ffbcore/internal/constants"

// PLL estimates the true tick period from observed timing and nudges it
// toward the nominal target, absorbing slow hardware-clock drift without
// chasing every individual tick's jitter.
type PLL struct {
	targetPeriodNs    uint64
	estimatedPeriodNs float64
	gain              float64
	phaseWeight       float64
	maxDriftFraction  float64
	phaseErrorNs      float64
	lastTickNs        uint64
	hasLastTick       bool
}

// NewPLL constructs a PLL targeting targetPeriodNs, using the tuning
// constants the scheduler requires everywhere else in the core.
func NewPLL(targetPeriodNs uint64) *PLL {
	return &PLL{
		targetPeriodNs:    targetPeriodNs,
		estimatedPeriodNs: float64(targetPeriodNs),
		gain:              constants.PLLGain,
		phaseWeight:       constants.PLLPhaseWeight,
		maxDriftFraction:  constants.PLLMaxDriftFraction,
	}
}

// Update folds in the actual timestamp of this tick and returns the
// corrected period, in nanoseconds, to use for scheduling the next one.
func (p *PLL) Update(actualTickNs uint64) uint64 {
	if p.hasLastTick {
		actualPeriodNs := float64(actualTickNs - p.lastTickNs)
		periodError := actualPeriodNs - float64(p.targetPeriodNs)
		p.phaseErrorNs += periodError

		correction := p.gain * (periodError + p.phaseWeight*p.phaseErrorNs)
		p.estimatedPeriodNs = float64(p.targetPeriodNs) - correction

		minPeriod := float64(p.targetPeriodNs) * (1 - p.maxDriftFraction)
		maxPeriod := float64(p.targetPeriodNs) * (1 + p.maxDriftFraction)
		if p.estimatedPeriodNs < minPeriod {
			p.estimatedPeriodNs = minPeriod
		} else if p.estimatedPeriodNs > maxPeriod {
			p.estimatedPeriodNs = maxPeriod
		}
	}

	p.lastTickNs = actualTickNs
	p.hasLastTick = true
	return uint64(p.estimatedPeriodNs)
}

// PhaseErrorNs returns the accumulated phase error, mainly for diagnostics.
func (p *PLL) PhaseErrorNs() float64 { return p.phaseErrorNs }

// Reset returns the PLL to its just-constructed state.
func (p *PLL) Reset() {
	p.estimatedPeriodNs = float64(p.targetPeriodNs)
	p.phaseErrorNs = 0
	p.hasLastTick = false
}
