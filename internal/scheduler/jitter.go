package scheduler

import (
	"sort"

	"github.com/dstrand/ffbcore/internal/constants"
)

// JitterMetrics accumulates per-tick timing statistics: cumulative counters
// plus a bounded recent-sample ring buffer for percentile estimation, so
// memory stays flat on a long-running session with no per-sample shift
// cost.
type JitterMetrics struct {
	totalTicks     uint64
	missedTicks    uint64
	maxJitterNs    uint64
	jitterSumSq    float64
	samples        []uint64
	samplesPos     int
	samplesFilled  bool
	maxSamples     int
}

// NewJitterMetrics constructs a metrics collector with the core's default
// sample-window size.
func NewJitterMetrics() *JitterMetrics {
	return &JitterMetrics{
		samples:    make([]uint64, constants.MaxJitterSamples),
		maxSamples: constants.MaxJitterSamples,
	}
}

// RecordTick folds in one tick's observed jitter and missed-deadline flag.
func (m *JitterMetrics) RecordTick(jitterNs uint64, missedDeadline bool) {
	m.totalTicks++
	if missedDeadline {
		m.missedTicks++
	}
	if jitterNs > m.maxJitterNs {
		m.maxJitterNs = jitterNs
	}
	j := float64(jitterNs)
	m.jitterSumSq += j * j

	m.samples[m.samplesPos] = jitterNs
	m.samplesPos++
	if m.samplesPos == m.maxSamples {
		m.samplesPos = 0
		m.samplesFilled = true
	}
}

func (m *JitterMetrics) activeSamples() []uint64 {
	if m.samplesFilled {
		return m.samples
	}
	return m.samples[:m.samplesPos]
}

// P99JitterNs returns the 99th percentile of the recent jitter samples.
func (m *JitterMetrics) P99JitterNs() uint64 {
	active := m.activeSamples()
	if len(active) == 0 {
		return 0
	}
	sorted := make([]uint64, len(active))
	copy(sorted, active)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MissedTickRate returns the fraction of ticks observed as missed deadlines.
func (m *JitterMetrics) MissedTickRate() float64 {
	if m.totalTicks == 0 {
		return 0
	}
	return float64(m.missedTicks) / float64(m.totalTicks)
}

// MaxJitterNs returns the largest jitter observed over the metrics' lifetime.
func (m *JitterMetrics) MaxJitterNs() uint64 { return m.maxJitterNs }

// TotalTicks returns the cumulative tick count.
func (m *JitterMetrics) TotalTicks() uint64 { return m.totalTicks }

// MissedTicks returns the cumulative missed-deadline count.
func (m *JitterMetrics) MissedTicks() uint64 { return m.missedTicks }

// MeetsRequirements reports whether p99 jitter and missed-tick rate are
// both within the scheduler's performance budgets.
func (m *JitterMetrics) MeetsRequirements() bool {
	return m.P99JitterNs() <= constants.JitterP99BudgetNs &&
		m.MissedTickRate() <= constants.MissedTickRateBudget
}
