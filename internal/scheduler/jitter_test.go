package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJitterMetricsTracksCumulativeCounters(t *testing.T) {
	m := NewJitterMetrics()
	m.RecordTick(1000, false)
	m.RecordTick(2000, true)
	m.RecordTick(500, false)

	assert.Equal(t, uint64(3), m.TotalTicks())
	assert.Equal(t, uint64(1), m.MissedTicks())
	assert.Equal(t, uint64(2000), m.MaxJitterNs())
	assert.InDelta(t, 1.0/3.0, m.MissedTickRate(), 1e-9)
}

func TestJitterMetricsP99OverSamples(t *testing.T) {
	m := NewJitterMetrics()
	for i := 1; i <= 100; i++ {
		m.RecordTick(uint64(i*1000), false)
	}
	// p99 of 1000..100000 in steps of 1000 should land near the top of the
	// range.
	assert.GreaterOrEqual(t, m.P99JitterNs(), uint64(98000))
}

func TestJitterMetricsMeetsRequirements(t *testing.T) {
	m := NewJitterMetrics()
	for i := 0; i < 1000; i++ {
		m.RecordTick(10_000, false)
	}
	assert.True(t, m.MeetsRequirements())

	m2 := NewJitterMetrics()
	for i := 0; i < 1000; i++ {
		m2.RecordTick(300_000, false)
	}
	assert.False(t, m2.MeetsRequirements())
}

func TestJitterMetricsRingBufferWraps(t *testing.T) {
	m := NewJitterMetrics()
	// Push more samples than the ring holds; only the most recent window
	// should influence P99.
	for i := 0; i < m.maxSamples+10; i++ {
		m.RecordTick(5, false)
	}
	for i := 0; i < 5; i++ {
		m.RecordTick(1_000_000, false)
	}
	assert.Equal(t, uint64(m.maxSamples+15), m.TotalTicks())
	// The overwhelming majority of the retained window is still 5ns.
	assert.Less(t, m.P99JitterNs(), uint64(1_000_000))
}
