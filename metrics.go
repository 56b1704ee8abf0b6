package ffbcore

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dstrand/ffbcore/internal/safety"
)

// LatencyBuckets are the histogram boundaries, in nanoseconds, Metrics uses
// for tick jitter: log-spaced from 1us to 10s. Compile latency is tracked
// only as a total and a count, not bucketed.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks Core's operational counters: tick jitter, faults, recorder
// health, compile latency, torque writes. Counters and the cumulative
// latency histogram are atomic so the RT tick loop can update them without
// a lock; Snapshot takes the one lock needed (the fault map) and derives
// rates/percentiles for callers. Collector exposes the snapshot to
// Prometheus; internal/ logs individual events through zerolog instead.
type Metrics struct {
	TicksExecuted   atomic.Uint64
	TicksOverrun    atomic.Uint64 // ticks where the scheduler could not catch up
	TorqueWrites    atomic.Uint64
	PortWriteErrors atomic.Uint64

	RecorderFramesDropped     atomic.Uint64
	RecorderTelemetryDropped  atomic.Uint64

	CompileCount   atomic.Uint64
	CompileErrors  atomic.Uint64
	TotalCompileNs atomic.Uint64

	TotalJitterNs atomic.Uint64
	JitterBuckets [numLatencyBuckets]atomic.Uint64
	JitterCount   atomic.Uint64

	faultsMu sync.Mutex
	faults   map[safety.FaultKind]uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics constructs a zeroed Metrics with its clock started now.
func NewMetrics() *Metrics {
	m := &Metrics{faults: make(map[safety.FaultKind]uint64)}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordTick records one scheduler tick and its jitter (signed deviation
// from the ideal period, in nanoseconds; RecordTick takes the absolute
// value for the histogram but overrun counts only late ticks).
func (m *Metrics) RecordTick(jitterNs int64, overran bool) {
	m.TicksExecuted.Add(1)
	if overran {
		m.TicksOverrun.Add(1)
	}
	abs := jitterNs
	if abs < 0 {
		abs = -abs
	}
	m.recordJitter(uint64(abs))
}

func (m *Metrics) recordJitter(ns uint64) {
	m.TotalJitterNs.Add(ns)
	m.JitterCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if ns <= bucket {
			m.JitterBuckets[i].Add(1)
		}
	}
}

// RecordTorqueWrite records one DevicePort.WriteTorque call and whether it
// returned an error.
func (m *Metrics) RecordTorqueWrite(err error) {
	m.TorqueWrites.Add(1)
	if err != nil {
		m.PortWriteErrors.Add(1)
	}
}

// RecordFault increments the per-kind fault counter, for exporting which
// faults actually fire in the field.
func (m *Metrics) RecordFault(kind safety.FaultKind) {
	m.faultsMu.Lock()
	m.faults[kind]++
	m.faultsMu.Unlock()
}

// RecordCompile records one pipeline recompilation's latency and outcome.
// Compiles run off the RT thread and swap in as a pointer publish, so this
// is the only place compile cost is observed.
func (m *Metrics) RecordCompile(latencyNs uint64, err error) {
	m.CompileCount.Add(1)
	m.TotalCompileNs.Add(latencyNs)
	if err != nil {
		m.CompileErrors.Add(1)
	}
}

// RecordRecorderDrop records that the blackbox recorder dropped a frame or
// telemetry sample rather than block the RT thread.
func (m *Metrics) RecordRecorderDrop(isTelemetry bool) {
	if isTelemetry {
		m.RecorderTelemetryDropped.Add(1)
		return
	}
	m.RecorderFramesDropped.Add(1)
}

// Stop marks the core as stopped, fixing UptimeNs in future snapshots.
func (m *Metrics) Stop() { m.StopTime.Store(time.Now().UnixNano()) }

// Snapshot is a point-in-time copy of Metrics' derived statistics.
type Snapshot struct {
	TicksExecuted uint64
	TicksOverrun  uint64
	OverrunRate   float64

	TorqueWrites    uint64
	PortWriteErrors uint64

	RecorderFramesDropped    uint64
	RecorderTelemetryDropped uint64

	CompileCount  uint64
	CompileErrors uint64
	AvgCompileNs  uint64

	AvgJitterNs      uint64
	JitterP50Ns      uint64
	JitterP99Ns      uint64
	JitterHistogram  [numLatencyBuckets]uint64

	FaultCounts map[safety.FaultKind]uint64

	UptimeNs uint64
}

// Snapshot copies out every counter plus the derived rates and percentiles.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		TicksExecuted:            m.TicksExecuted.Load(),
		TicksOverrun:             m.TicksOverrun.Load(),
		TorqueWrites:             m.TorqueWrites.Load(),
		PortWriteErrors:          m.PortWriteErrors.Load(),
		RecorderFramesDropped:    m.RecorderFramesDropped.Load(),
		RecorderTelemetryDropped: m.RecorderTelemetryDropped.Load(),
		CompileCount:             m.CompileCount.Load(),
		CompileErrors:            m.CompileErrors.Load(),
	}

	if snap.TicksExecuted > 0 {
		snap.OverrunRate = float64(snap.TicksOverrun) / float64(snap.TicksExecuted)
	}
	if snap.CompileCount > 0 {
		snap.AvgCompileNs = m.TotalCompileNs.Load() / snap.CompileCount
	}

	jitterCount := m.JitterCount.Load()
	if jitterCount > 0 {
		snap.AvgJitterNs = m.TotalJitterNs.Load() / jitterCount
		snap.JitterP50Ns = m.jitterPercentile(0.50)
		snap.JitterP99Ns = m.jitterPercentile(0.99)
	}
	for i := 0; i < numLatencyBuckets; i++ {
		snap.JitterHistogram[i] = m.JitterBuckets[i].Load()
	}

	m.faultsMu.Lock()
	snap.FaultCounts = make(map[safety.FaultKind]uint64, len(m.faults))
	for k, v := range m.faults {
		snap.FaultCounts[k] = v
	}
	m.faultsMu.Unlock()

	startTime := m.StartTime.Load()
	if stopTime := m.StopTime.Load(); stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	return snap
}

// jitterPercentile linearly interpolates within the cumulative histogram
// to estimate a percentile without storing individual samples.
func (m *Metrics) jitterPercentile(percentile float64) uint64 {
	total := m.JitterCount.Load()
	if total == 0 {
		return 0
	}
	target := uint64(float64(total) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		count := m.JitterBuckets[i].Load()
		if count >= target {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.JitterBuckets[i-1].Load()
			}
			if count == prevCount {
				return bucket
			}
			fraction := float64(target-prevCount) / float64(count-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Collector adapts Metrics to prometheus.Collector, so a Core can be
// registered directly with a prometheus.Registry. Each Collect call takes
// one Snapshot and emits it as gauges/counters; the jitter histogram
// buckets are not exported.
type Collector struct {
	metrics *Metrics

	ticksExecuted  *prometheus.Desc
	ticksOverrun   *prometheus.Desc
	torqueWrites   *prometheus.Desc
	compileCount   *prometheus.Desc
	compileErrors  *prometheus.Desc
	avgCompileNs   *prometheus.Desc
	avgJitterNs    *prometheus.Desc
	recorderDrops  *prometheus.Desc
	faultsTotal    *prometheus.Desc
}

// NewCollector wraps m for Prometheus registration.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		metrics:       m,
		ticksExecuted: prometheus.NewDesc("ffbcore_ticks_executed_total", "Total scheduler ticks executed.", nil, nil),
		ticksOverrun:  prometheus.NewDesc("ffbcore_ticks_overrun_total", "Scheduler ticks that ran behind schedule.", nil, nil),
		torqueWrites:  prometheus.NewDesc("ffbcore_torque_writes_total", "Total DevicePort.WriteTorque calls.", nil, nil),
		compileCount:  prometheus.NewDesc("ffbcore_pipeline_compiles_total", "Total pipeline compilations.", nil, nil),
		compileErrors: prometheus.NewDesc("ffbcore_pipeline_compile_errors_total", "Total pipeline compilation failures.", nil, nil),
		avgCompileNs:  prometheus.NewDesc("ffbcore_pipeline_compile_avg_nanoseconds", "Average pipeline compile latency.", nil, nil),
		avgJitterNs:   prometheus.NewDesc("ffbcore_tick_jitter_avg_nanoseconds", "Average scheduler tick jitter.", nil, nil),
		recorderDrops: prometheus.NewDesc("ffbcore_recorder_drops_total", "Blackbox recorder samples dropped instead of blocking the tick.", []string{"stream"}, nil),
		faultsTotal:   prometheus.NewDesc("ffbcore_faults_total", "Safety faults latched, by kind.", []string{"kind"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ticksExecuted
	ch <- c.ticksOverrun
	ch <- c.torqueWrites
	ch <- c.compileCount
	ch <- c.compileErrors
	ch <- c.avgCompileNs
	ch <- c.avgJitterNs
	ch <- c.recorderDrops
	ch <- c.faultsTotal
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.ticksExecuted, prometheus.CounterValue, float64(snap.TicksExecuted))
	ch <- prometheus.MustNewConstMetric(c.ticksOverrun, prometheus.CounterValue, float64(snap.TicksOverrun))
	ch <- prometheus.MustNewConstMetric(c.torqueWrites, prometheus.CounterValue, float64(snap.TorqueWrites))
	ch <- prometheus.MustNewConstMetric(c.compileCount, prometheus.CounterValue, float64(snap.CompileCount))
	ch <- prometheus.MustNewConstMetric(c.compileErrors, prometheus.CounterValue, float64(snap.CompileErrors))
	ch <- prometheus.MustNewConstMetric(c.avgCompileNs, prometheus.GaugeValue, float64(snap.AvgCompileNs))
	ch <- prometheus.MustNewConstMetric(c.avgJitterNs, prometheus.GaugeValue, float64(snap.AvgJitterNs))
	ch <- prometheus.MustNewConstMetric(c.recorderDrops, prometheus.CounterValue, float64(snap.RecorderFramesDropped), "frame")
	ch <- prometheus.MustNewConstMetric(c.recorderDrops, prometheus.CounterValue, float64(snap.RecorderTelemetryDropped), "telemetry")
	for kind, count := range snap.FaultCounts {
		ch <- prometheus.MustNewConstMetric(c.faultsTotal, prometheus.CounterValue, float64(count), string(kind))
	}
}

var _ prometheus.Collector = (*Collector)(nil)
