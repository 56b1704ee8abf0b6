package ffbcore

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dstrand/ffbcore/internal/safety"
)

func TestMetricsTicksAndJitter(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TicksExecuted != 0 {
		t.Fatalf("expected 0 initial ticks, got %d", snap.TicksExecuted)
	}

	m.RecordTick(500, false)
	m.RecordTick(-2000, true)
	m.RecordTick(1000, false)

	snap = m.Snapshot()
	if snap.TicksExecuted != 3 {
		t.Errorf("expected 3 ticks, got %d", snap.TicksExecuted)
	}
	if snap.TicksOverrun != 1 {
		t.Errorf("expected 1 overrun, got %d", snap.TicksOverrun)
	}
	if snap.OverrunRate < 0.33 || snap.OverrunRate > 0.34 {
		t.Errorf("expected overrun rate ~1/3, got %f", snap.OverrunRate)
	}
	if snap.AvgJitterNs == 0 {
		t.Error("expected nonzero average jitter")
	}
}

func TestMetricsTorqueWrites(t *testing.T) {
	m := NewMetrics()
	m.RecordTorqueWrite(nil)
	m.RecordTorqueWrite(errors.New("port gone"))

	snap := m.Snapshot()
	if snap.TorqueWrites != 2 {
		t.Errorf("expected 2 torque writes, got %d", snap.TorqueWrites)
	}
	if snap.PortWriteErrors != 1 {
		t.Errorf("expected 1 port write error, got %d", snap.PortWriteErrors)
	}
}

func TestMetricsFaultCounts(t *testing.T) {
	m := NewMetrics()
	m.RecordFault(safety.FaultOvercurrent)
	m.RecordFault(safety.FaultOvercurrent)
	m.RecordFault(safety.FaultEncoderNaN)

	snap := m.Snapshot()
	if snap.FaultCounts[safety.FaultOvercurrent] != 2 {
		t.Errorf("expected 2 overcurrent faults, got %d", snap.FaultCounts[safety.FaultOvercurrent])
	}
	if snap.FaultCounts[safety.FaultEncoderNaN] != 1 {
		t.Errorf("expected 1 encoder_nan fault, got %d", snap.FaultCounts[safety.FaultEncoderNaN])
	}
}

func TestMetricsCompileLatency(t *testing.T) {
	m := NewMetrics()
	m.RecordCompile(1_000_000, nil)
	m.RecordCompile(3_000_000, errors.New("bad config"))

	snap := m.Snapshot()
	if snap.CompileCount != 2 {
		t.Errorf("expected 2 compiles, got %d", snap.CompileCount)
	}
	if snap.CompileErrors != 1 {
		t.Errorf("expected 1 compile error, got %d", snap.CompileErrors)
	}
	if snap.AvgCompileNs != 2_000_000 {
		t.Errorf("expected avg compile 2ms, got %dns", snap.AvgCompileNs)
	}
}

func TestMetricsRecorderDrops(t *testing.T) {
	m := NewMetrics()
	m.RecordRecorderDrop(false)
	m.RecordRecorderDrop(true)
	m.RecordRecorderDrop(true)

	snap := m.Snapshot()
	if snap.RecorderFramesDropped != 1 {
		t.Errorf("expected 1 frame drop, got %d", snap.RecorderFramesDropped)
	}
	if snap.RecorderTelemetryDropped != 2 {
		t.Errorf("expected 2 telemetry drops, got %d", snap.RecorderTelemetryDropped)
	}
}

func TestCollectorDescribeAndCollect(t *testing.T) {
	m := NewMetrics()
	m.RecordTick(100, false)
	m.RecordFault(safety.FaultThermalLimit)
	c := NewCollector(m)

	descs := make(chan *prometheus.Desc, 16)
	c.Describe(descs)
	close(descs)
	count := 0
	for range descs {
		count++
	}
	if count != 9 {
		t.Errorf("expected 9 descriptors, got %d", count)
	}

	metrics := make(chan prometheus.Metric, 16)
	c.Collect(metrics)
	close(metrics)
	if len(metrics) == 0 {
		t.Error("expected at least one collected metric")
	}
}
