package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstrand/ffbcore/internal/port"
	"github.com/dstrand/ffbcore/internal/rt"
)

func drain(t *testing.T, p *Port) port.ConnectionEvent {
	t.Helper()
	select {
	case e := <-p.ConnectionEvents():
		return e
	default:
		t.Fatal("expected a connection event, got none")
		return port.ConnectionEvent{}
	}
}

func TestNewStartsConnected(t *testing.T) {
	p := New(nil)
	e := drain(t, p)
	assert.Equal(t, port.Connected, e.State)
}

func TestSetInputsFeedsReadInputs(t *testing.T) {
	p := New(nil)
	drain(t, p)

	p.SetInputs(port.FrameInputs{FFBIn: 0.5, WheelSpeed: 12})
	got := p.ReadInputs()
	assert.Equal(t, float32(0.5), got.FFBIn)
	assert.Equal(t, float32(12), got.WheelSpeed)
}

func TestReadInputsReturnsPreviousSnapshotWhenUnchanged(t *testing.T) {
	p := New(nil)
	drain(t, p)

	p.SetInputs(port.FrameInputs{FFBIn: 0.25})
	first := p.ReadInputs()
	second := p.ReadInputs()
	assert.Equal(t, first, second)
}

func TestWriteTorqueRecordsLastValueAndCount(t *testing.T) {
	p := New(nil)
	drain(t, p)

	require.NoError(t, p.WriteTorque(1.5))
	require.NoError(t, p.WriteTorque(-2.25))

	assert.Equal(t, float32(-2.25), p.LastTorqueNm())
	assert.Equal(t, uint64(2), p.TorqueWriteCount())
}

func TestSimulateFaultAndDisconnectCarryReason(t *testing.T) {
	clock := rt.NewFakeClock(1000)
	p := New(clock)
	drain(t, p)

	clock.Advance(5)
	p.SimulateFault("overcurrent")
	e := drain(t, p)
	assert.Equal(t, port.Faulted, e.State)
	assert.Equal(t, "overcurrent", e.Reason)
	assert.Equal(t, clock.Now(), e.TimestampNs)

	p.SimulateDisconnect("usb unplugged")
	e2 := drain(t, p)
	assert.Equal(t, port.Disconnected, e2.State)
	assert.Equal(t, "usb unplugged", e2.Reason)

	p.SimulateReconnect()
	e3 := drain(t, p)
	assert.Equal(t, port.Connected, e3.State)
}

func TestConnectionEventsNeverBlocksWhenQueueFull(t *testing.T) {
	p := New(nil)
	drain(t, p)

	for i := 0; i < 64; i++ {
		p.SimulateFault("flood")
	}
}

func TestPortImplementsDevicePort(t *testing.T) {
	var _ port.DevicePort = New(nil)
}
