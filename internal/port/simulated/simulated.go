// Package simulated provides a DevicePort backed by nothing but process
// memory, for ffbsim and for tests that need a port without real
// hardware. Adapted from backend/mem.go's shared-mutable-state pattern
// (constructor + atomic/locked fields + a Stats-style introspection
// method); mem.go's sharded RWMutex array collapses to a single
// atomic.Pointer snapshot swap here because a wheel has one input
// stream, not an address space of independently-contended byte ranges.
package simulated

import (
	"math"
	"sync/atomic"

	"github.com/dstrand/ffbcore/internal/port"
	"github.com/dstrand/ffbcore/internal/rt"
)

// Port is a DevicePort a test or the ffbsim CLI drives directly: SetInputs
// feeds ReadInputs, LastTorqueNm reads back whatever WriteTorque last
// recorded, and SimulateDisconnect/SimulateFault push connection events a
// Core would otherwise get from real hardware.
type Port struct {
	clock  rt.Clock
	inputs atomic.Pointer[port.FrameInputs]

	lastTorqueBits atomic.Uint32
	torqueWrites   atomic.Uint64

	events chan port.ConnectionEvent
}

// New constructs a simulated Port starting Connected with zeroed inputs.
func New(clock rt.Clock) *Port {
	if clock == nil {
		clock = rt.MonotonicClock{}
	}
	p := &Port{clock: clock, events: make(chan port.ConnectionEvent, 16)}
	p.inputs.Store(&port.FrameInputs{})
	p.events <- port.ConnectionEvent{State: port.Connected, TimestampNs: clock.Now()}
	return p
}

// ReadInputs implements port.DevicePort.
func (p *Port) ReadInputs() port.FrameInputs {
	return *p.inputs.Load()
}

// WriteTorque implements port.DevicePort. Never fails: a simulated device
// always accepts the command.
func (p *Port) WriteTorque(nm float32) error {
	p.lastTorqueBits.Store(math.Float32bits(nm))
	p.torqueWrites.Add(1)
	return nil
}

// ConnectionEvents implements port.DevicePort.
func (p *Port) ConnectionEvents() <-chan port.ConnectionEvent { return p.events }

// SetInputs publishes a new input snapshot for the next ReadInputs call.
// Safe to call from any goroutine; replaces the whole snapshot, matching
// the total-replacement discipline safety.Service uses for state
// transitions.
func (p *Port) SetInputs(in port.FrameInputs) {
	p.inputs.Store(&in)
}

// LastTorqueNm returns the most recent value passed to WriteTorque.
func (p *Port) LastTorqueNm() float32 {
	return math.Float32frombits(p.lastTorqueBits.Load())
}

// TorqueWriteCount returns how many times WriteTorque has been called,
// mirroring mem.go's Stats() introspection in a single counter.
func (p *Port) TorqueWriteCount() uint64 { return p.torqueWrites.Load() }

// SimulateDisconnect pushes a Disconnected event. Non-blocking: if the
// event queue is full the event is dropped, matching every other
// non-blocking boundary in the core.
func (p *Port) SimulateDisconnect(reason string) {
	p.offer(port.ConnectionEvent{State: port.Disconnected, Reason: reason, TimestampNs: p.clock.Now()})
}

// SimulateFault pushes a Faulted event with reason, for exercising the
// safety service's hot-plug-as-fault path in tests without hardware.
func (p *Port) SimulateFault(reason string) {
	p.offer(port.ConnectionEvent{State: port.Faulted, Reason: reason, TimestampNs: p.clock.Now()})
}

// SimulateReconnect pushes a Connected event.
func (p *Port) SimulateReconnect() {
	p.offer(port.ConnectionEvent{State: port.Connected, TimestampNs: p.clock.Now()})
}

func (p *Port) offer(e port.ConnectionEvent) {
	select {
	case p.events <- e:
	default:
	}
}

var _ port.DevicePort = (*Port)(nil)
