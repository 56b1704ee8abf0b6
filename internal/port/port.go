// Package port defines DevicePort, the non-blocking boundary between the
// core and whatever actually talks to the wheel base. HID transport,
// enumeration and hot-plug detection live outside this core; this
// package only defines the interface the core consumes and the
// connection-status vocabulary hot-plug events are expressed in.
package port

// FrameInputs is the per-tick input snapshot ReadInputs returns: the raw
// force-feedback command and wheel speed the scheduler stamps into the
// next Frame.
type FrameInputs struct {
	FFBIn      float32
	WheelSpeed float32
}

// ConnectionState is the closed set of states a DevicePort's connection
// stream reports: connected, disconnected, or faulted with a reason.
type ConnectionState uint8

const (
	Connected ConnectionState = iota
	Disconnected
	Faulted
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// ConnectionEvent is one sample off a DevicePort's connection-status
// stream. Reason is only meaningful when State is Faulted.
type ConnectionEvent struct {
	State       ConnectionState
	Reason      string
	TimestampNs uint64
}

// DevicePort is the core's only dependency on the physical wheel. Both
// methods must be non-blocking; the core calls ReadInputs and WriteTorque
// exactly once per tick from the RT worker.
type DevicePort interface {
	// ReadInputs returns the latest available input snapshot. It never
	// blocks: if no new sample has arrived since the last tick, it
	// returns the previous one.
	ReadInputs() FrameInputs

	// WriteTorque commands nm newton-meters to the device. It never
	// blocks; a port backed by a slow transport queues internally and
	// drops the oldest pending write rather than stalling the RT worker.
	WriteTorque(nm float32) error

	// ConnectionEvents returns a channel the core drains for hot-plug and
	// fault notifications, translated by the caller into
	// safety.Service.ReportFault calls. The channel is never closed by a
	// live port.
	ConnectionEvents() <-chan ConnectionEvent
}
