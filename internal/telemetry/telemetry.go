// Package telemetry defines the normalised sim-telemetry shape Stream B
// of the blackbox recorder carries, and the non-blocking feed interface
// the core polls it through. Trimmed to the fields the FFB core itself
// consumes or archives — lap count, fuel, and tire thermals belong to a
// full sim-dashboard adapter, not this core, and are left out.
package telemetry

// NormalizedTelemetry is one vendor-agnostic telemetry sample, already
// converted out of whatever units/endianness the originating sim UDP
// feed used. TimestampNs is stamped by the adapter at receipt, not
// reconstructed later, so replay can preserve original arrival spacing.
type NormalizedTelemetry struct {
	TimestampNs    uint64
	SpeedMps       float32
	RPM            float32
	Gear           int8
	Throttle       float32 // [0,1]
	Brake          float32 // [0,1]
	SteeringAngle  float32 // radians, +right
	LateralG       float32
	LongitudinalG  float32
	FFBScalar      float32 // sim-reported suggested FFB scale, if any
	Flags          uint32  // adapter-specific bit flags (e.g. off-track, in-pits)
}

// Feed is the non-blocking telemetry source the core polls once per tick,
// when a blackbox recorder is wired, to feed the recorder's telemetry stream.
// Implementations must never block TryRecv: a stalled sim UDP link must
// never stall the RT tick loop.
type Feed interface {
	// TryRecv returns the next buffered sample and true, or the zero
	// value and false if none is currently available.
	TryRecv() (NormalizedTelemetry, bool)
}
