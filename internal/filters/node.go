// Package filters implements the closed catalogue of signal-processing
// nodes the pipeline compiles into: reconstruction, friction, damper,
// inertia, notch, slew-rate, curve, torque cap, bumpstop and hands-off
// detector. Every node is a pair of immutable parameters and mutable
// per-instance state behind a single Step method. No node implementation
// allocates, performs syscalls, blocks, or logs — that is enforced by
// review, not the type system, since Step runs on the RT tick thread.
package filters

import (
	"math"

	"github.com/dstrand/ffbcore/internal/rt"
)

// Node is a closed set of concrete types implementing one interface,
// assembled into a []Node by the compiler in canonical order. An
// interface value already carries its own state pointer and vtable, so
// per-node dispatch through Step is allocation-free with no need for
// type-erasure tricks.
type Node interface {
	// Step executes this node in place on the frame. Implementations
	// MUST be RT-safe: no allocation, no syscalls, no blocking, no
	// logging.
	Step(f *rt.Frame)
}

// substituteOnNonFinite is the shared non-finite guard every node applies
// to its own output before writing back to the frame: any node that would
// produce a non-finite output substitutes zero and sets the sticky
// pipeline_fault flag instead.
func substituteOnNonFinite(f *rt.Frame, value float32) float32 {
	v := float64(value)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		f.PipelineFault = true
		return 0
	}
	return value
}
