// Package pipeline implements the compiled, RT-safe force-feedback filter
// pipeline and the off-thread compiler that produces one from a
// declarative config.FilterConfig.
package pipeline

import (
	"github.com/dstrand/ffbcore/internal/curve"
	"github.com/dstrand/ffbcore/internal/filters"
	"github.com/dstrand/ffbcore/internal/rt"
)

// Pipeline is the compiled, immutable-shape sequence of filter nodes plus
// an optional response-curve LUT. Once compiled, the node sequence,
// parameters and hash never change; only node-internal state mutates, and
// only from the RT worker.
type Pipeline struct {
	nodes      []filters.Node
	curve      *curve.LUT
	configHash uint64
}

// ConfigHash returns the stable content hash identifying this pipeline.
func (p *Pipeline) ConfigHash() uint64 { return p.configHash }

// Execute seeds TorqueOut from FFBIn (shaped by the response curve, if
// one is configured), then walks the node sequence in canonical order.
// Every call starts from FFBIn regardless of whatever TorqueOut held on
// entry, so a Frame can be reused or reconstructed by any caller without
// first replicating the scheduler's own Frame-reset convention. RT-safe:
// no allocation, no locks, no syscalls.
//
// The response curve is a separate, top-level input-shaping curve over
// the raw [-1,+1] FFBIn, applied once before any node sees the frame. It
// is distinct from the catalogue "Curve" node (config.FilterConfig.
// CurvePoints), which remaps TorqueOut mid-chain; a pipeline may have
// either, neither, or both.
func (p *Pipeline) Execute(f *rt.Frame) {
	p.seedTorqueOut(f)
	for _, n := range p.nodes {
		n.Step(f)
	}
}

// seedTorqueOut sets TorqueOut to the response-curve-shaped input value,
// or to FFBIn when no response curve is configured. FFBIn itself is left
// untouched, so a recorded frame still carries the raw input.
func (p *Pipeline) seedTorqueOut(f *rt.Frame) {
	if p.curve == nil {
		f.TorqueOut = f.FFBIn
		return
	}
	sign := float32(1)
	mag := f.FFBIn
	if mag < 0 {
		sign = -1
		mag = -mag
	}
	f.TorqueOut = sign * p.curve.Lookup(mag)
}

// NodeCount exposes the instantiated node count, mainly for tests and
// diagnostics.
func (p *Pipeline) NodeCount() int { return len(p.nodes) }

// MaxTraceNodes bounds the per-node output snapshot ExecuteTraced writes,
// giving the blackbox frame record a fixed, allocation-free capacity
// instead of growing with however many notch filters a config happens to
// enable.
const MaxTraceNodes = 16

// ExecuteTraced behaves exactly like Execute but additionally records
// TorqueOut after every node into trace, up to MaxTraceNodes entries. It
// returns how many entries it wrote. Pipelines with more than
// MaxTraceNodes nodes still execute every node correctly; only the
// recorded snapshot truncates, and the dropped tail never affects
// TorqueOut itself. This stays RT-safe: trace is caller-owned and never
// allocated here.
func (p *Pipeline) ExecuteTraced(f *rt.Frame, trace *[MaxTraceNodes]float32) int {
	p.seedTorqueOut(f)
	n := 0
	for _, node := range p.nodes {
		node.Step(f)
		if n < MaxTraceNodes {
			trace[n] = f.TorqueOut
			n++
		}
	}
	return n
}
