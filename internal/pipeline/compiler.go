package pipeline

import (
	"context"

	"github.com/dstrand/ffbcore/internal/config"
	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/curve"
	"github.com/dstrand/ffbcore/internal/filters"
	"github.com/dstrand/ffbcore/internal/values"
)

// Compiler turns a validated config.FilterConfig into a *Pipeline. It runs
// off the RT worker; Compile itself is not RT-safe (it allocates the node
// slice and, when a curve is supplied, the LUT).
type Compiler struct{}

// NewCompiler constructs a Compiler. It holds no state: every call to
// Compile is independent and synchronous (the async variant is
// CompileAsync below).
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile validates cfg, computes its config_hash, and walks the node
// catalogue in canonical order — reconstruction, friction, damper,
// inertia, notches, slew-rate, curve, torque cap, bumpstop, hands-off —
// instantiating only the nodes each config actually enables. responseCurve
// may be nil; when present it is pre-computed into a LUT and folded into
// the hash.
func (c *Compiler) Compile(cfg config.FilterConfig, responseCurve *curve.Spec) (*Pipeline, error) {
	if err := cfg.Validate(constants.TickRateHz); err != nil {
		return nil, newCompileError("invalid config", err)
	}

	var lut *curve.LUT
	if responseCurve != nil {
		if err := responseCurve.Validate(); err != nil {
			return nil, newCompileError("invalid response curve", err)
		}
		lut = responseCurve.ToLUT()
	}

	hash := configHash(cfg, lut)

	var nodes []filters.Node

	if cfg.ReconstructionLevel > 0 {
		nodes = append(nodes, filters.NewReconstruction(cfg.ReconstructionLevel))
	}
	if cfg.Friction != 0 {
		nodes = append(nodes, filters.NewFriction(cfg.Friction))
	}
	if cfg.Damper != 0 {
		nodes = append(nodes, filters.NewDamper(cfg.Damper))
	}
	if cfg.Inertia != 0 {
		nodes = append(nodes, filters.NewInertia(cfg.Inertia))
	}
	for _, n := range cfg.NotchFilters {
		nodes = append(nodes, filters.NewNotch(n.FrequencyHz, n.QFactor, n.GainDB, constants.TickRateHz))
	}
	if cfg.SlewRate < 1.0 {
		nodes = append(nodes, filters.NewSlewRate(cfg.SlewRate))
	}
	if !isIdentityCurve(cfg.CurvePoints) {
		pwl, err := curve.PiecewiseLinear(cfg.CurvePoints)
		if err != nil {
			return nil, newCompileError("curve_points", err)
		}
		nodes = append(nodes, filters.NewCurve(pwl.ToLUT()))
	}
	if cfg.TorqueCap < 1.0 {
		nodes = append(nodes, filters.NewTorqueCap(cfg.TorqueCap))
	}
	if cfg.Bumpstop.Enabled {
		nodes = append(nodes, filters.NewBumpstop(
			cfg.Bumpstop.StartAngle, cfg.Bumpstop.MaxAngle,
			cfg.Bumpstop.Stiffness, cfg.Bumpstop.Damping, cfg.TorqueCap))
	}
	if cfg.HandsOff.Enabled {
		timeoutTicks := int(cfg.HandsOff.TimeoutS * float32(constants.TickRateHz))
		nodes = append(nodes, filters.NewHandsOff(cfg.HandsOff.Threshold, timeoutTicks))
	}

	return &Pipeline{nodes: nodes, curve: lut, configHash: hash}, nil
}

// isIdentityCurve reports whether curve_points is the default two-point
// (0,0)->(1,1) identity curve, which the compiler omits rather than
// instantiating a no-op node for.
func isIdentityCurve(points []values.CurvePoint) bool {
	return len(points) == 2 &&
		points[0].Input == 0 && points[0].Output == 0 &&
		points[1].Input == 1 && points[1].Output == 1
}

// CompileResult is delivered through CompileAsync's bounded one-shot
// handoff channel, keeping recompilation off the RT worker entirely.
type CompileResult struct {
	Pipeline *Pipeline
	Err      error
}

// CompileAsync runs Compile on a dedicated goroutine and returns a
// buffered channel the RT worker (or its setup code) can poll without
// blocking: a single bounded handoff per call, since the core only ever
// has one pipeline in flight for recompilation at a time.
func CompileAsync(ctx context.Context, c *Compiler, cfg config.FilterConfig, responseCurve *curve.Spec) <-chan CompileResult {
	out := make(chan CompileResult, 1)
	go func() {
		defer close(out)
		p, err := c.Compile(cfg, responseCurve)
		select {
		case out <- CompileResult{Pipeline: p, Err: err}:
		case <-ctx.Done():
		}
	}()
	return out
}
