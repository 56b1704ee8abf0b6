package filters

import (
	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/rt"
)

// Bumpstop adds a non-linear spring+damper force once the wheel passes
// start_angle, growing toward max_angle, then re-clamps the combined
// result into range: bumpstop adds on top of whatever came before it, but
// the sum is itself clamped before leaving the node.
//
// Frame carries wheel_speed but no absolute angle. Bumpstop needs one, so
// it integrates wheel_speed at the fixed 1kHz tick period into an internal
// angle accumulator — the one piece of mutable state this node carries
// beyond its configured parameters. See DESIGN.md for this decision.
type Bumpstop struct {
	startAngle, maxAngle float32
	stiffness, damping   float32
	cap                  float32
	angle                float32
}

// NewBumpstop constructs a Bumpstop node. cap is the pipeline's torque
// cap, used to re-clamp the combined result into range.
func NewBumpstop(startAngle, maxAngle, stiffness, damping, cap float32) *Bumpstop {
	return &Bumpstop{
		startAngle: startAngle,
		maxAngle:   maxAngle,
		stiffness:  stiffness,
		damping:    damping,
		cap:        cap,
	}
}

const tickPeriodSeconds = 1.0 / float32(constants.TickRateHz)

func (n *Bumpstop) Step(f *rt.Frame) {
	n.angle += f.WheelSpeed * tickPeriodSeconds

	mag := n.angle
	sign := float32(1)
	if mag < 0 {
		mag = -mag
		sign = -1
	}

	out := f.TorqueOut
	if mag > n.startAngle {
		span := n.maxAngle - n.startAngle
		reach := mag - n.startAngle
		if reach > span {
			reach = span
		}
		var progress float32
		if span > 0 {
			progress = reach / span
		} else {
			progress = 1
		}
		spring := -sign * n.stiffness * progress
		damper := -n.damping * f.WheelSpeed
		out += spring + damper
	}

	f.TorqueOut = substituteOnNonFinite(f, Clamp(out, -n.cap, n.cap))
}
