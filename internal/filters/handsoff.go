package filters

import "github.com/dstrand/ffbcore/internal/rt"

// HandsOff sets frame.HandsOff when the input has stayed below threshold
// for longer than timeout, signalling the driver has let go of the wheel.
// The countdown resets on any input exceeding threshold.
type HandsOff struct {
	threshold      float32
	timeoutTicks   int
	countdown      int
}

// NewHandsOff constructs a HandsOff node. timeoutTicks is the configured
// timeout expressed in scheduler ticks (timeout_s * tick rate).
func NewHandsOff(threshold float32, timeoutTicks int) *HandsOff {
	return &HandsOff{
		threshold:    threshold,
		timeoutTicks: timeoutTicks,
		countdown:    timeoutTicks,
	}
}

func (n *HandsOff) Step(f *rt.Frame) {
	in := f.FFBIn
	if in < 0 {
		in = -in
	}
	if in > n.threshold {
		n.countdown = n.timeoutTicks
		f.HandsOff = false
		return
	}
	if n.countdown > 0 {
		n.countdown--
	}
	f.HandsOff = n.countdown == 0
}
