package safety

import "fmt"

// FaultKind enumerates the closed taxonomy of fault conditions the safety
// service latches on: a small set of named strings, not exception types,
// so they serialize cleanly into the blackbox and diagnostics output.
type FaultKind string

const (
	FaultUsbStall                 FaultKind = "usb_stall"
	FaultEncoderNaN               FaultKind = "encoder_nan"
	FaultThermalLimit             FaultKind = "thermal_limit"
	FaultOvercurrent              FaultKind = "overcurrent"
	FaultPluginOverrun            FaultKind = "plugin_overrun"
	FaultTimingViolation          FaultKind = "timing_violation"
	FaultSafetyInterlockViolation FaultKind = "safety_interlock_violation"
	FaultHandsOffTimeout          FaultKind = "hands_off_timeout"
	FaultPipelineFault            FaultKind = "pipeline_fault"
)

// TransitionError reports a request the current SafetyState does not
// permit, e.g. confirming a challenge with a stale token or clearing a
// fault before its dwell minimum has elapsed.
type TransitionError struct {
	Op      string
	State   StateKind
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("safety: %s rejected in state %s: %s", e.Op, e.State, e.Reason)
}

func newTransitionError(op string, state StateKind, reason string) *TransitionError {
	return &TransitionError{Op: op, State: state, Reason: reason}
}
