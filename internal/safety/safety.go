// Package safety implements the small state machine guarding commanded
// torque: it clamps outputs to the active limit and latches faults. The
// state is a discriminated struct published behind a lock-free
// single-writer handoff, so any goroutine can report a fault without
// taking a lock.
package safety

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dstrand/ffbcore/internal/rt"
)

// StateKind identifies which arm of the SafetyState union is current.
type StateKind uint8

const (
	StateSafeTorque StateKind = iota
	StateHighTorqueChallenge
	StateHighTorqueActive
	StateFaulted
)

func (k StateKind) String() string {
	switch k {
	case StateSafeTorque:
		return "SafeTorque"
	case StateHighTorqueChallenge:
		return "HighTorqueChallenge"
	case StateHighTorqueActive:
		return "HighTorqueActive"
	case StateFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// state is the immutable snapshot published by every transition. Service
// never mutates a state in place — every transition swaps in a brand new
// value, a total replacement, which is what lets ReportFault be called
// safely from any thread without a lock.
type state struct {
	kind StateKind

	// HighTorqueChallenge / HighTorqueActive fields.
	token       uuid.UUID
	issuedAtNs  uint64
	activeSince uint64
	lastHandsOn uint64

	// Faulted fields.
	fault      FaultKind
	faultSince uint64
}

// Service owns exactly one safety state per device. It is safe for
// concurrent use: ReportFault may be called from any goroutine, while
// ClampTorqueNm and Observe are called once per tick from the RT worker.
type Service struct {
	cur atomic.Pointer[state]

	clock rt.Clock

	safeMaxNm  float32
	highMaxNm  float32

	challengeTimeout    time.Duration
	faultDwellMinimum   time.Duration
	handsOffGracePeriod time.Duration
}

// Option configures a Service beyond its two torque limits.
type Option func(*Service)

// WithChallengeTimeout overrides how long a HighTorqueChallenge token stays
// valid before it must be reissued. Default: constants.DefaultHighTorqueChallengeTimeout.
func WithChallengeTimeout(d time.Duration) Option {
	return func(s *Service) { s.challengeTimeout = d }
}

// WithFaultDwellMinimum overrides the minimum time a Faulted state must be
// held before ClearFault is accepted.
func WithFaultDwellMinimum(d time.Duration) Option {
	return func(s *Service) { s.faultDwellMinimum = d }
}

// WithHandsOffGracePeriod overrides how long HighTorqueActive tolerates a
// hands-off frame before auto-faulting with FaultHandsOffTimeout.
func WithHandsOffGracePeriod(d time.Duration) Option {
	return func(s *Service) { s.handsOffGracePeriod = d }
}

// NewService constructs a Service starting in SafeTorque, with safeMaxNm
// and highMaxNm as the two permitted clamp magnitudes (defaults 5 Nm and
// 25 Nm).
func NewService(safeMaxNm, highMaxNm float32, clock rt.Clock, opts ...Option) *Service {
	s := &Service{
		clock:               clock,
		safeMaxNm:            safeMaxNm,
		highMaxNm:            highMaxNm,
		challengeTimeout:     5 * time.Second,
		faultDwellMinimum:    500 * time.Millisecond,
		handsOffGracePeriod:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cur.Store(&state{kind: StateSafeTorque})
	return s
}

// State returns the current state's kind, for diagnostics and tests.
func (s *Service) State() StateKind {
	return s.cur.Load().kind
}

// MaxTorqueNm returns the magnitude ClampTorqueNm currently enforces: 0 in
// Faulted, safeMaxNm in SafeTorque/HighTorqueChallenge, highMaxNm in
// HighTorqueActive. After ReportFault(k), the very next observation of
// this from any thread returns 0.
func (s *Service) MaxTorqueNm() float32 {
	switch s.cur.Load().kind {
	case StateFaulted:
		return 0
	case StateHighTorqueActive:
		return s.highMaxNm
	default:
		return s.safeMaxNm
	}
}

// ClampTorqueNm clamps x into [-limit, +limit] where limit is MaxTorqueNm.
// NaN clamps to 0; ±Inf saturate to ±limit like any other out-of-range
// value. The two cases are deliberately different: NaN has no sign to
// saturate toward, but infinity does.
func (s *Service) ClampTorqueNm(x float32) float32 {
	limit := s.MaxTorqueNm()
	if limit == 0 {
		return 0
	}
	if x != x {
		return 0
	}
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}

// ReportFault transitions unconditionally to Faulted{kind} from any state.
// Callable from any goroutine; the swap is the only write, so the next
// tick's atomic load of state observes it without a lock — effectively
// zero output latency, bounded only by the scheduler's own tick rate.
func (s *Service) ReportFault(kind FaultKind) {
	s.cur.Store(&state{kind: StateFaulted, fault: kind, faultSince: s.clock.Now()})
}

// RequestHighTorque transitions SafeTorque -> HighTorqueChallenge and
// returns a fresh challenge token. It fails from any other state.
func (s *Service) RequestHighTorque(deviceToken string) (uuid.UUID, error) {
	cur := s.cur.Load()
	if cur.kind != StateSafeTorque {
		return uuid.UUID{}, newTransitionError("request_high_torque", cur.kind, "only permitted from SafeTorque")
	}
	token := uuid.New()
	next := &state{kind: StateHighTorqueChallenge, token: token, issuedAtNs: s.clock.Now()}
	if !s.cur.CompareAndSwap(cur, next) {
		return uuid.UUID{}, newTransitionError("request_high_torque", s.cur.Load().kind, "concurrent transition")
	}
	return token, nil
}

// ConfirmHighTorque transitions HighTorqueChallenge -> HighTorqueActive iff
// token matches the outstanding challenge and it has not expired.
func (s *Service) ConfirmHighTorque(token uuid.UUID) error {
	cur := s.cur.Load()
	if cur.kind != StateHighTorqueChallenge {
		return newTransitionError("confirm_high_torque", cur.kind, "no outstanding challenge")
	}
	if cur.token != token {
		return newTransitionError("confirm_high_torque", cur.kind, "token mismatch")
	}
	now := s.clock.Now()
	if now-cur.issuedAtNs > uint64(s.challengeTimeout.Nanoseconds()) {
		// Expired challenge reverts to SafeTorque rather than staying stuck.
		s.cur.CompareAndSwap(cur, &state{kind: StateSafeTorque})
		return newTransitionError("confirm_high_torque", cur.kind, "challenge expired")
	}
	next := &state{kind: StateHighTorqueActive, activeSince: now, lastHandsOn: now}
	if !s.cur.CompareAndSwap(cur, next) {
		return newTransitionError("confirm_high_torque", s.cur.Load().kind, "concurrent transition")
	}
	return nil
}

// AbortHighTorqueChallenge reverts HighTorqueChallenge -> SafeTorque
// without requiring a token, matching the diagram's "timeout/abort" edge.
func (s *Service) AbortHighTorqueChallenge() error {
	cur := s.cur.Load()
	if cur.kind != StateHighTorqueChallenge {
		return newTransitionError("abort_high_torque_challenge", cur.kind, "no outstanding challenge")
	}
	if !s.cur.CompareAndSwap(cur, &state{kind: StateSafeTorque}) {
		return newTransitionError("abort_high_torque_challenge", s.cur.Load().kind, "concurrent transition")
	}
	return nil
}

// ClearFault transitions Faulted -> SafeTorque iff the dwell minimum has
// elapsed since the fault was latched.
func (s *Service) ClearFault() error {
	cur := s.cur.Load()
	if cur.kind != StateFaulted {
		return newTransitionError("clear_fault", cur.kind, "not faulted")
	}
	elapsed := s.clock.Now() - cur.faultSince
	if elapsed < uint64(s.faultDwellMinimum.Nanoseconds()) {
		return newTransitionError("clear_fault", cur.kind, "dwell minimum not elapsed")
	}
	if !s.cur.CompareAndSwap(cur, &state{kind: StateSafeTorque}) {
		return newTransitionError("clear_fault", s.cur.Load().kind, "concurrent transition")
	}
	return nil
}

// Observe is called once per tick by the RT worker with the just-executed
// Frame. In HighTorqueActive it tracks hands_off dwell and auto-faults with
// FaultHandsOffTimeout once the grace period is exceeded. It also
// auto-reports PipelineFault when the frame's sticky bit is set.
func (s *Service) Observe(f *rt.Frame) {
	if f.PipelineFault {
		s.ReportFault(FaultPipelineFault)
		return
	}

	cur := s.cur.Load()
	if cur.kind != StateHighTorqueActive {
		return
	}

	now := f.TSMonoNs
	if !f.HandsOff {
		next := *cur
		next.lastHandsOn = now
		s.cur.CompareAndSwap(cur, &next)
		return
	}

	if now-cur.lastHandsOn > uint64(s.handsOffGracePeriod.Nanoseconds()) {
		s.cur.CompareAndSwap(cur, &state{kind: StateFaulted, fault: FaultHandsOffTimeout, faultSince: now})
	}
}
