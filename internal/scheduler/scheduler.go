// Package scheduler implements the single-threaded cooperative 1kHz tick
// loop: absolute-deadline scheduling with PLL drift correction, a
// pre-deadline sleep plus busy-spin tail, and jitter/missed-tick metrics.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/rt"
)

// ErrTimingViolation is returned by Run when an individual tick's jitter
// exceeds constants.JitterP99BudgetNs. The caller is expected to report
// this to the safety service as FaultTimingViolation and decide whether to
// keep running or stop: a hard timeout forces the worker to drop to the
// safety service's Faulted{TimingViolation} path and return.
var ErrTimingViolation = errors.New("scheduler: tick jitter exceeded budget")

// TickFunc is invoked once per tick with a Frame already populated with
// FFBIn, WheelSpeed, TSMonoNs and Seq. It is responsible for acquiring
// the compiled pipeline, executing it,
// consulting safety, writing the commanded torque to the device, and
// offering the tick to the blackbox recorder — everything the scheduler
// itself stays decoupled from so it can be tested without a device, a
// pipeline or a recorder.
type TickFunc func(f *rt.Frame)

// InputsFunc supplies the raw per-tick inputs the scheduler stamps into
// the Frame at step 3. Implementations must be non-blocking.
type InputsFunc func() (ffbIn, wheelSpeed float32)

// Scheduler runs the absolute-deadline tick loop. It owns no device,
// pipeline or safety reference; those are wired by the caller through
// TickFunc and InputsFunc.
type Scheduler struct {
	clock   rt.Clock
	pll     *PLL
	metrics *JitterMetrics

	nextTickNs uint64
	tickCount  uint64
	started    bool
}

// New constructs a Scheduler targeting the core's fixed 1kHz tick rate.
func New(clock rt.Clock) *Scheduler {
	return &Scheduler{
		clock:   clock,
		pll:     NewPLL(constants.TickPeriodNs),
		metrics: NewJitterMetrics(),
	}
}

// Metrics exposes the running jitter/missed-tick statistics.
func (s *Scheduler) Metrics() *JitterMetrics { return s.metrics }

// TickCount returns the number of completed ticks.
func (s *Scheduler) TickCount() uint64 { return s.tickCount }

// Run executes the tick loop until ctx is cancelled or a tick's jitter
// exceeds the hard budget, in which case it returns ErrTimingViolation.
// Exactly one suspension point exists per tick: the pre-deadline sleep.
//
// The schedule is absolute: nextTickNs always advances by adding the
// PLL-corrected period to the PREVIOUS target, never to the wall-clock
// time processing happened to finish at. That is what makes a slow tick
// observable as a missed deadline on the following iteration instead of
// silently absorbed: the target for tick N+1 is fixed the moment tick N's
// suspension ends, before tick N's own frame processing (TickFunc) even
// runs.
func (s *Scheduler) Run(ctx context.Context, inputs InputsFunc, tick TickFunc) error {
	if !s.started {
		s.nextTickNs = s.clock.Now() + constants.TickPeriodNs
		s.started = true
	}

	var seq uint16
	f := &rt.Frame{}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tEntry := s.clock.Now()
		missedDeadline := tEntry >= s.nextTickNs

		if !missedDeadline {
			s.sleepUntil(s.nextTickNs)
		}

		tActual := s.clock.Now()
		var jitterNs uint64
		if tActual >= s.nextTickNs {
			jitterNs = tActual - s.nextTickNs
		} else {
			jitterNs = s.nextTickNs - tActual
		}
		s.metrics.RecordTick(jitterNs, missedDeadline)

		correctedPeriod := s.pll.Update(tActual)
		s.tickCount++
		s.nextTickNs += correctedPeriod

		ffbIn, wheelSpeed := inputs()
		seq++
		f.Reset(ffbIn, wheelSpeed, tActual, seq)

		tick(f)

		if jitterNs > constants.JitterP99BudgetNs {
			return ErrTimingViolation
		}
	}
}

// sleepUntil sleeps via time.Sleep until ~SpinTailNs before targetNs, then
// busy-spins the remainder against the scheduler's clock. Go has no
// portable equivalent of Rust's std::hint::spin_loop or a clock_nanosleep
// binding in the standard library, so the busy-spin body is a bare empty
// loop condition — this is intentional, not an oversight.
func (s *Scheduler) sleepUntil(targetNs uint64) {
	now := s.clock.Now()
	if targetNs <= now {
		return
	}
	remaining := targetNs - now

	if remaining > constants.SpinTailNs {
		time.Sleep(time.Duration(remaining - constants.SpinTailNs))
	}

	for s.clock.Now() < targetNs {
	}
}
