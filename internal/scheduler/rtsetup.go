package scheduler

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/logging"
)

// RTSetup configures the optional OS-level real-time accommodations the
// scheduler applies to the calling OS thread before it starts ticking.
// Every knob collapses to a single Linux path plus a no-op elsewhere,
// since RT wheel-base I/O threads only run on Linux in practice.
type RTSetup struct {
	// HighPriority requests SCHED_FIFO at constants.RTThreadPriority.
	HighPriority bool

	// LockMemory calls mlockall(MCL_CURRENT|MCL_FUTURE) to keep the
	// process's pages resident.
	LockMemory bool

	// CPUAffinity pins the calling thread to a single CPU core. -1 means no
	// affinity is requested.
	CPUAffinity int

	// DisablePowerThrottling requests that the OS not throttle this
	// thread's clock for power savings. Linux has no portable
	// syscall-level analogue (unlike Windows'
	// THREAD_POWER_THROTTLING_EXECUTION_SPEED), so this is a logged no-op
	// here.
	DisablePowerThrottling bool
}

// DefaultRTSetup requests every accommodation but no CPU pin.
func DefaultRTSetup() RTSetup {
	return RTSetup{HighPriority: true, LockMemory: true, DisablePowerThrottling: true, CPUAffinity: -1}
}

// ApplyRTSetup applies setup to the calling OS thread. The caller MUST have
// already called runtime.LockOSThread(), since every one of these settings
// is thread-scoped on Linux. Every step is best-effort: a failure is
// logged and setup continues rather than treated as fatal.
func ApplyRTSetup(setup RTSetup, logger *logging.Logger) {
	if setup.CPUAffinity >= 0 {
		var mask unix.CPUSet
		mask.Set(setup.CPUAffinity)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			if logger != nil {
				logger.Warnf("scheduler: failed to set CPU affinity to %d: %v", setup.CPUAffinity, err)
			}
		} else if logger != nil {
			logger.Debugf("scheduler: pinned to CPU %d", setup.CPUAffinity)
		}
	}

	if setup.LockMemory {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			if logger != nil {
				logger.Warnf("scheduler: mlockall failed: %v", err)
			}
		}
	}

	if setup.HighPriority {
		applySchedFIFO(constants.RTThreadPriority, logger)
	}

	if setup.DisablePowerThrottling && logger != nil {
		logger.Debugf("scheduler: power-throttling disable requested; no-op on this platform")
	}
}

// applySchedFIFO best-effort requests SCHED_FIFO at the given priority via
// sched_setscheduler(2). Unprivileged processes typically lack
// CAP_SYS_NICE, so failure here is routine and never fatal — it is logged
// at Debug, not Warn, to avoid alarming operators running unprivileged.
func applySchedFIFO(priority int, logger *logging.Logger) {
	param := unix.SchedParam{Priority: int32(priority)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &param); err != nil {
		if logger != nil {
			logger.Debugf("scheduler: SCHED_FIFO unavailable (priority %d): %v", priority, err)
		}
		return
	}
	if logger != nil {
		logger.Debugf("scheduler: applied SCHED_FIFO priority %d", priority)
	}
}

// PinCurrentThread is a small convenience wrapper so callers don't need to
// import "runtime" solely to lock the tick goroutine to its OS thread.
func PinCurrentThread() func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}
