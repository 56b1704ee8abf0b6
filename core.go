// Package ffbcore wires the RT scheduler, compiled pipeline, safety
// service, device port (port.DevicePort), and blackbox recorder into one
// running force-feedback core. CreateAndRun starts the tick loop; Stop
// cancels it, waits for exit, and finalizes the recorder.
package ffbcore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dstrand/ffbcore/internal/blackbox"
	"github.com/dstrand/ffbcore/internal/config"
	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/curve"
	"github.com/dstrand/ffbcore/internal/logging"
	"github.com/dstrand/ffbcore/internal/pipeline"
	"github.com/dstrand/ffbcore/internal/port"
	"github.com/dstrand/ffbcore/internal/rt"
	"github.com/dstrand/ffbcore/internal/safety"
	"github.com/dstrand/ffbcore/internal/scheduler"
	"github.com/dstrand/ffbcore/internal/telemetry"
)

// Params configures a Core. Only Port is mandatory; everything else has a
// neutral/disabled default, matching config.Default()'s "empty pipeline
// passes through" fixture.
type Params struct {
	DeviceID string // human-readable identifier, used in error context and blackbox headers

	Port port.DevicePort

	FilterConfig  config.FilterConfig
	ResponseCurve *curve.Spec // optional; applied once before every node

	Runtime *config.RuntimeConfig // nil uses config.Default()

	// Recorder, if non-nil, receives every tick's frame, plus whatever
	// Telemetry yields, until Stop finalizes it. A nil Recorder means no
	// blackbox is kept, which is a legitimate mode for a library caller
	// such as a unit test, even though production always wires one.
	Recorder *blackbox.Handle

	Telemetry telemetry.Feed // optional, non-blocking

	Logger *logging.Logger
	Clock  rt.Clock // nil uses rt.MonotonicClock{}
}

// Core is one running force-feedback device: a scheduler tick loop, a
// hot-swappable compiled pipeline, a safety service, and whatever
// recorder/telemetry the caller wired in.
type Core struct {
	deviceID string
	port     port.DevicePort
	safety   *safety.Service
	sched    *scheduler.Scheduler
	compiler *pipeline.Compiler
	pipeline atomic.Pointer[pipeline.Pipeline]
	recorder *blackbox.Handle
	telemetry telemetry.Feed
	metrics  *Metrics
	logger   *logging.Logger
	clock    rt.Clock

	cancel context.CancelFunc
	wg     sync.WaitGroup

	runErrMu sync.Mutex
	runErr   error

	lastTickNs atomic.Uint64
}

// CreateAndRun compiles the initial pipeline, constructs the safety
// service, and starts the 1kHz tick loop on a background goroutine. It
// returns once the loop has been launched; use Stop to shut it down.
func CreateAndRun(ctx context.Context, params Params) (*Core, error) {
	if params.Port == nil {
		return nil, NewError("CreateAndRun", ErrCodeConfigInvalid, "Port is required")
	}
	if params.Runtime == nil {
		params.Runtime = config.Default()
	}
	if params.Clock == nil {
		params.Clock = rt.MonotonicClock{}
	}
	if params.Logger == nil {
		params.Logger = logging.Default()
	}

	compiler := pipeline.NewCompiler()
	p, err := compiler.Compile(params.FilterConfig, params.ResponseCurve)
	if err != nil {
		return nil, WrapError("CreateAndRun", err)
	}

	svc := safety.NewService(params.Runtime.Scheduler.SafeTorqueNm, params.Runtime.Scheduler.HighTorqueNm, params.Clock)

	c := &Core{
		deviceID:  params.DeviceID,
		port:      params.Port,
		safety:    svc,
		sched:     scheduler.New(params.Clock),
		compiler:  compiler,
		recorder:  params.Recorder,
		telemetry: params.Telemetry,
		metrics:   NewMetrics(),
		logger:    params.Logger,
		clock:     params.Clock,
	}
	c.pipeline.Store(p)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(runCtx)

	c.logger.Info("core started", "device", params.DeviceID, "nodes", p.NodeCount())
	return c, nil
}

// run is the background goroutine driving the scheduler. The only error
// the scheduler returns is a timing violation, which is latched as a
// safety fault and stashed for Stop to surface.
func (c *Core) run(ctx context.Context) {
	defer c.wg.Done()

	err := c.sched.Run(ctx, c.readInputs, c.tick)
	if err != nil {
		c.safety.ReportFault(safety.FaultTimingViolation)
		c.metrics.RecordFault(safety.FaultTimingViolation)
	}
	c.runErrMu.Lock()
	c.runErr = err
	c.runErrMu.Unlock()
}

// readInputs implements scheduler.InputsFunc against the wired DevicePort.
func (c *Core) readInputs() (ffbIn, wheelSpeed float32) {
	c.drainConnectionEvents()
	in := c.port.ReadInputs()
	return in.FFBIn, in.WheelSpeed
}

// drainConnectionEvents translates any pending hot-plug/fault
// notification into a safety fault. Non-blocking: drains whatever is
// queued and returns immediately.
func (c *Core) drainConnectionEvents() {
	for {
		select {
		case ev := <-c.port.ConnectionEvents():
			switch ev.State {
			case port.Faulted:
				c.safety.ReportFault(safety.FaultUsbStall)
				c.metrics.RecordFault(safety.FaultUsbStall)
			case port.Disconnected:
				c.safety.ReportFault(safety.FaultUsbStall)
				c.metrics.RecordFault(safety.FaultUsbStall)
			case port.Connected:
				// Reconnection alone does not clear a latched fault;
				// ClearFault requires an explicit operator call once the
				// dwell minimum elapses.
			}
		default:
			return
		}
	}
}

// tick implements scheduler.TickFunc: executes the current pipeline,
// clamps through the safety service, writes torque to the port, and
// offers the frame to the recorder/telemetry.
func (c *Core) tick(f *rt.Frame) {
	if prev := c.lastTickNs.Swap(f.TSMonoNs); prev != 0 {
		delta := int64(f.TSMonoNs) - int64(prev)
		c.metrics.RecordTick(delta-int64(constants.TickPeriodNs), delta > int64(constants.TickPeriodNs))
	}

	p := c.pipeline.Load()
	var trace [pipeline.MaxTraceNodes]float32
	traceCount := p.ExecuteTraced(f, &trace)

	c.safety.Observe(f)
	clamped := c.safety.ClampTorqueNm(f.TorqueOut)
	f.TorqueOut = clamped

	tBeforeWrite := c.clock.Now()
	writeErr := c.port.WriteTorque(clamped)
	c.metrics.RecordTorqueWrite(writeErr)
	if writeErr != nil {
		c.logger.Warn("torque write failed", "device", c.deviceID, "err", writeErr.Error())
	}
	processingUs := uint32((c.clock.Now() - tBeforeWrite) / 1000)

	if c.recorder != nil {
		c.recorder.RecordFrame(f, trace, traceCount, c.safety.State(), processingUs)
		if c.telemetry != nil {
			if sample, ok := c.telemetry.TryRecv(); ok {
				c.recorder.RecordTelemetry(sample)
			}
		}
	}
}

// Compile recompiles the pipeline off the RT thread and atomically swaps
// it in. The RT worker never observes a partially-built pipeline: the
// swap is the only mutation, a single pointer publish.
func (c *Core) Compile(cfg config.FilterConfig, responseCurve *curve.Spec) error {
	start := c.clock.Now()
	p, err := c.compiler.Compile(cfg, responseCurve)
	c.metrics.RecordCompile(c.clock.Now()-start, err)
	if err != nil {
		return WrapError("Core.Compile", err)
	}
	c.pipeline.Store(p)
	return nil
}

// State returns the safety service's current state kind.
func (c *Core) State() safety.StateKind { return c.safety.State() }

// ReportFault reports a fault to the safety service directly, bypassing
// the connection-event path (e.g. a plugin overrun detected upstream).
func (c *Core) ReportFault(kind safety.FaultKind) {
	c.safety.ReportFault(kind)
	c.metrics.RecordFault(kind)
}

// RequestHighTorque starts a high-torque challenge.
func (c *Core) RequestHighTorque() (uuid.UUID, error) {
	token, err := c.safety.RequestHighTorque("")
	if err != nil {
		return uuid.UUID{}, WrapError("Core.RequestHighTorque", err)
	}
	return token, nil
}

// ConfirmHighTorque confirms an outstanding high-torque challenge.
func (c *Core) ConfirmHighTorque(token uuid.UUID) error {
	if err := c.safety.ConfirmHighTorque(token); err != nil {
		return WrapError("Core.ConfirmHighTorque", err)
	}
	return nil
}

// ClearFault clears a latched fault once the dwell minimum has elapsed.
func (c *Core) ClearFault() error {
	if err := c.safety.ClearFault(); err != nil {
		return WrapError("Core.ClearFault", err)
	}
	return nil
}

// Metrics returns the core's operational counters.
func (c *Core) Metrics() *Metrics { return c.metrics }

// SchedulerMetrics exposes the scheduler's own jitter/missed-tick
// statistics, distinct from Metrics' coarser tick counters.
func (c *Core) SchedulerMetrics() *scheduler.JitterMetrics { return c.sched.Metrics() }

// Stop cancels the tick loop, waits for it to exit, finalizes the
// recorder if one is wired, and returns whatever error the scheduler
// surfaced (nil on a clean context-cancel shutdown).
func (c *Core) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return WrapError("Core.Stop", fmt.Errorf("timed out waiting for tick loop to exit: %w", ctx.Err()))
	case <-time.After(2 * time.Second):
		return NewError("Core.Stop", ErrCodeNotRunning, "tick loop did not exit within 2s of cancellation")
	}

	c.metrics.Stop()

	if c.recorder != nil {
		if _, err := c.recorder.Finalize(); err != nil {
			return WrapError("Core.Stop", err)
		}
	}

	c.runErrMu.Lock()
	err := c.runErr
	c.runErrMu.Unlock()
	return err
}
