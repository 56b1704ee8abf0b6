// Package replay loads a sealed blackbox recording, re-executes its
// recorded input frames through a freshly compiled pipeline, and reports
// how closely the recomputed output matches what was originally recorded,
// within a configured floating-point tolerance.
package replay

import (
	"math"
	"time"

	"github.com/dstrand/ffbcore/internal/blackbox"
	"github.com/dstrand/ffbcore/internal/pipeline"
	"github.com/dstrand/ffbcore/internal/rt"
)

// Config tunes one replay run.
type Config struct {
	// DeterministicSeed is carried through for forward compatibility with
	// a future stochastic node (see DESIGN.md); no node in the current
	// catalogue consumes it.
	DeterministicSeed uint64

	// FPTolerance bounds |recorded torque_out - replayed torque_out| for a
	// frame to count as matched.
	FPTolerance float64

	// StrictTiming sleeps to each frame's recorded ts_mono_ns delta using
	// Clock, for diagnostic live-playback only; it never affects the
	// recomputed torque_out or any comparison.
	StrictTiming bool

	// MaxFrames bounds how many Stream A records are replayed, as a
	// safety limit against runaway recordings. Zero means no limit.
	MaxFrames uint64

	// ValidateOutputs controls whether per-frame comparisons are computed
	// at all; disabling it still replays every frame but skips
	// FrameComparisons/deviation bookkeeping.
	ValidateOutputs bool
}

// DefaultConfig returns a tight-tolerance, wall-clock-decoupled config with
// validation on.
func DefaultConfig() Config {
	return Config{
		DeterministicSeed: 0x12345678,
		FPTolerance:       1e-6,
		StrictTiming:      false,
		MaxFrames:         0,
		ValidateOutputs:   true,
	}
}

// FrameComparison is one frame's recorded-vs-replayed torque_out.
type FrameComparison struct {
	FrameIndex     uint64
	OriginalOutput float32
	ReplayedOutput float32
	Deviation      float64
	WithinTolerance bool
}

// deviation histogram bucket labels, fixed log-spaced bins.
const (
	bucketUnder1e9    = "<1e-9"
	bucket1e9To1e6    = "1e-9..1e-6"
	bucket1e6To1e3    = "1e-6..1e-3"
	bucket1e3To1e2    = "1e-3..1e-2"
	bucketAtLeast1e2  = ">=1e-2"
)

// HistogramBucketLabels lists Result.DeviationHistogram's keys in
// ascending-deviation order, for callers (e.g. ffbreplay) that print the
// histogram and want a stable row order.
var HistogramBucketLabels = []string{
	bucketUnder1e9,
	bucket1e9To1e6,
	bucket1e6To1e3,
	bucket1e3To1e2,
	bucketAtLeast1e2,
}

// Result is the aggregate outcome of one replay run.
type Result struct {
	FramesReplayed     uint64
	FramesMatched      uint64
	MaxDeviation       float64
	AvgDeviation       float64
	ReplayDuration     time.Duration
	OriginalDuration   time.Duration
	ValidationErrors   []string
	DeviationHistogram map[string]uint64
	Success            bool
}

// Replay holds one loaded recording plus the comparisons accumulated by
// Execute. A Replay is single-use: call Execute once, then read Result
// and Comparisons.
type Replay struct {
	cfg    Config
	clock  rt.Clock
	reader *blackbox.Reader
	frames []blackbox.FrameRecord

	pipeline *pipeline.Pipeline

	comparisons []FrameComparison
}

// Load opens path, validates every WBB1 invariant (magic, version,
// footer CRC, index monotonicity — all enforced by blackbox.Open), and
// decodes its Stream A records ready for replay against p. Load refuses
// to return a Replay over an invalid file, returning a FormatError
// instead.
func Load(path string, cfg Config, p *pipeline.Pipeline, clock rt.Clock) (*Replay, error) {
	reader, err := blackbox.Open(path)
	if err != nil {
		return nil, newFormatError("load", err)
	}

	frames, err := reader.Frames()
	if err != nil {
		return nil, newFormatError("decode stream A", err)
	}

	if clock == nil {
		clock = rt.MonotonicClock{}
	}

	return &Replay{cfg: cfg, clock: clock, reader: reader, frames: frames, pipeline: p}, nil
}

// Header exposes the validated file header, mainly for diagnostics.
func (r *Replay) Header() blackbox.Header { return r.reader.Header() }

// Footer exposes the validated file footer, mainly for diagnostics.
func (r *Replay) Footer() blackbox.Footer { return r.reader.Footer() }

// Comparisons returns every per-frame comparison from the most recent
// Execute call, in frame order.
func (r *Replay) Comparisons() []FrameComparison { return r.comparisons }

// Execute re-runs every recorded Stream A frame through the pipeline and
// compares recomputed torque_out against the recorded value. Deterministic:
// given the same pipeline and the same file, two calls (even across two
// different *Replay instances loaded from the same path) produce identical
// comparisons, since the pipeline catalogue has no stochastic node and
// replay never mutates safety state.
func (r *Replay) Execute() Result {
	start := time.Now()
	r.comparisons = r.comparisons[:0]

	var validationErrors []string
	var sumDeviation float64
	var maxDeviation float64
	var matched uint64
	histogram := map[string]uint64{
		bucketUnder1e9:   0,
		bucket1e9To1e6:   0,
		bucket1e6To1e3:   0,
		bucket1e3To1e2:   0,
		bucketAtLeast1e2: 0,
	}

	replayStart := r.clock.Now()
	var frame rt.Frame
	var n uint64
	for i, rec := range r.frames {
		if r.cfg.MaxFrames > 0 && n >= r.cfg.MaxFrames {
			break
		}
		n++

		// Start from the recorded input, not the recorded output: a
		// stateful node (e.g. slew-rate limiting) must see the same
		// from-scratch frame it saw during the original recording, not
		// one already carrying the old computed torque_out.
		frame = rec.Frame
		frame.TorqueOut = frame.FFBIn
		if r.pipeline != nil {
			r.pipeline.Execute(&frame)
		}

		if r.cfg.ValidateOutputs {
			deviation := math.Abs(float64(rec.Frame.TorqueOut) - float64(frame.TorqueOut))
			within := deviation <= r.cfg.FPTolerance
			r.comparisons = append(r.comparisons, FrameComparison{
				FrameIndex:      uint64(i),
				OriginalOutput:  rec.Frame.TorqueOut,
				ReplayedOutput:  frame.TorqueOut,
				Deviation:       deviation,
				WithinTolerance: within,
			})
			if within {
				matched++
			}
			sumDeviation += deviation
			if deviation > maxDeviation {
				maxDeviation = deviation
			}
			histogram[bucketFor(deviation)]++
		}

		if r.cfg.StrictTiming {
			target := time.Duration(rec.Frame.TSMonoNs-r.frames[0].TSMonoNs) * time.Nanosecond
			elapsed := time.Duration(r.clock.Now()-replayStart) * time.Nanosecond
			if target > elapsed {
				time.Sleep(target - elapsed)
			}
		}
	}

	avgDeviation := 0.0
	if len(r.comparisons) > 0 {
		avgDeviation = sumDeviation / float64(len(r.comparisons))
	}

	matchRate := 0.0
	if n > 0 {
		matchRate = float64(matched) / float64(n)
	}
	success := len(validationErrors) == 0 && matchRate >= 0.99

	return Result{
		FramesReplayed:     n,
		FramesMatched:      matched,
		MaxDeviation:        maxDeviation,
		AvgDeviation:        avgDeviation,
		ReplayDuration:      time.Since(start),
		OriginalDuration:    time.Duration(r.reader.Footer().DurationMs) * time.Millisecond,
		ValidationErrors:    validationErrors,
		DeviationHistogram:  histogram,
		Success:             success,
	}
}

func bucketFor(deviation float64) string {
	switch {
	case deviation < 1e-9:
		return bucketUnder1e9
	case deviation < 1e-6:
		return bucket1e9To1e6
	case deviation < 1e-3:
		return bucket1e6To1e3
	case deviation < 1e-2:
		return bucket1e3To1e2
	default:
		return bucketAtLeast1e2
	}
}
