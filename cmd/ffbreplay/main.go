// Command ffbreplay replays a WBB1 blackbox recording through a freshly
// compiled pipeline and reports whether the replayed torque_out matches
// what was recorded. There is no device lifecycle to manage here — the
// pipeline runs entirely in-process against the recorded frames.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dstrand/ffbcore/internal/config"
	"github.com/dstrand/ffbcore/internal/logging"
	"github.com/dstrand/ffbcore/internal/pipeline"
	"github.com/dstrand/ffbcore/internal/replay"
)

func main() {
	var (
		recordingPath = flag.String("recording", "", "Path to a WBB1 blackbox recording (required)")
		configPath    = flag.String("config", "", "Path to a runtime config YAML to load and validate; replay always uses the identity filter config")
		strictTiming  = flag.Bool("strict-timing", false, "Sleep between frames to match recorded ts_mono_ns deltas (diagnostic only; never affects matching)")
		fpTolerance   = flag.Float64("fp-tolerance", 1e-6, "Per-frame torque_out absolute-deviation tolerance")
		verbose       = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	if *recordingPath == "" {
		fmt.Fprintln(os.Stderr, "ffbreplay: -recording is required")
		os.Exit(2)
	}

	filterCfg := config.Default()
	if *configPath != "" {
		runtimeCfg, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err.Error())
			os.Exit(1)
		}
		_ = runtimeCfg // runtime config carries recorder/scheduler knobs, not the filter chain itself
	}

	p, err := pipeline.NewCompiler().Compile(filterCfg, nil)
	if err != nil {
		logger.Error("failed to compile pipeline", "error", err.Error())
		os.Exit(1)
	}

	cfg := replay.DefaultConfig()
	cfg.FPTolerance = *fpTolerance
	cfg.StrictTiming = *strictTiming

	r, err := replay.Load(*recordingPath, cfg, p, nil)
	if err != nil {
		logger.Error("failed to load recording", "error", err.Error())
		os.Exit(1)
	}

	result := r.Execute()

	fmt.Printf("frames replayed: %d\n", result.FramesReplayed)
	fmt.Printf("frames matched:  %d (%.4f%%)\n", result.FramesMatched, 100*float64(result.FramesMatched)/float64(result.FramesReplayed))
	fmt.Printf("max deviation:   %g\n", result.MaxDeviation)
	fmt.Println("deviation histogram:")
	for _, bucket := range replay.HistogramBucketLabels {
		fmt.Printf("  %-12s %d\n", bucket, result.DeviationHistogram[bucket])
	}

	if !result.Success {
		fmt.Fprintln(os.Stderr, "ffbreplay: replay did not match the recording within tolerance")
		os.Exit(1)
	}
	fmt.Println("replay OK")
}
