// Command ffbsim runs a Core against a simulated DevicePort, with no real
// hardware required: useful for exercising the scheduler/pipeline/safety
// stack and for recording blackbox fixtures. Adapted from
// cmd/ublk-mem/main.go's flag parsing, logger setup, and
// SIGINT/SIGTERM/SIGUSR1 lifecycle, re-grounded on Core/CreateAndRun
// instead of ublk.CreateAndServe.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/dstrand/ffbcore"
	"github.com/dstrand/ffbcore/internal/blackbox"
	"github.com/dstrand/ffbcore/internal/config"
	"github.com/dstrand/ffbcore/internal/logging"
	"github.com/dstrand/ffbcore/internal/port"
	"github.com/dstrand/ffbcore/internal/port/simulated"
	"github.com/dstrand/ffbcore/internal/rt"
)

func main() {
	var (
		deviceID    = flag.String("device-id", "ffbsim-0", "Device identifier recorded in the blackbox header")
		configPath  = flag.String("config", "", "Path to a YAML runtime config (defaults built in if omitted)")
		recordPath  = flag.String("record-dir", "", "Directory to write a blackbox recording into; empty disables recording")
		sineHz      = flag.Float64("sine-hz", 0.5, "Frequency of the synthetic sine-wave FFB command driving the simulated wheel")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	runtimeCfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err.Error())
			os.Exit(1)
		}
		runtimeCfg = loaded
	}

	simPort := simulated.New(nil)

	var recorder *blackbox.Handle
	if *recordPath != "" {
		cfg := blackbox.DefaultConfig(*deviceID, "ffbsim-dev", *recordPath)
		cfg.CompressionLevel = runtimeCfg.Recorder.CompressionLevel
		h, err := blackbox.Start(cfg, rt.MonotonicClock{}, logger)
		if err != nil {
			logger.Error("failed to start blackbox recorder", "error", err.Error())
			os.Exit(1)
		}
		recorder = h
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, err := ffbcore.CreateAndRun(ctx, ffbcore.Params{
		DeviceID:     *deviceID,
		Port:         simPort,
		FilterConfig: config.Default(),
		Runtime:      runtimeCfg,
		Recorder:     recorder,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to start core", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("ffbsim running", "device", *deviceID, "sine_hz", *sineHz)
	fmt.Printf("ffbsim running against a simulated wheel (device-id=%s)\n", *deviceID)
	fmt.Printf("Press Ctrl+C to stop...\n")
	fmt.Printf("Send SIGUSR1 (kill -USR1 %d) to dump goroutine stacks\n", os.Getpid())

	stop := make(chan struct{})
	go driveSimulatedWheel(stop, simPort, *sineHz)

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n", buf[:n])
			if f, err := os.Create(fmt.Sprintf("ffbsim-stacks-%d.txt", time.Now().Unix())); err == nil {
				f.Write(buf[:n])
				pprof.Lookup("goroutine").WriteTo(f, 2)
				f.Close()
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	close(stop)
	logger.Info("received shutdown signal")
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := core.Stop(stopCtx); err != nil {
		logger.Error("error stopping core", "error", err.Error())
	} else {
		logger.Info("core stopped successfully")
	}
}

// driveSimulatedWheel feeds a synthetic sine-wave FFB command into the
// simulated port until stop is closed, standing in for a real wheel's
// input stream.
func driveSimulatedWheel(stop <-chan struct{}, p *simulated.Port, hz float64) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			ffbIn := float32(math.Sin(2 * math.Pi * hz * t))
			p.SetInputs(port.FrameInputs{FFBIn: ffbIn, WheelSpeed: 0})
		}
	}
}
