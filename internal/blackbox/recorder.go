package blackbox

import (
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/logging"
	"github.com/dstrand/ffbcore/internal/pipeline"
	"github.com/dstrand/ffbcore/internal/rt"
	"github.com/dstrand/ffbcore/internal/safety"
	"github.com/dstrand/ffbcore/internal/telemetry"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Config tunes one recording session: device identity, output directory,
// compression, and the caps that bound a single file.
type Config struct {
	DeviceID           string
	EngineVersion      string
	OutputDir          string
	CompressionLevel   int // 0 disables gzip; 1-9 per compress/flate
	MaxDuration        time.Duration
	MaxBytes           int64
	IndexIntervalTicks int
}

// DefaultConfig returns the recorder defaults from constants.go.
func DefaultConfig(deviceID, engineVersion, outputDir string) Config {
	return Config{
		DeviceID:           deviceID,
		EngineVersion:      engineVersion,
		OutputDir:          outputDir,
		CompressionLevel:   constants.DefaultGzipLevel,
		MaxDuration:        constants.DefaultMaxRecordingDuration,
		MaxBytes:           constants.DefaultMaxRecordingBytes,
		IndexIntervalTicks: constants.IndexEntryIntervalTicks,
	}
}

// Stats exposes the recorder's drop counters and cumulative sizes as
// atomics rather than a mutex-guarded struct, since every field here is
// written from a different goroutine than it's read from.
type Stats struct {
	FramesOffered    atomic.Uint64
	FramesDropped    atomic.Uint64
	TelemetryOffered atomic.Uint64
	TelemetryDropped atomic.Uint64
	TelemetryLimited atomic.Uint64
	HealthOffered    atomic.Uint64
	HealthDropped    atomic.Uint64
	BytesWritten     atomic.Uint64
}

// Handle is the caller-facing recorder session returned by Start. Every
// RecordXxx method is non-blocking: on a full queue the record is
// dropped and the corresponding Stats counter increments, so a stalled
// consumer never blocks the RT worker.
type Handle struct {
	cfg    Config
	clock  rt.Clock
	logger *logging.Logger

	frames     chan FrameRecord
	telemetry  chan telemetry.NormalizedTelemetry
	health     chan HealthEvent
	stats      Stats
	startedAt  uint64
	done       chan struct{}
	stopOnce   sync.Once
	finalizeCh chan finalizeResult

	lastTelemetryAcceptNs atomic.Uint64
}

type finalizeResult struct {
	path string
	err  error
}

// Start begins a recording session: it opens the output file, writes the
// header immediately (so a crash mid-session still leaves a readable
// prefix), and launches the consumer goroutine that drains Stream A/B/C
// until Finalize is called.
func Start(cfg Config, clock rt.Clock, logger *logging.Logger) (*Handle, error) {
	if cfg.IndexIntervalTicks <= 0 {
		cfg.IndexIntervalTicks = constants.IndexEntryIntervalTicks
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, newIoError("mkdir output dir", err)
	}
	name := cfg.DeviceID + "-" + time.Now().UTC().Format("20060102T150405Z") + ".wbb"
	path := filepath.Join(cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, newIoError("create recording file", err)
	}

	header := marshalHeader(Header{
		Version:          constants.WBBVersion,
		DeviceID:         cfg.DeviceID,
		EngineVersion:    cfg.EngineVersion,
		CompressionLevel: uint8(cfg.CompressionLevel),
	})
	if _, err := f.Write(header); err != nil {
		f.Close()
		return nil, newIoError("write header", err)
	}

	h := &Handle{
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
		frames:     make(chan FrameRecord, constants.StreamACapacity),
		telemetry:  make(chan telemetry.NormalizedTelemetry, constants.StreamBCapacity),
		health:     make(chan HealthEvent, constants.StreamCCapacity),
		startedAt:  clock.Now(),
		done:       make(chan struct{}),
		finalizeCh: make(chan finalizeResult, 1),
	}

	go h.consume(f, path)
	return h, nil
}

// RecordFrame offers one Stream A sample. Called once per tick from the
// RT worker; never blocks.
func (h *Handle) RecordFrame(frame *rt.Frame, trace [pipeline.MaxTraceNodes]float32, traceCount int, state safety.StateKind, processingTimeUs uint32) {
	h.stats.FramesOffered.Add(1)
	rec := FrameRecord{Frame: *frame, Trace: trace, TraceCount: uint8(traceCount), SafetyState: state, ProcessingTimeUs: processingTimeUs}
	select {
	case h.frames <- rec:
	default:
		h.stats.FramesDropped.Add(1)
	}
}

// RecordTelemetry offers one Stream B sample, admission-limited to
// ~StreamBRateHz via a leaky-bucket test against the last accepted
// sample's timestamp.
func (h *Handle) RecordTelemetry(t telemetry.NormalizedTelemetry) {
	h.stats.TelemetryOffered.Add(1)

	minIntervalNs := uint64(time.Second / constants.StreamBRateHz)
	last := h.lastTelemetryAcceptNs.Load()
	if t.TimestampNs < last+minIntervalNs {
		h.stats.TelemetryLimited.Add(1)
		return
	}
	if !h.lastTelemetryAcceptNs.CompareAndSwap(last, t.TimestampNs) {
		// Lost the race to another producer's sample for this tick; the
		// bucket is still honoured, just by whichever sample won.
		h.stats.TelemetryLimited.Add(1)
		return
	}

	select {
	case h.telemetry <- t:
	default:
		h.stats.TelemetryDropped.Add(1)
	}
}

// RecordHealthEvent offers one Stream C sample; never blocks.
func (h *Handle) RecordHealthEvent(e HealthEvent) {
	h.stats.HealthOffered.Add(1)
	select {
	case h.health <- e:
	default:
		h.stats.HealthDropped.Add(1)
	}
}

// Stats returns the live drop/offer counters.
func (h *Handle) Stats() *Stats { return &h.stats }

// Finalize stops accepting new records, drains what remains, writes the
// index and footer, and returns the sealed file's path.
func (h *Handle) Finalize() (string, error) {
	h.stop()
	res := <-h.finalizeCh
	return res.path, res.err
}

// stop signals the consumer goroutine to wind down. Safe to call more
// than once (Finalize and the MaxBytes cap inside consume can both race
// to call it).
func (h *Handle) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// consume is the dedicated consumer goroutine draining Stream A/B/C: it
// serialises each record, optionally gzip-compresses, and appends to the
// output file. It owns the only writer to f and computes the running
// CRC32C over the uncompressed data region as it goes, so Finalize never
// has to re-read the file.
func (h *Handle) consume(f *os.File, path string) {
	var dataWriter dataRegionWriter
	if h.cfg.CompressionLevel > 0 {
		gz, err := gzip.NewWriterLevel(f, h.cfg.CompressionLevel)
		if err != nil {
			if h.logger != nil {
				h.logger.Warnf("blackbox: invalid gzip level %d, recording uncompressed: %v", h.cfg.CompressionLevel, err)
			}
			dataWriter = &plainDataWriter{f: f, crc: crc32.New(crc32cTable)}
		} else {
			dataWriter = &gzipDataWriter{gz: gz, crc: crc32.New(crc32cTable)}
		}
	} else {
		dataWriter = &plainDataWriter{f: f, crc: crc32.New(crc32cTable)}
	}

	var index []IndexEntry
	var totalFrames uint64
	var sinceLastIndex int
	maxDeadline := time.Duration(0)
	if h.cfg.MaxDuration > 0 {
		maxDeadline = h.cfg.MaxDuration
	}

	var timeoutCh <-chan time.Time
	if maxDeadline > 0 {
		timer := time.NewTimer(maxDeadline)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	appendAndIndex := func(rec record, tsNs uint64) {
		offset := dataWriter.Written()
		buf := marshalRecord(rec)
		if err := dataWriter.Write(buf); err != nil && h.logger != nil {
			h.logger.Warnf("blackbox: write failed: %v", err)
		}
		h.stats.BytesWritten.Add(uint64(len(buf)))

		if rec.tag == constants.StreamTagFrame {
			totalFrames++
			sinceLastIndex++
			if sinceLastIndex >= h.cfg.IndexIntervalTicks {
				sinceLastIndex = 0
				index = append(index, IndexEntry{TimestampMs: uint32(tsNs / 1_000_000), ByteOffset: offset})
			}
		}

		if h.cfg.MaxBytes > 0 && int64(dataWriter.Written()) >= h.cfg.MaxBytes {
			h.stop()
		}
	}

drain:
	for {
		select {
		case rec, ok := <-h.frames:
			if !ok {
				continue
			}
			payload := marshalFrameRecord(rec)
			appendAndIndex(record{tag: constants.StreamTagFrame, payload: payload}, rec.Frame.TSMonoNs)
		case t, ok := <-h.telemetry:
			if !ok {
				continue
			}
			appendAndIndex(record{tag: constants.StreamTagTelemetry, payload: marshalTelemetryRecord(t)}, t.TimestampNs)
		case e, ok := <-h.health:
			if !ok {
				continue
			}
			payload, err := marshalHealthEvent(e)
			if err != nil {
				if h.logger != nil {
					h.logger.Warnf("blackbox: dropping malformed health event: %v", err)
				}
				continue
			}
			appendAndIndex(record{tag: constants.StreamTagHealth, payload: payload}, e.TimestampNs)
		case <-timeoutCh:
			break drain
		case <-h.done:
			break drain
		}
	}

	// Final best-effort drain of anything already queued at stop time.
	draining := true
	for draining {
		select {
		case rec := <-h.frames:
			appendAndIndex(record{tag: constants.StreamTagFrame, payload: marshalFrameRecord(rec)}, rec.Frame.TSMonoNs)
		case t := <-h.telemetry:
			appendAndIndex(record{tag: constants.StreamTagTelemetry, payload: marshalTelemetryRecord(t)}, t.TimestampNs)
		case e := <-h.health:
			if payload, err := marshalHealthEvent(e); err == nil {
				appendAndIndex(record{tag: constants.StreamTagHealth, payload: payload}, e.TimestampNs)
			}
		default:
			draining = false
		}
	}

	dataCRC, err := dataWriter.Close()
	if err != nil && h.logger != nil {
		h.logger.Warnf("blackbox: closing data region: %v", err)
	}

	indexOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		h.finalizeCh <- finalizeResult{err: newIoError("seek before index", err)}
		f.Close()
		return
	}
	if _, err := f.Write(marshalIndex(index)); err != nil {
		h.finalizeCh <- finalizeResult{err: newIoError("write index", err)}
		f.Close()
		return
	}

	durationMs := uint32((h.clock.Now() - h.startedAt) / 1_000_000)
	footer := marshalFooter(Footer{
		DurationMs:  durationMs,
		TotalFrames: totalFrames,
		IndexOffset: uint64(indexOffset),
		IndexCount:  uint32(len(index)),
		FileCRC32C:  dataCRC,
	})
	if _, err := f.Write(footer); err != nil {
		h.finalizeCh <- finalizeResult{err: newIoError("write footer", err)}
		f.Close()
		return
	}

	if err := f.Close(); err != nil {
		h.finalizeCh <- finalizeResult{err: newIoError("close file", err)}
		return
	}
	h.finalizeCh <- finalizeResult{path: path}
}

// dataRegionWriter abstracts the optionally-gzipped data region so the
// consumer loop doesn't branch on compression at every record.
type dataRegionWriter interface {
	Write(p []byte) error
	// Written returns the number of UNCOMPRESSED bytes written so far,
	// which is what index byte offsets and the footer's data-region CRC
	// are defined over.
	Written() uint64
	Close() (crc32c uint32, err error)
}

type plainDataWriter struct {
	f   *os.File
	crc hashWriter
	n   uint64
}

type hashWriter interface {
	Write(p []byte) (int, error)
	Sum32() uint32
}

func (w *plainDataWriter) Write(p []byte) error {
	if _, err := w.f.Write(p); err != nil {
		return err
	}
	w.crc.Write(p)
	w.n += uint64(len(p))
	return nil
}
func (w *plainDataWriter) Written() uint64        { return w.n }
func (w *plainDataWriter) Close() (uint32, error) { return w.crc.Sum32(), nil }

type gzipDataWriter struct {
	gz  *gzip.Writer
	crc hashWriter
	n   uint64
}

func (w *gzipDataWriter) Write(p []byte) error {
	if _, err := w.gz.Write(p); err != nil {
		return err
	}
	w.crc.Write(p)
	w.n += uint64(len(p))
	return nil
}
func (w *gzipDataWriter) Written() uint64 { return w.n }
func (w *gzipDataWriter) Close() (uint32, error) {
	err := w.gz.Close()
	return w.crc.Sum32(), err
}
