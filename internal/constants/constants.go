// Package constants holds default tuning values shared across the core.
package constants

import "time"

// Scheduler defaults.
const (
	// TickRateHz is the fixed tick rate the absolute scheduler targets.
	TickRateHz = 1000

	// TickPeriodNs is the nominal tick period in nanoseconds (1kHz).
	TickPeriodNs = 1_000_000_000 / TickRateHz

	// PLLGain is the proportional correction gain applied to the estimated
	// tick period each update.
	PLLGain = 0.01

	// PLLPhaseWeight weights accumulated phase error into the correction
	// term alongside the instantaneous period error.
	PLLPhaseWeight = 0.1

	// PLLMaxDriftFraction bounds how far the estimated period may drift
	// from the nominal target (±10%).
	PLLMaxDriftFraction = 0.10

	// JitterP99BudgetNs is the maximum allowed p99 tick jitter.
	JitterP99BudgetNs = 250_000

	// MissedTickRateBudget is the maximum allowed fraction of missed ticks.
	MissedTickRateBudget = 1e-5

	// MaxJitterSamples bounds the jitter ring buffer used for percentile
	// estimation, preventing unbounded growth on long-running sessions.
	MaxJitterSamples = 10_000

	// SpinTailNs is how far ahead of the deadline the scheduler switches
	// from sleeping to busy-spinning, to absorb OS scheduler wakeup slop.
	SpinTailNs = 80_000

	// RTThreadPriority is the SCHED_FIFO priority requested for the tick
	// thread when RT setup is enabled.
	RTThreadPriority = 80
)

// Safety defaults.
const (
	// DefaultSafeTorqueLimit is the torque ceiling while in SafeTorque state,
	// expressed as a fraction of the configured maximum device torque.
	DefaultSafeTorqueLimit = 0.30

	// DefaultHighTorqueChallengeTimeout bounds how long a challenge token
	// remains valid before it must be reissued.
	DefaultHighTorqueChallengeTimeout = 5 * time.Second

	// DefaultFaultDwellMinimum is the minimum time a Faulted state must be
	// held before a recovery attempt is accepted, preventing fault-clear
	// flapping.
	DefaultFaultDwellMinimum = 500 * time.Millisecond

	// DefaultHandsOffTimeout is how long the wheel may report no driver
	// input before hands-off auto-fault triggers.
	DefaultHandsOffTimeout = 3 * time.Second

	// DefaultHandsOffThreshold is the minimum |input torque| treated as
	// driver engagement for hands-off detection.
	DefaultHandsOffThreshold = 0.02
)

// Blackbox recorder defaults.
const (
	// StreamACapacity bounds the in-memory ring for per-tick frames.
	StreamACapacity = 4096

	// StreamBCapacity bounds the telemetry sample queue.
	StreamBCapacity = 256

	// StreamCCapacity bounds the health-event queue; small because health
	// events are rare and must never apply backpressure to the RT thread.
	StreamCCapacity = 64

	// StreamBRateHz is the leaky-bucket admission rate for telemetry
	// samples (Stream B), independent of the 1kHz tick rate.
	StreamBRateHz = 60

	// DefaultMaxRecordingDuration bounds a single recording session.
	DefaultMaxRecordingDuration = 10 * time.Minute

	// DefaultMaxRecordingBytes bounds the uncompressed data region size
	// before the recorder force-closes the file.
	DefaultMaxRecordingBytes = 512 << 20

	// DefaultGzipLevel is the compression level used for the data region.
	DefaultGzipLevel = 6

	// IndexEntryIntervalTicks controls how often an index entry is
	// emitted, trading seek granularity for footer size.
	IndexEntryIntervalTicks = 1000
)

// WBB1 file format constants.
const (
	// WBBMagic is the 4-byte magic value at the start of a WBB1 file.
	WBBMagic = "WBB1"

	// WBBVersion is the format version written by this implementation.
	WBBVersion = uint32(1)

	// WBBHeaderFixedFieldsSize is the byte length of the header's
	// fixed-width fields EXCLUDING the magic (version, the two length
	// prefixes, compression_level, header_size) — NOT the total header
	// size, since device_id and engine_version are variable-length.
	// header_size itself is the byte length of the header up to and
	// including that field. Total header size is
	// len(WBBMagic) + WBBHeaderFixedFieldsSize + the two string bodies,
	// computed per-file in format.go.
	WBBHeaderFixedFieldsSize = 4 + 4 + 4 + 1 + 4 // version+devIDLen+engVerLen+complvl+headerSize

	// WBBFooterSize is the fixed size in bytes of the WBB1 footer region:
	// duration_ms(4) + total_frames(8) + index_offset(8) + index_count(4)
	// + file_crc32c(4) + footer_magic(4).
	WBBFooterSize = 4 + 8 + 8 + 4 + 4 + 4

	// WBBIndexEntrySize is the fixed size in bytes of one index entry:
	// timestamp_ms(4) + byte_offset(8).
	WBBIndexEntrySize = 4 + 8

	// StreamTagFrame identifies a Stream A (per-tick frame) record.
	StreamTagFrame byte = 'A'

	// StreamTagTelemetry identifies a Stream B (telemetry) record.
	StreamTagTelemetry byte = 'B'

	// StreamTagHealth identifies a Stream C (health event) record.
	StreamTagHealth byte = 'C'
)

// Curve defaults.
const (
	// CurveLUTSize is the number of entries in a compiled response-curve
	// lookup table.
	CurveLUTSize = 1024
)
