package ffbcore

import "github.com/dstrand/ffbcore/internal/constants"

// Re-exported tuning constants every caller of the public API may need
// without reaching into internal/constants directly.
const (
	TickRateHz        = constants.TickRateHz
	TickPeriodNs      = constants.TickPeriodNs
	JitterP99BudgetNs = constants.JitterP99BudgetNs

	DefaultSafeTorqueLimit            = constants.DefaultSafeTorqueLimit
	DefaultHighTorqueChallengeTimeout = constants.DefaultHighTorqueChallengeTimeout
	DefaultFaultDwellMinimum          = constants.DefaultFaultDwellMinimum
	DefaultHandsOffTimeout            = constants.DefaultHandsOffTimeout

	DefaultMaxRecordingDuration = constants.DefaultMaxRecordingDuration
	DefaultMaxRecordingBytes    = constants.DefaultMaxRecordingBytes
	DefaultGzipLevel            = constants.DefaultGzipLevel
)
