package ffbcore

import (
	"sync"

	"github.com/dstrand/ffbcore/internal/telemetry"
)

// MockTelemetryFeed is a telemetry.Feed backed by a caller-fed queue, for
// tests that need Core to observe specific samples without a real sim UDP
// adapter. It's a thread-safe in-memory double with call-count tracking so
// tests can assert Core actually polls the feed.
type MockTelemetryFeed struct {
	mu      sync.Mutex
	samples []telemetry.NormalizedTelemetry
	recvCalls int
}

// NewMockTelemetryFeed constructs an empty feed.
func NewMockTelemetryFeed() *MockTelemetryFeed {
	return &MockTelemetryFeed{}
}

// Push appends a sample for a future TryRecv to return, in FIFO order.
func (f *MockTelemetryFeed) Push(sample telemetry.NormalizedTelemetry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, sample)
}

// TryRecv implements telemetry.Feed.
func (f *MockTelemetryFeed) TryRecv() (telemetry.NormalizedTelemetry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recvCalls++
	if len(f.samples) == 0 {
		return telemetry.NormalizedTelemetry{}, false
	}
	next := f.samples[0]
	f.samples = f.samples[1:]
	return next, true
}

// RecvCalls returns how many times TryRecv has been called, for asserting
// Core actually polls the feed once per tick.
func (f *MockTelemetryFeed) RecvCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recvCalls
}

// Pending returns how many samples remain unread.
func (f *MockTelemetryFeed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

var _ telemetry.Feed = (*MockTelemetryFeed)(nil)
