package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	l.Info("should not appear")
	require.Empty(t, buf.String())

	l.Warn("should appear", "code", 7)
	out := buf.String()
	assert.Contains(t, out, "should appear")
	assert.Contains(t, out, "\"code\":7")
}

func TestLoggerDefaultRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	defer SetDefault(NewLogger(nil))

	Debug("hello", "k", "v")
	assert.True(t, strings.Contains(buf.String(), "hello"))
}

func TestLoggerWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LevelInfo, Output: &buf}).With("device", "wheel-0")
	l.Info("ready")
	assert.Contains(t, buf.String(), "wheel-0")
}

func TestLoggerFormattedVariants(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LevelDebug, Output: &buf})
	l.Errorf("fault %d on tick %d", 3, 42)
	assert.Contains(t, buf.String(), "fault 3 on tick 42")
}
