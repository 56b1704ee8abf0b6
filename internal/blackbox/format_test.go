package blackbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version:          1,
		DeviceID:         "wheel-0042",
		EngineVersion:    "ffbcore-0.1.0",
		CompressionLevel: 6,
	}
	buf := marshalHeader(h)

	got, n, err := unmarshalHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, h.Version, got.Version)
	assert.Equal(t, h.DeviceID, got.DeviceID)
	assert.Equal(t, h.EngineVersion, got.EngineVersion)
	assert.Equal(t, h.CompressionLevel, got.CompressionLevel)
	assert.Equal(t, uint32(len(buf)), got.HeaderSize)
}

func TestUnmarshalHeaderRejectsBadMagic(t *testing.T) {
	buf := marshalHeader(Header{Version: 1, DeviceID: "a", EngineVersion: "b"})
	buf[0] = 'X'
	_, _, err := unmarshalHeader(buf)
	require.Error(t, err)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestUnmarshalHeaderRejectsFutureVersion(t *testing.T) {
	buf := marshalHeader(Header{Version: 99, DeviceID: "a", EngineVersion: "b"})
	_, _, err := unmarshalHeader(buf)
	require.Error(t, err)
}

func TestFooterRoundTrip(t *testing.T) {
	f := Footer{
		DurationMs:  123_456,
		TotalFrames: 123_456_000,
		IndexOffset: 999,
		IndexCount:  42,
		FileCRC32C:  0xDEADBEEF,
	}
	buf := marshalFooter(f)
	require.Len(t, buf, 32)

	got, err := unmarshalFooter(buf)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestUnmarshalFooterRejectsBadMagic(t *testing.T) {
	buf := marshalFooter(Footer{})
	buf[len(buf)-1] = 'x'
	_, err := unmarshalFooter(buf)
	assert.Error(t, err)
}

func TestIndexRoundTripAndMonotonicityCheck(t *testing.T) {
	entries := []IndexEntry{
		{TimestampMs: 0, ByteOffset: 0},
		{TimestampMs: 10, ByteOffset: 512},
		{TimestampMs: 20, ByteOffset: 1024},
	}
	buf := marshalIndex(entries)
	got, err := unmarshalIndex(buf, len(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestUnmarshalIndexRejectsNonMonotonicTimestamps(t *testing.T) {
	entries := []IndexEntry{
		{TimestampMs: 10, ByteOffset: 0},
		{TimestampMs: 5, ByteOffset: 100},
	}
	buf := marshalIndex(entries)
	_, err := unmarshalIndex(buf, len(entries))
	assert.Error(t, err)
}
