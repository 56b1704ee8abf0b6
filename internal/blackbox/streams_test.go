package blackbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/rt"
	"github.com/dstrand/ffbcore/internal/safety"
	"github.com/dstrand/ffbcore/internal/telemetry"
)

func TestFrameRecordRoundTrip(t *testing.T) {
	rec := FrameRecord{
		Frame: rt.Frame{
			FFBIn: 0.5, TorqueOut: 0.42, WheelSpeed: 12.5,
			HandsOff: true, TSMonoNs: 123_456_789, Seq: 7,
		},
		TraceCount:       3,
		SafetyState:      safety.StateHighTorqueActive,
		ProcessingTimeUs: 250,
	}
	rec.Trace[0] = 0.5
	rec.Trace[1] = 0.48
	rec.Trace[2] = 0.42

	buf := marshalFrameRecord(rec)
	require.Len(t, buf, frameRecordSize)

	got, err := unmarshalFrameRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestUnmarshalFrameRecordRejectsWrongLength(t *testing.T) {
	_, err := unmarshalFrameRecord(make([]byte, 4))
	assert.Error(t, err)
}

func TestTelemetryRecordRoundTrip(t *testing.T) {
	tel := telemetry.NormalizedTelemetry{
		TimestampNs: 1_000_000,
		SpeedMps:    42.1,
		RPM:         6500,
		Gear:        4,
		Throttle:    0.9,
		Brake:       0,
		FFBScalar:   1.0,
		Flags:       0x03,
	}
	buf := marshalTelemetryRecord(tel)
	require.Len(t, buf, telemetryRecordSize)

	got, err := unmarshalTelemetryRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, tel, got)
}

func TestHealthEventRoundTrip(t *testing.T) {
	e := HealthEvent{
		TimestampNs: 42,
		Kind:        HealthEventFault,
		Payload:     map[string]string{"fault": "usb_stall"},
	}
	buf, err := marshalHealthEvent(e)
	require.NoError(t, err)

	got, err := unmarshalHealthEvent(buf)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestHealthEventRoundTripEmptyPayload(t *testing.T) {
	e := HealthEvent{TimestampNs: 1, Kind: HealthEventConnect}
	buf, err := marshalHealthEvent(e)
	require.NoError(t, err)

	got, err := unmarshalHealthEvent(buf)
	require.NoError(t, err)
	assert.Equal(t, e.TimestampNs, got.TimestampNs)
	assert.Equal(t, e.Kind, got.Kind)
}

func TestRecordFramingRoundTrip(t *testing.T) {
	rec := record{tag: constants.StreamTagHealth, payload: []byte("hello")}
	buf := marshalRecord(rec)

	got, n, err := readRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, rec.tag, got.tag)
	assert.Equal(t, rec.payload, got.payload)
}

func TestReadRecordRejectsUnknownTag(t *testing.T) {
	rec := record{tag: 'Z', payload: []byte("x")}
	buf := marshalRecord(rec)
	_, _, err := readRecord(buf)
	assert.Error(t, err)
}

func TestReadRecordRejectsTruncatedPayload(t *testing.T) {
	rec := record{tag: constants.StreamTagFrame, payload: []byte("0123456789")}
	buf := marshalRecord(rec)
	_, _, err := readRecord(buf[:len(buf)-3])
	assert.Error(t, err)
}
