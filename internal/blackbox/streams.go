package blackbox

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/pipeline"
	"github.com/dstrand/ffbcore/internal/rt"
	"github.com/dstrand/ffbcore/internal/safety"
	"github.com/dstrand/ffbcore/internal/telemetry"
)

func float32bits(f float32) uint32     { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// frameRecordSize is the fixed packed size of one Stream A record body: a
// frozen copy of the Frame, plus per-node output snapshot, plus the
// SafetyState enum tag, plus a processing-time microsecond count. Fixed
// layout, packed little-endian.
//
//	ts_mono_ns       uint64   8
//	seq              uint16   2
//	ffb_in           float32  4
//	torque_out       float32  4
//	wheel_speed      float32  4
//	hands_off        uint8    1
//	pipeline_fault   uint8    1
//	safety_state     uint8    1
//	trace_count      uint8    1
//	processing_us    uint32   4
//	trace[16]        float32  64
const frameRecordSize = 8 + 2 + 4 + 4 + 4 + 1 + 1 + 1 + 1 + 4 + pipeline.MaxTraceNodes*4

// FrameRecord is one Stream A sample: a frozen Frame plus the diagnostic
// context a support investigation needs to reconstruct exactly what the
// RT worker saw and did that tick.
type FrameRecord struct {
	Frame            rt.Frame
	Trace            [pipeline.MaxTraceNodes]float32
	TraceCount       uint8
	SafetyState      safety.StateKind
	ProcessingTimeUs uint32
}

func marshalFrameRecord(r FrameRecord) []byte {
	buf := make([]byte, frameRecordSize)
	off := 0
	binary.LittleEndian.PutUint64(buf[off:], r.Frame.TSMonoNs)
	off += 8
	binary.LittleEndian.PutUint16(buf[off:], r.Frame.Seq)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], float32bits(r.Frame.FFBIn))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], float32bits(r.Frame.TorqueOut))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], float32bits(r.Frame.WheelSpeed))
	off += 4
	buf[off] = boolByte(r.Frame.HandsOff)
	off++
	buf[off] = boolByte(r.Frame.PipelineFault)
	off++
	buf[off] = byte(r.SafetyState)
	off++
	buf[off] = r.TraceCount
	off++
	binary.LittleEndian.PutUint32(buf[off:], r.ProcessingTimeUs)
	off += 4
	for i := 0; i < pipeline.MaxTraceNodes; i++ {
		binary.LittleEndian.PutUint32(buf[off:], float32bits(r.Trace[i]))
		off += 4
	}
	return buf
}

func unmarshalFrameRecord(data []byte) (FrameRecord, error) {
	if len(data) != frameRecordSize {
		return FrameRecord{}, newFormatError("frame record has unexpected length")
	}
	var r FrameRecord
	off := 0
	r.Frame.TSMonoNs = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.Frame.Seq = binary.LittleEndian.Uint16(data[off:])
	off += 2
	r.Frame.FFBIn = float32frombits(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	r.Frame.TorqueOut = float32frombits(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	r.Frame.WheelSpeed = float32frombits(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	r.Frame.HandsOff = data[off] != 0
	off++
	r.Frame.PipelineFault = data[off] != 0
	off++
	r.SafetyState = safety.StateKind(data[off])
	off++
	r.TraceCount = data[off]
	off++
	r.ProcessingTimeUs = binary.LittleEndian.Uint32(data[off:])
	off += 4
	for i := 0; i < pipeline.MaxTraceNodes; i++ {
		r.Trace[i] = float32frombits(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	return r, nil
}

// telemetryRecordSize is the fixed packed size of one Stream B record.
// Every NormalizedTelemetry field is numeric and fixed-width, so unlike
// Stream C there is no variable tail.
const telemetryRecordSize = 8 + 4*8 + 1 + 4

func marshalTelemetryRecord(t telemetry.NormalizedTelemetry) []byte {
	buf := make([]byte, telemetryRecordSize)
	off := 0
	binary.LittleEndian.PutUint64(buf[off:], t.TimestampNs)
	off += 8
	for _, v := range []float32{t.SpeedMps, t.RPM, t.Throttle, t.Brake, t.SteeringAngle, t.LateralG, t.LongitudinalG, t.FFBScalar} {
		binary.LittleEndian.PutUint32(buf[off:], float32bits(v))
		off += 4
	}
	buf[off] = byte(t.Gear)
	off++
	binary.LittleEndian.PutUint32(buf[off:], t.Flags)
	off += 4
	return buf
}

func unmarshalTelemetryRecord(data []byte) (telemetry.NormalizedTelemetry, error) {
	if len(data) != telemetryRecordSize {
		return telemetry.NormalizedTelemetry{}, newFormatError("telemetry record has unexpected length")
	}
	var t telemetry.NormalizedTelemetry
	off := 0
	t.TimestampNs = binary.LittleEndian.Uint64(data[off:])
	off += 8
	fields := []*float32{&t.SpeedMps, &t.RPM, &t.Throttle, &t.Brake, &t.SteeringAngle, &t.LateralG, &t.LongitudinalG, &t.FFBScalar}
	for _, f := range fields {
		*f = float32frombits(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	t.Gear = int8(data[off])
	off++
	t.Flags = binary.LittleEndian.Uint32(data[off:])
	off += 4
	return t, nil
}

// HealthEventKind is the closed set of Stream C event kinds: connect,
// disconnect, fault, config change, performance degradation.
type HealthEventKind uint8

const (
	HealthEventConnect HealthEventKind = iota
	HealthEventDisconnect
	HealthEventFault
	HealthEventConfigChange
	HealthEventPerformanceDegradation
)

// HealthEvent is one Stream C sample: a sparse, timestamped, enum-tagged
// event with a small JSON payload carrying whatever context that kind
// needs (a fault kind string, the new config hash, the observed jitter).
type HealthEvent struct {
	TimestampNs uint64
	Kind        HealthEventKind
	Payload     map[string]string
}

func marshalHealthEvent(e HealthEvent) ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8+1+2+len(payload))
	off := 0
	binary.LittleEndian.PutUint64(buf[off:], e.TimestampNs)
	off += 8
	buf[off] = byte(e.Kind)
	off++
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(payload)))
	off += 2
	copy(buf[off:], payload)
	return buf, nil
}

func unmarshalHealthEvent(data []byte) (HealthEvent, error) {
	if len(data) < 11 {
		return HealthEvent{}, newFormatError("truncated health event")
	}
	var e HealthEvent
	off := 0
	e.TimestampNs = binary.LittleEndian.Uint64(data[off:])
	off += 8
	e.Kind = HealthEventKind(data[off])
	off++
	payloadLen := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	if len(data) < off+payloadLen {
		return HealthEvent{}, newFormatError("truncated health event payload")
	}
	if payloadLen > 0 {
		if err := json.Unmarshal(data[off:off+payloadLen], &e.Payload); err != nil {
			return HealthEvent{}, newFormatError("malformed health event payload: " + err.Error())
		}
	}
	return e, nil
}

// record is a single framed entry in the WBB1 data region: a leading
// stream-tag byte, a uint32 payload length, then the payload itself.
// Every record uses this framing regardless of stream, so the reader
// never has to guess boundaries from payload contents.
type record struct {
	tag     byte
	payload []byte
}

func marshalRecord(r record) []byte {
	buf := make([]byte, 1+4+len(r.payload))
	buf[0] = r.tag
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(r.payload)))
	copy(buf[5:], r.payload)
	return buf
}

// readRecord parses one framed record starting at data[0], returning it
// and the number of bytes consumed.
func readRecord(data []byte) (record, int, error) {
	if len(data) < 5 {
		return record{}, 0, newFormatError("truncated record header")
	}
	tag := data[0]
	if tag != constants.StreamTagFrame && tag != constants.StreamTagTelemetry && tag != constants.StreamTagHealth {
		return record{}, 0, newFormatError("unknown stream tag")
	}
	payloadLen := int(binary.LittleEndian.Uint32(data[1:]))
	need := 5 + payloadLen
	if len(data) < need {
		return record{}, 0, newFormatError("truncated record payload")
	}
	return record{tag: tag, payload: data[5:need]}, need, nil
}
