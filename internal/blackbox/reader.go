package blackbox

import (
	"bytes"
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/dstrand/ffbcore/internal/constants"
	"github.com/dstrand/ffbcore/internal/telemetry"
)

// Reader gives read-only, validated access to a sealed WBB1 file. It is
// replay's only way into the format: every format invariant (magic,
// version, footer CRC, index monotonicity) is checked once here at Open,
// so nothing downstream has to re-derive trust in the bytes.
type Reader struct {
	header Header
	footer Footer
	index  []IndexEntry
	data   []byte // decompressed data region
}

// Open reads path fully into memory and validates it. Recordings are
// bounded by DefaultMaxRecordingBytes, so loading one whole file is a
// deliberate simplification rather than a streaming reader.
func Open(path string) (*Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newIoError("read recording file", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Reader, error) {
	header, headerLen, err := unmarshalHeader(raw)
	if err != nil {
		return nil, err
	}
	if len(raw) < headerLen+constants.WBBFooterSize {
		return nil, newFormatError("file too short to contain a footer")
	}

	footerStart := len(raw) - constants.WBBFooterSize
	footer, err := unmarshalFooter(raw[footerStart:])
	if err != nil {
		return nil, err
	}

	if int(footer.IndexOffset) < headerLen || int(footer.IndexOffset) > footerStart {
		return nil, newFormatError("index_offset out of range")
	}
	indexBytes := raw[footer.IndexOffset:footerStart]
	index, err := unmarshalIndex(indexBytes, int(footer.IndexCount))
	if err != nil {
		return nil, err
	}

	compressed := raw[headerLen:footer.IndexOffset]
	data, err := decompressDataRegion(compressed, header.CompressionLevel)
	if err != nil {
		return nil, err
	}

	crc := crc32.New(crc32cTable)
	crc.Write(data)
	if crc.Sum32() != footer.FileCRC32C {
		return nil, newFormatError("data region CRC32C mismatch")
	}

	return &Reader{header: header, footer: footer, index: index, data: data}, nil
}

func decompressDataRegion(compressed []byte, compressionLevel uint8) ([]byte, error) {
	if compressionLevel == 0 {
		return compressed, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, newFormatError("malformed gzip data region: " + err.Error())
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, newFormatError("truncated gzip data region: " + err.Error())
	}
	return data, nil
}

// Header returns the validated file header.
func (r *Reader) Header() Header { return r.header }

// Footer returns the validated file footer.
func (r *Reader) Footer() Footer { return r.footer }

// Index returns the monotonically non-decreasing timestamp index.
func (r *Reader) Index() []IndexEntry { return r.index }

// Frames decodes every Stream A record in file order.
func (r *Reader) Frames() ([]FrameRecord, error) {
	var frames []FrameRecord
	err := r.walk(func(tag byte, payload []byte) error {
		if tag != constants.StreamTagFrame {
			return nil
		}
		rec, err := unmarshalFrameRecord(payload)
		if err != nil {
			return err
		}
		frames = append(frames, rec)
		return nil
	})
	return frames, err
}

// TelemetrySamples decodes every Stream B record in file order.
func (r *Reader) TelemetrySamples() ([]telemetry.NormalizedTelemetry, error) {
	var samples []telemetry.NormalizedTelemetry
	err := r.walk(func(tag byte, payload []byte) error {
		if tag != constants.StreamTagTelemetry {
			return nil
		}
		t, err := unmarshalTelemetryRecord(payload)
		if err != nil {
			return err
		}
		samples = append(samples, t)
		return nil
	})
	return samples, err
}

// HealthEvents decodes every Stream C record in file order.
func (r *Reader) HealthEvents() ([]HealthEvent, error) {
	var events []HealthEvent
	err := r.walk(func(tag byte, payload []byte) error {
		if tag != constants.StreamTagHealth {
			return nil
		}
		e, err := unmarshalHealthEvent(payload)
		if err != nil {
			return err
		}
		events = append(events, e)
		return nil
	})
	return events, err
}

// walk iterates every framed record in the decompressed data region,
// calling fn with the record's tag and payload.
func (r *Reader) walk(fn func(tag byte, payload []byte) error) error {
	for off := 0; off < len(r.data); {
		rec, n, err := readRecord(r.data[off:])
		if err != nil {
			return err
		}
		if err := fn(rec.tag, rec.payload); err != nil {
			return err
		}
		off += n
	}
	return nil
}
