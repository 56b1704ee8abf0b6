package blackbox

import (
	"encoding/binary"

	"github.com/dstrand/ffbcore/internal/constants"
)

// Header is the fixed-then-variable prefix of a WBB1 file. Only DeviceID
// and EngineVersion vary in length; every other field is fixed-width
// little-endian.
type Header struct {
	Version           uint32
	DeviceID          string
	EngineVersion     string
	CompressionLevel  uint8
	HeaderSize        uint32 // computed, not caller-supplied; see marshalHeader
}

// marshalHeader hand-encodes h with explicit binary.LittleEndian.PutUintNN
// calls into a pre-sized buffer rather than binary.Write/reflection,
// because the byte layout here is a durable on-disk ABI, not an
// in-memory convenience encoding.
func marshalHeader(h Header) []byte {
	deviceID := []byte(h.DeviceID)
	engineVersion := []byte(h.EngineVersion)

	total := len(constants.WBBMagic) + constants.WBBHeaderFixedFieldsSize + len(deviceID) + len(engineVersion)
	buf := make([]byte, total)

	off := 0
	copy(buf[off:], constants.WBBMagic)
	off += len(constants.WBBMagic)

	binary.LittleEndian.PutUint32(buf[off:], h.Version)
	off += 4

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(deviceID)))
	off += 4
	copy(buf[off:], deviceID)
	off += len(deviceID)

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(engineVersion)))
	off += 4
	copy(buf[off:], engineVersion)
	off += len(engineVersion)

	buf[off] = h.CompressionLevel
	off++

	binary.LittleEndian.PutUint32(buf[off:], uint32(total))
	off += 4

	return buf
}

// unmarshalHeader decodes a Header from the start of data, returning the
// number of bytes it consumed (== the header_size field it read) so the
// caller knows where the data region begins.
func unmarshalHeader(data []byte) (Header, int, error) {
	magicLen := len(constants.WBBMagic)
	if len(data) < magicLen+constants.WBBHeaderFixedFieldsSize {
		return Header{}, 0, newFormatError("truncated header")
	}
	if string(data[:magicLen]) != constants.WBBMagic {
		return Header{}, 0, newFormatError("bad magic, not a WBB1 file")
	}

	off := magicLen
	var h Header
	h.Version = binary.LittleEndian.Uint32(data[off:])
	off += 4
	if h.Version != constants.WBBVersion {
		return Header{}, 0, newFormatError("unsupported WBB1 version")
	}

	deviceIDLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if len(data) < off+deviceIDLen {
		return Header{}, 0, newFormatError("truncated device_id")
	}
	h.DeviceID = string(data[off : off+deviceIDLen])
	off += deviceIDLen

	if len(data) < off+4 {
		return Header{}, 0, newFormatError("truncated header")
	}
	engineVersionLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if len(data) < off+engineVersionLen+1+4 {
		return Header{}, 0, newFormatError("truncated engine_version")
	}
	h.EngineVersion = string(data[off : off+engineVersionLen])
	off += engineVersionLen

	h.CompressionLevel = data[off]
	off++

	h.HeaderSize = binary.LittleEndian.Uint32(data[off:])
	off += 4

	if int(h.HeaderSize) != off {
		return Header{}, 0, newFormatError("header_size field does not match parsed header length")
	}

	return h, off, nil
}

// Footer is the fixed-size trailer validated before anything else in the
// file is trusted: its data-region CRC32C must match what Open computes
// over the decompressed bytes.
type Footer struct {
	DurationMs  uint32
	TotalFrames uint64
	IndexOffset uint64
	IndexCount  uint32
	FileCRC32C  uint32
}

func marshalFooter(f Footer) []byte {
	buf := make([]byte, constants.WBBFooterSize)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], f.DurationMs)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], f.TotalFrames)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], f.IndexOffset)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], f.IndexCount)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], f.FileCRC32C)
	off += 4
	copy(buf[off:], footerMagic)
	return buf
}

const footerMagic = "1BBW"

func unmarshalFooter(data []byte) (Footer, error) {
	if len(data) < constants.WBBFooterSize {
		return Footer{}, newFormatError("truncated footer")
	}
	off := 0
	var f Footer
	f.DurationMs = binary.LittleEndian.Uint32(data[off:])
	off += 4
	f.TotalFrames = binary.LittleEndian.Uint64(data[off:])
	off += 8
	f.IndexOffset = binary.LittleEndian.Uint64(data[off:])
	off += 8
	f.IndexCount = binary.LittleEndian.Uint32(data[off:])
	off += 4
	f.FileCRC32C = binary.LittleEndian.Uint32(data[off:])
	off += 4
	if string(data[off:off+4]) != footerMagic {
		return Footer{}, newFormatError("bad footer magic")
	}
	return f, nil
}

// IndexEntry maps a wall-clock millisecond timestamp to a byte offset
// into the (decompressed) data region. The index as a whole must be
// monotonically non-decreasing in TimestampMs, which holds automatically
// here since entries are appended in tick order by the recorder.
type IndexEntry struct {
	TimestampMs uint32
	ByteOffset  uint64
}

func marshalIndex(entries []IndexEntry) []byte {
	buf := make([]byte, len(entries)*constants.WBBIndexEntrySize)
	off := 0
	for _, e := range entries {
		binary.LittleEndian.PutUint32(buf[off:], e.TimestampMs)
		binary.LittleEndian.PutUint64(buf[off+4:], e.ByteOffset)
		off += constants.WBBIndexEntrySize
	}
	return buf
}

func unmarshalIndex(data []byte, count int) ([]IndexEntry, error) {
	need := count * constants.WBBIndexEntrySize
	if len(data) < need {
		return nil, newFormatError("truncated index")
	}
	entries := make([]IndexEntry, count)
	off := 0
	var prevMs uint32
	for i := 0; i < count; i++ {
		ms := binary.LittleEndian.Uint32(data[off:])
		offset := binary.LittleEndian.Uint64(data[off+4:])
		if i > 0 && ms < prevMs {
			return nil, newFormatError("index timestamps are not monotonically non-decreasing")
		}
		entries[i] = IndexEntry{TimestampMs: ms, ByteOffset: offset}
		prevMs = ms
		off += constants.WBBIndexEntrySize
	}
	return entries, nil
}
