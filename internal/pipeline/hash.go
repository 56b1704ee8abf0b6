package pipeline

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/dstrand/ffbcore/internal/config"
	"github.com/dstrand/ffbcore/internal/curve"
)

// configHash computes a stable content hash over a canonical byte
// encoding of a FilterConfig (and the curve LUT, if present). Two
// identical configs must produce equal hashes; xxhash64 over a fixed
// field order gives that for free without reaching for reflection-based
// hashing.
func configHash(cfg config.FilterConfig, lut *curve.LUT) uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		h.Write(buf[:4])
	}
	writeBool := func(v bool) {
		if v {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	writeU64(uint64(cfg.ReconstructionLevel))
	writeF32(cfg.Friction)
	writeF32(cfg.Damper)
	writeF32(cfg.Inertia)
	writeF32(cfg.SlewRate)

	writeU64(uint64(len(cfg.NotchFilters)))
	for _, n := range cfg.NotchFilters {
		writeF32(n.FrequencyHz)
		writeF32(n.QFactor)
		writeF32(n.GainDB)
	}

	writeU64(uint64(len(cfg.CurvePoints)))
	for _, p := range cfg.CurvePoints {
		writeF32(p.Input)
		writeF32(p.Output)
	}

	writeF32(cfg.TorqueCap)

	writeBool(cfg.Bumpstop.Enabled)
	writeF32(cfg.Bumpstop.StartAngle)
	writeF32(cfg.Bumpstop.MaxAngle)
	writeF32(cfg.Bumpstop.Stiffness)
	writeF32(cfg.Bumpstop.Damping)

	writeBool(cfg.HandsOff.Enabled)
	writeF32(cfg.HandsOff.Threshold)
	writeF32(cfg.HandsOff.TimeoutS)

	if lut != nil {
		for _, v := range lut.Bytes() {
			writeF32(v)
		}
	}

	return h.Sum64()
}
