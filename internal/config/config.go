// Package config holds the pipeline's declarative FilterConfig plus the
// small RuntimeConfig the core reads at startup for recorder caps and
// scheduler torque limits.
package config

import (
	"fmt"

	"github.com/dstrand/ffbcore/internal/values"
)

// NotchFilter describes one peaking/notch biquad stage.
type NotchFilter struct {
	FrequencyHz float32 `yaml:"frequency_hz"`
	QFactor     float32 `yaml:"q_factor"`
	GainDB      float32 `yaml:"gain_db"`
}

// BumpstopConfig describes the non-linear spring+damper end-stop.
type BumpstopConfig struct {
	Enabled    bool    `yaml:"enabled"`
	StartAngle float32 `yaml:"start_angle_deg"`
	MaxAngle   float32 `yaml:"max_angle_deg"`
	Stiffness  float32 `yaml:"stiffness"`
	Damping    float32 `yaml:"damping"`
}

// HandsOffConfig describes the hands-off detector.
type HandsOffConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float32 `yaml:"threshold"`
	TimeoutS  float32 `yaml:"timeout_s"`
}

// FilterConfig is the input to the pipeline compiler. Callers build one
// directly or start from Default() and adjust fields; the compiler
// validates it.
type FilterConfig struct {
	ReconstructionLevel uint8           `yaml:"reconstruction_level"`
	Friction            float32         `yaml:"friction"`
	Damper              float32         `yaml:"damper"`
	Inertia             float32         `yaml:"inertia"`
	SlewRate            float32         `yaml:"slew_rate"`
	NotchFilters        []NotchFilter   `yaml:"notch_filters"`
	CurvePoints         []values.CurvePoint `yaml:"curve_points"`
	TorqueCap           float32         `yaml:"torque_cap"`
	Bumpstop            BumpstopConfig  `yaml:"bumpstop"`
	HandsOff            HandsOffConfig  `yaml:"hands_off"`
}

// Default returns a neutral, pass-through pipeline configuration: every
// shaping gain at zero, slew rate uncapped, bumpstop and hands-off
// disabled, torque cap at 1.0, and a two-point identity curve. Unlike
// friction/damper/inertia, slew rate is a ceiling rather than a gain — 0
// would freeze output at its first value instead of disabling limiting —
// so its neutral value is 1.0, the compiler's own uncapped threshold, not
// 0.
func Default() FilterConfig {
	return FilterConfig{
		ReconstructionLevel: 0,
		Friction:            0,
		Damper:              0,
		Inertia:             0,
		SlewRate:            1.0,
		NotchFilters:        nil,
		CurvePoints: []values.CurvePoint{
			{Input: 0, Output: 0},
			{Input: 1, Output: 1},
		},
		TorqueCap: 1.0,
		Bumpstop:  BumpstopConfig{Enabled: false},
		HandsOff:  HandsOffConfig{Enabled: false},
	}
}

// Validate checks every field-level invariant the compiler depends on
// (ranges, monotonic curve points, Nyquist margins on notch frequencies).
// It does not mutate the receiver; the compiler calls this before
// instantiating nodes.
func (c FilterConfig) Validate(sampleRateHz float32) error {
	if c.ReconstructionLevel > 8 {
		return fmt.Errorf("config: reconstruction_level must be in [0,8], got %d", c.ReconstructionLevel)
	}
	for name, g := range map[string]float32{
		"friction":  c.Friction,
		"damper":    c.Damper,
		"inertia":   c.Inertia,
		"slew_rate": c.SlewRate,
	} {
		if _, err := values.NewGain(g); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	for i, n := range c.NotchFilters {
		if _, err := values.NewFrequencyHz(n.FrequencyHz); err != nil {
			return fmt.Errorf("config: notch_filters[%d].frequency_hz: %w", i, err)
		}
		if n.FrequencyHz >= sampleRateHz/2 {
			return fmt.Errorf("config: notch_filters[%d].frequency_hz (%v) must be below Nyquist (%v)", i, n.FrequencyHz, sampleRateHz/2)
		}
		if !values.IsFinite32(n.QFactor) || n.QFactor <= 0 {
			return fmt.Errorf("config: notch_filters[%d].q_factor must be finite and > 0, got %v", i, n.QFactor)
		}
		if !values.IsFinite32(n.GainDB) || n.GainDB < -60 || n.GainDB > 20 {
			return fmt.Errorf("config: notch_filters[%d].gain_db must be finite in [-60,20], got %v", i, n.GainDB)
		}
	}
	if len(c.CurvePoints) < 2 {
		return fmt.Errorf("config: curve_points needs at least 2 points, got %d", len(c.CurvePoints))
	}
	for i, p := range c.CurvePoints {
		if _, err := values.NewCurvePoint(p.Input, p.Output); err != nil {
			return fmt.Errorf("config: curve_points[%d]: %w", i, err)
		}
		if i > 0 && p.Input < c.CurvePoints[i-1].Input {
			return fmt.Errorf("config: curve_points must be monotonic in input; point %d (%v) precedes point %d (%v)", i, p.Input, i-1, c.CurvePoints[i-1].Input)
		}
	}
	if !values.IsFinite32(c.TorqueCap) || c.TorqueCap <= 0 || c.TorqueCap > 1 {
		return fmt.Errorf("config: torque_cap must be finite in (0,1], got %v", c.TorqueCap)
	}
	if c.Bumpstop.Enabled {
		if !values.IsFinite32(c.Bumpstop.StartAngle) || !values.IsFinite32(c.Bumpstop.MaxAngle) {
			return fmt.Errorf("config: bumpstop angles must be finite")
		}
		if c.Bumpstop.MaxAngle <= c.Bumpstop.StartAngle {
			return fmt.Errorf("config: bumpstop max_angle (%v) must be > start_angle (%v)", c.Bumpstop.MaxAngle, c.Bumpstop.StartAngle)
		}
		if _, err := values.NewGain(c.Bumpstop.Stiffness); err != nil {
			return fmt.Errorf("config: bumpstop.stiffness: %w", err)
		}
		if _, err := values.NewGain(c.Bumpstop.Damping); err != nil {
			return fmt.Errorf("config: bumpstop.damping: %w", err)
		}
	}
	if c.HandsOff.Enabled {
		if !values.IsFinite32(c.HandsOff.Threshold) || c.HandsOff.Threshold <= 0 || c.HandsOff.Threshold >= 1 {
			return fmt.Errorf("config: hands_off.threshold must be finite in (0,1), got %v", c.HandsOff.Threshold)
		}
		if !values.IsFinite32(c.HandsOff.TimeoutS) || c.HandsOff.TimeoutS <= 0 {
			return fmt.Errorf("config: hands_off.timeout_s must be finite and > 0, got %v", c.HandsOff.TimeoutS)
		}
	}
	return nil
}
