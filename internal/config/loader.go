package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds the environment knobs the core itself needs at
// startup: recorder caps and scheduler torque targets. Everything else
// (profile persistence, IPC, CLI surface) lives upstream of the core.
type RuntimeConfig struct {
	Recorder  RecorderConfig  `yaml:"recorder"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// RecorderConfig bounds a blackbox recording session.
type RecorderConfig struct {
	MaxDuration      time.Duration `yaml:"max_duration"`
	MaxBytes         int64         `yaml:"max_bytes"`
	CompressionLevel int           `yaml:"compression_level"`
}

// SchedulerConfig holds the safety service's torque limits.
type SchedulerConfig struct {
	SafeTorqueNm float32 `yaml:"safe_torque_nm"`
	HighTorqueNm float32 `yaml:"high_torque_nm"`
}

// Default returns the built-in runtime configuration.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		Recorder: RecorderConfig{
			MaxDuration:      10 * time.Minute,
			MaxBytes:         512 << 20,
			CompressionLevel: 6,
		},
		Scheduler: SchedulerConfig{
			SafeTorqueNm: 5.0,
			HighTorqueNm: 25.0,
		},
	}
}

// Load reads a RuntimeConfig from a YAML file, starting from Default() so
// a partial file only overrides the fields it sets.
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Scheduler.HighTorqueNm <= cfg.Scheduler.SafeTorqueNm {
		return nil, fmt.Errorf("config: scheduler.high_torque_nm (%v) must exceed safe_torque_nm (%v)", cfg.Scheduler.HighTorqueNm, cfg.Scheduler.SafeTorqueNm)
	}
	return cfg, nil
}
