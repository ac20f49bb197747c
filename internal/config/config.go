// Package config handles engine configuration loading and management.
package config

import "time"

// Config holds all engine settings.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Assets    AssetsConfig    `yaml:"assets"`
	Demo      DemoConfig      `yaml:"demo"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EngineConfig holds frame driver settings.
type EngineConfig struct {
	TickRate     int           `yaml:"tick_rate"`     // fixed-step ticks per second
	DiagInterval time.Duration `yaml:"diag_interval"` // cadence of periodic diagnostics logging
}

// AssetsConfig holds asset resolution settings.
type AssetsConfig struct {
	Dir string `yaml:"dir"` // base directory model paths resolve against
}

// DemoConfig holds settings for the demo binary.
type DemoConfig struct {
	Duration     time.Duration `yaml:"duration"`      // how long the demo loop runs
	SaveSnapshot string        `yaml:"save_snapshot"` // snapshot name written on exit, empty to skip
}

// SnapshotsConfig holds scene snapshot storage settings.
type SnapshotsConfig struct {
	AppName string `yaml:"app_name"` // app-data namespace snapshots are stored under
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate:     60,
			DiagInterval: 5 * time.Second,
		},
		Assets: AssetsConfig{
			Dir: "assets",
		},
		Demo: DemoConfig{
			Duration:     10 * time.Second,
			SaveSnapshot: "",
		},
		Snapshots: SnapshotsConfig{
			AppName: "scenekit",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
