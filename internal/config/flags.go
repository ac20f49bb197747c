package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagTickRate  = flag.Int("tick-rate", 0, "Ticks per second for the frame loop")
	flagDuration  = flag.Duration("duration", 0, "How long to run the demo loop")
	flagAssetsDir = flag.String("assets-dir", "", "Base directory for model assets")
	flagSnapshot  = flag.String("snapshot", "", "Snapshot name saved when the demo exits")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTickRate > 0 {
		cfg.Engine.TickRate = *flagTickRate
	}
	if *flagDuration > 0 {
		cfg.Demo.Duration = *flagDuration
	}
	if *flagAssetsDir != "" {
		cfg.Assets.Dir = *flagAssetsDir
	}
	if *flagSnapshot != "" {
		cfg.Demo.SaveSnapshot = *flagSnapshot
	}
}
