package emulator

import (
	"github.com/BurntSushi/toml"
)

// Config is the optional TOML run configuration for the harness.
type Config struct {
	Budget  int64  `toml:"budget"`  // Cycle budget for the run.
	Verbose bool   `toml:"verbose"` // Verbose logging.
	Dump    bool   `toml:"dump"`    // Print a core dump after the run.
	Output  string `toml:"output"`  // Binary image output path.
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Budget: DEFAULT_BUDGET,
		Dump:   true,
		Output: "program.disa",
	}
}

// LoadConfig reads a TOML configuration file over the defaults.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()
	_, err = toml.DecodeFile(path, &cfg)
	return
}
