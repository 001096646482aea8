package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/connection"
)

// Backend names accepted in configuration.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Duration wraps time.Duration so YAML configs can spell intervals the
// way flags do, e.g. "5m" or "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the server settings. Values are layered: defaults, then
// an optional YAML file, then environment variables, then flags.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr,omitempty"`

	// Backend selects the store implementation: "memory" or "mongo".
	Backend string `yaml:"backend,omitempty"`

	// DataFile is the snapshot path the memory backend loads at startup
	// and saves on shutdown. Empty disables snapshots.
	DataFile string `yaml:"data_file,omitempty"`

	// AutoSave enables periodic background snapshots for the memory
	// backend. Zero disables them.
	AutoSave Duration `yaml:"auto_save,omitempty"`

	// Mongo is the connection configuration for the mongo backend.
	Mongo connection.Config `yaml:"mongo,omitempty"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:     ":8080",
		Backend:  BackendMemory,
		DataFile: "adoric_data.adrc",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays ADORIC_* and MONGO_* environment variables onto the
// config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ADORIC_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("ADORIC_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("ADORIC_DATA_FILE"); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv("ADORIC_AUTO_SAVE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.AutoSave = Duration(parsed)
		}
	}
	if mongo, ok := connection.FromEnv(); ok {
		c.Mongo = mongo
	}
}

// Validate reports configuration the server cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	switch c.Backend {
	case BackendMemory, BackendMongo:
		return nil
	default:
		return fmt.Errorf("unknown backend %q, expected %q or %q", c.Backend, BackendMemory, BackendMongo)
	}
}
