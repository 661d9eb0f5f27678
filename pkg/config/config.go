package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config is the root application config, decoded from YAML.
type Config struct {
	Logger LoggerConfig `yaml:"logger"`
	WAL    WALConfig    `yaml:"wal"`
	Server ServerConfig `yaml:"server"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Backend selects the write-ahead log implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendPebble Backend = "pebble"
)

type WALConfig struct {
	Backend Backend `yaml:"backend"`
	// Path is the log file for the file backend and the database
	// directory for the pebble backend. Unused by the memory backend.
	Path string `yaml:"path"`
}

type ServerConfig struct {
	RecoverOnStart bool `yaml:"recover_on_start"`
}

// Default returns a baseline development config.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level: "INFO",
			JSON:  false,
		},
		WAL: WALConfig{
			Backend: BackendFile,
			Path:    "./data/wal.txt",
		},
		Server: ServerConfig{
			RecoverOnStart: true,
		},
	}
}

// Load reads a YAML config from path on top of Default. A missing file is
// not an error: the defaults are returned as is.
func Load(path string) (Config, bool, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, true, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, true, err
	}

	return cfg, true, nil
}

// Validate checks that required settings are present and supported.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logger.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unsupported log level %q", c.Logger.Level)
	}

	switch c.WAL.Backend {
	case BackendMemory:
	case BackendFile, BackendPebble:
		if strings.TrimSpace(c.WAL.Path) == "" {
			return fmt.Errorf("config: wal path is required for %s backend", c.WAL.Backend)
		}
	default:
		return fmt.Errorf("config: unsupported wal backend %q", c.WAL.Backend)
	}

	return nil
}
