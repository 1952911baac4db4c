package storage

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config selects and sizes a backing store.
type Config struct {
	Kind        Kind          `yaml:"kind"`
	Dir         string        `yaml:"dir,omitempty"`          // local and indexedDB: where data lives
	Quota       int           `yaml:"quota,omitempty"`        // bytes; 0 is unlimited
	UnloadAfter time.Duration `yaml:"unload_after,omitempty"` // local: drop cold values from memory
	BufferSize  uint          `yaml:"buffer_size,omitempty"`  // indexedDB: queued commands
}

// DefaultConfig returns a session store configuration.
func DefaultConfig() Config {
	return Config{Kind: KindSession, BufferSize: 16}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Kind != "" {
		c.Kind = source.Kind
	}
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if source.Quota != 0 {
		c.Quota = source.Quota
	}
	if source.UnloadAfter != 0 {
		c.UnloadAfter = source.UnloadAfter
	}
	if source.BufferSize != 0 {
		c.BufferSize = source.BufferSize
	}
}

// Validate reports configuration errors without touching the environment beyond
// checking the required settings are present.
func (c Config) Validate() error {
	switch c.Kind {
	case "":
		return ErrNoKind
	case KindSession:
		return nil
	case KindLocal, KindIndexedDB:
		if c.Dir == "" {
			return errors.Wrapf(ErrUnavailable, "%s: no directory configured", c.Kind)
		}
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedKind, "%q", c.Kind)
	}
}

// LoadConfig reads a YAML configuration file and merges it over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "LoadConfig ReadFile")
	}
	var fileCfg Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return cfg, errors.Wrap(err, "LoadConfig Unmarshal")
	}
	cfg.Merge(&fileCfg)
	return cfg, nil
}
