package gaudit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML representation of a recorder and store setup.
type FileConfig struct {
	DefaultScope string             `yaml:"default_scope"`
	Entities     map[string]Options `yaml:"entities"`
	Store        StoreConfig        `yaml:"store"`
}

// StoreConfig selects and configures a store backend.
type StoreConfig struct {
	Driver    string `yaml:"driver"` // memory, postgres or redis
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	RedisURL  string `yaml:"redis_url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LoadConfigFile reads and parses a YAML config file.
func LoadConfigFile(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("gaudit: failed to read config: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig parses YAML config bytes.
func ParseConfig(b []byte) (FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("gaudit: failed to parse config: %w", err)
	}
	if fc.Store.Driver == "" {
		fc.Store.Driver = "memory"
	}
	switch fc.Store.Driver {
	case "memory", "postgres", "redis":
	default:
		return FileConfig{}, fmt.Errorf("gaudit: unsupported store driver %q", fc.Store.Driver)
	}
	for name, o := range fc.Entities {
		if name == "" {
			return FileConfig{}, fmt.Errorf("gaudit: entity with empty type name")
		}
		if o.Scope == "" {
			o.Scope = fc.DefaultScope
			fc.Entities[name] = o
		}
	}
	return fc, nil
}

// Apply copies scope and entity options into cfg. Entries already present in
// cfg.Entities win over the file.
func (fc FileConfig) Apply(cfg *Config) {
	if cfg.DefaultScope == "" {
		cfg.DefaultScope = fc.DefaultScope
	}
	if cfg.Entities == nil {
		cfg.Entities = make(map[string]Options, len(fc.Entities))
	}
	for name, o := range fc.Entities {
		if _, ok := cfg.Entities[name]; ok {
			continue
		}
		cfg.Entities[name] = o
	}
}
