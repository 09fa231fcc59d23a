// Package config provides configuration management for Forge using Viper
// for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files (.forge.yml), environment
// variable overrides with a FORGE_ prefix, and validation. It manages the
// preview server, the regeneration debounce, the pinned external import
// map, workspace persistence, and the optional disk mount.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Preview PreviewConfig `yaml:"preview" mapstructure:"preview"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Mount   MountConfig   `yaml:"mount" mapstructure:"mount"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	Open bool   `yaml:"open" mapstructure:"open"`
}

type PreviewConfig struct {
	// Debounce is the quiet period after the last tree mutation before a
	// regeneration fires.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`

	// Externals maps well-known bare import specifiers to pinned module
	// URLs so in-tree imports of them resolve without local files.
	Externals map[string]string `yaml:"externals" mapstructure:"externals"`
}

type StorageConfig struct {
	// Dir is the directory holding the persisted workspace snapshot.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type MountConfig struct {
	// Path, when set, mirrors a real directory into the virtual tree.
	Path string `yaml:"path" mapstructure:"path"`

	// Ignore lists directory names excluded from the mount walk.
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// DefaultExternals is the fixed set of pre-registered external libraries:
// a UI framework runtime, its DOM renderer, and an icon set.
func DefaultExternals() map[string]string {
	return map[string]string{
		"react":                 "https://esm.sh/react@18.2.0?dev",
		"react/jsx-runtime":     "https://esm.sh/react@18.2.0/jsx-runtime?dev",
		"react/jsx-dev-runtime": "https://esm.sh/react@18.2.0/jsx-dev-runtime?dev",
		"react-dom":             "https://esm.sh/react-dom@18.2.0?dev",
		"react-dom/client":      "https://esm.sh/react-dom@18.2.0/client?dev",
		"lucide-react":          "https://esm.sh/lucide-react@0.292.0",
	}
}

// Load builds the effective configuration from viper's merged sources
// and applies defaults for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8120
	}
	if config.Preview.Debounce <= 0 {
		config.Preview.Debounce = time.Second
	}
	if len(config.Preview.Externals) == 0 {
		config.Preview.Externals = DefaultExternals()
	}
	if config.Storage.Dir == "" {
		config.Storage.Dir = ".forge"
	}
	if len(config.Mount.Ignore) == 0 {
		config.Mount.Ignore = []string{".git", "node_modules", ".forge"}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Preview.Debounce > time.Minute {
		return fmt.Errorf("debounce %s is unreasonably long", c.Preview.Debounce)
	}
	return nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "localhost", Port: 8120},
		Preview: PreviewConfig{Debounce: time.Second, Externals: DefaultExternals()},
		Storage: StorageConfig{Dir: ".forge"},
		Mount:   MountConfig{Ignore: []string{".git", "node_modules", ".forge"}},
	}
}

// WriteDefault writes the default configuration as YAML to path,
// refusing to clobber an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
