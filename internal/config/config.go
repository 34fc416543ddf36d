// Package config loads the harness configuration file (docsnap.yaml).
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when no path is given.
const DefaultFile = "docsnap.yaml"

// Config is the harness configuration.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Build     BuildConfig     `yaml:"build"`
	Output    OutputConfig    `yaml:"output"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SourcesConfig locates fixture source directories.
type SourcesConfig struct {
	// Root holds one directory per test root.
	Root     string `yaml:"root"`
	BuildDir string `yaml:"build_dir"`
}

// BuildConfig holds default engine build settings.
type BuildConfig struct {
	Builder   string         `yaml:"builder"`
	Fresh     bool           `yaml:"fresh"`
	Tags      []string       `yaml:"tags,omitempty"`
	Overrides map[string]any `yaml:"overrides,omitempty"`
}

// OutputConfig holds default Output Reader settings.
type OutputConfig struct {
	Encoding     string        `yaml:"encoding"`
	Mode         ReadMode      `yaml:"mode"`
	RegionClass  string        `yaml:"region_class"`
	Replacements []Replacement `yaml:"replacements,omitempty"`
}

// Replacement is one literal find/replace pair applied to normalized text.
type Replacement struct {
	Find    string `yaml:"find"`
	Replace string `yaml:"replace"`
}

// SnapshotsConfig controls where records live and whether they are rewritten.
type SnapshotsConfig struct {
	Dir    string `yaml:"dir"`
	Update bool   `yaml:"update"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables metric export.
type MetricsConfig struct {
	// Textfile receives the registry in text format at the end of a session.
	Textfile string `yaml:"textfile,omitempty"`
	// Listen serves /metrics while `docsnap watch` runs.
	Listen string `yaml:"listen,omitempty"`
}

// Load reads the configuration at path. An empty path looks for DefaultFile
// in the working directory; a missing default file yields the defaults.
// A .env file next to the configuration is loaded first, ${VAR} references
// are expanded and DOCSNAP_* environment overrides are applied last.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	loadEnvFile(filepath.Dir(path))

	cfg := &Config{}
	// #nosec G304 -- configuration path is provided by the user
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "parse configuration").
				WithContext("path", path).
				Build()
		}
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration").
			WithContext("path", path).
			Build()
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
