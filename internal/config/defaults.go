package config

import (
	"os"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvUpdate      = "DOCSNAP_UPDATE"
	EnvSnapshotDir = "DOCSNAP_SNAPSHOT_DIR"
	EnvLogLevel    = "DOCSNAP_LOG_LEVEL"
)

func applyDefaults(cfg *Config) {
	if cfg.Sources.Root == "" {
		cfg.Sources.Root = "testdata/sourcedirs"
	}
	if cfg.Sources.BuildDir == "" {
		cfg.Sources.BuildDir = "_build"
	}
	if cfg.Build.Builder == "" {
		cfg.Build.Builder = "html"
	}
	if cfg.Output.Encoding == "" {
		cfg.Output.Encoding = "utf-8"
	}
	if cfg.Output.Mode == "" {
		cfg.Output.Mode = ReadModeRaw
	}
	if cfg.Output.RegionClass == "" {
		cfg.Output.RegionClass = "documentwrapper"
	}
	if cfg.Snapshots.Dir == "" {
		cfg.Snapshots.Dir = "testdata/snapshots"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv(EnvUpdate); ok {
		cfg.Snapshots.Update = truthy(v)
	}
	if v := os.Getenv(EnvSnapshotDir); v != "" {
		cfg.Snapshots.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
