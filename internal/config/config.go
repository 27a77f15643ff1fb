// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

// Package config loads runtime configuration from a YAML file and
// command-line flags, flags winning.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the application configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Console  ConsoleConfig  `koanf:"console"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig points at the persistence store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// MetricsConfig controls the observability HTTP server.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// ConsoleConfig controls the interactive console.
type ConsoleConfig struct {
	BootFile string `koanf:"boot_file"`
	Alias    string `koanf:"alias"`
}

// Default returns the configuration used when no file or flags are given.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: false, Addr: "127.0.0.1:9100"},
	}
}

// flagKeys maps CLI flag names to their config keys. Flags not listed here
// map with dashes as section separators (log-level -> log.level).
var flagKeys = map[string]string{
	"metrics":   "metrics.enabled",
	"boot-file": "console.boot_file",
	"alias":     "console.alias",
}

// Load reads configuration from path (optional, "" skips the file) and then
// overlays any flags the user set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_READ_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", ".")
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.In("config").Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}
