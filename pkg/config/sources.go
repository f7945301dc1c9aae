package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "FOAMRNG_"

// ConfigSource is one layer in the configuration loading chain.
// Sources are loaded in ascending Priority order; later loads override
// earlier values for overlapping keys.
type ConfigSource interface {
	// Name identifies the source in error messages.
	Name() string

	// Priority orders the source in the chain (lower loads first).
	Priority() int

	// Load merges the source's values into the given koanf instance.
	Load(k *koanf.Koanf) error
}

// DefaultSources returns the standard source chain: struct defaults, an
// optional YAML config file, environment variables, then CLI flags.
func DefaultSources(configFilePath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	sources := []ConfigSource{
		defaultsSource{},
		envSource{},
	}
	if configFilePath != "" {
		sources = append(sources, fileSource{path: configFilePath})
	}
	if flags != nil {
		sources = append(sources, flagSource{flags: flags, debug: debug})
	}
	return sources
}

// defaultsSource seeds koanf with the hardcoded default configuration.
type defaultsSource struct{}

func (defaultsSource) Name() string  { return "defaults" }
func (defaultsSource) Priority() int { return 0 }

func (defaultsSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil)
}

// fileSource loads an optional YAML configuration file.
type fileSource struct {
	path string
}

func (s fileSource) Name() string { return "file:" + s.path }
func (fileSource) Priority() int  { return 10 }

func (s fileSource) Load(k *koanf.Koanf) error {
	if _, err := os.Stat(s.path); err != nil {
		// Missing file is not an error; explicit paths that do not exist
		// surface via the stat error from the provider below only when
		// the file disappears between the check and the load.
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return k.Load(file.Provider(s.path), yaml.Parser())
}

// envSource maps FOAMRNG_*-prefixed environment variables onto config keys
// (FOAMRNG_SERVER_PORT -> server.port). Only the first underscore becomes a
// section separator so multi-word leaves like entropy.shots_per_basis keep
// their underscores.
type envSource struct{}

func (envSource) Name() string  { return "env" }
func (envSource) Priority() int { return 20 }

func (envSource) Load(k *koanf.Koanf) error {
	return k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)
}

// flagSource applies command-line flag overrides, highest priority.
type flagSource struct {
	flags *pflag.FlagSet
	debug bool
}

func (flagSource) Name() string  { return "flags" }
func (flagSource) Priority() int { return 30 }

func (s flagSource) Load(k *koanf.Koanf) error {
	if err := k.Load(posflag.Provider(s.flags, ".", k), nil); err != nil {
		return err
	}
	if s.debug {
		return k.Load(confmap.Provider(map[string]any{"log.level": "debug"}, "."), nil)
	}
	return nil
}
