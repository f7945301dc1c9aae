package config

import "time"

// Config is the root configuration for the foamrng service.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Server   ServerConfig   `koanf:"server"`
	Entropy  EntropyConfig  `koanf:"entropy"`
	Provider ProviderConfig `koanf:"provider"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
	File   string `koanf:"file"`   // empty for stderr
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Port            int           `koanf:"port"`
	APIEnabled      bool          `koanf:"api_enabled"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// EntropyConfig controls key generation: measurement parameters, the
// quality gate, the extraction pipeline, and job lifecycle bounds.
type EntropyConfig struct {
	// AngleDeg is the default entanglement angle when a request does not
	// supply one. 45 degrees gives a maximally entangled pair.
	AngleDeg float64 `koanf:"angle_deg"`

	// ShotsPerBasis is the number of measurement shots per basis.
	ShotsPerBasis int `koanf:"shots_per_basis"`

	// TargetBits is the output key length in bits.
	TargetBits int `koanf:"target_bits"`

	// SigmaThreshold separates certified from degraded generation runs.
	SigmaThreshold float64 `koanf:"sigma_threshold"`

	// EpsilonExp is the statistical-distance tolerance exponent for the
	// universal-hash stage; the tolerance is 2^-EpsilonExp.
	EpsilonExp int `koanf:"epsilon_exp"`

	// RequestTimeout bounds a single measurement request to the provider.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RequestAttempts is the per-basis attempt budget before a basis is
	// a hard failure.
	RequestAttempts int `koanf:"request_attempts"`

	// JobTimeout is the wall-clock ceiling for one generation job.
	JobTimeout time.Duration `koanf:"job_timeout"`

	// JobTTL is how long terminal job records stay queryable.
	JobTTL time.Duration `koanf:"job_ttl"`

	// EvictionInterval is how often expired records are swept.
	EvictionInterval time.Duration `koanf:"eviction_interval"`
}

// ProviderConfig selects and parameterizes the measurement provider.
type ProviderConfig struct {
	// Mode is "simulator" for the in-process provider or "http" for an
	// external provider endpoint.
	Mode string `koanf:"mode"`

	// Endpoint is the base URL of the external provider (http mode).
	Endpoint string `koanf:"endpoint"`

	// Seed fixes the simulator RNG for reproducible runs; 0 means a
	// time-derived seed.
	Seed int64 `koanf:"seed"`
}

// DefaultServerConfig returns the baseline HTTP server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "0.0.0.0",
		Port:            10000,
		APIEnabled:      true,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultEntropyConfig returns the baseline generation settings.
func DefaultEntropyConfig() EntropyConfig {
	return EntropyConfig{
		AngleDeg:         45,
		ShotsPerBasis:    50,
		TargetBits:       256,
		SigmaThreshold:   0.3,
		EpsilonExp:       32,
		RequestTimeout:   30 * time.Second,
		RequestAttempts:  2,
		JobTimeout:       120 * time.Second,
		JobTTL:           time.Hour,
		EvictionInterval: time.Minute,
	}
}

// DefaultProviderConfig returns the baseline provider selection.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Mode: "simulator",
	}
}
