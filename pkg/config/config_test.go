package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

// Helper to reset global variables for testing
func resetGlobalConfig() {
	k = nil
	once = sync.Once{}
}

func TestInitGlobalConfig_InitializesKoanfOnce(t *testing.T) {
	resetGlobalConfig()
	InitGlobalConfig()
	assert.NotNil(t, k, "Global koanf instance should be initialized")
}

func TestInitGlobalConfig_IsIdempotent(t *testing.T) {
	resetGlobalConfig()
	InitGlobalConfig()
	firstInstance := k
	InitGlobalConfig()
	secondInstance := k
	assert.Equal(t, firstInstance, secondInstance, "Koanf instance should not change on repeated InitGlobalConfig calls")
}

func TestNewManager_InitializesManagerWithGlobalKoanf(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	assert.NotNil(t, manager, "Manager should not be nil")
	assert.NotNil(t, manager.koanfInstance, "Manager's koanfInstance should not be nil")
	assert.Equal(t, k, manager.koanfInstance, "Manager's koanfInstance should use the global Koanf instance")
}

func TestDefaultConfig_ReturnsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level, "Default log level should be 'info'")
	assert.Equal(t, "text", cfg.Log.Format, "Default log format should be 'text'")
	assert.Equal(t, 10000, cfg.Server.Port, "Default server port should be 10000")
	assert.Equal(t, 45.0, cfg.Entropy.AngleDeg, "Default angle should be 45 degrees")
	assert.Equal(t, 50, cfg.Entropy.ShotsPerBasis, "Default shots per basis should be 50")
	assert.Equal(t, 256, cfg.Entropy.TargetBits, "Default target key length should be 256 bits")
	assert.Equal(t, 0.3, cfg.Entropy.SigmaThreshold, "Default sigma threshold should be 0.3")
	assert.Equal(t, 2, cfg.Entropy.RequestAttempts, "Default per-basis attempt budget should be 2")
	assert.Equal(t, 120*time.Second, cfg.Entropy.JobTimeout, "Default job ceiling should be 120s")
	assert.Equal(t, "simulator", cfg.Provider.Mode, "Default provider mode should be simulator")
}

func TestManager_Load_LoadsDefaultsWhenNoFlags(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	err := manager.Load(nil, "")
	assert.NoError(t, err, "Load should not return error when loading defaults")
	cfg := manager.Get()
	assert.Equal(t, "info", cfg.Log.Level, "Default log level should be 'info'")
	assert.Equal(t, time.Hour, cfg.Entropy.JobTTL, "Default job TTL should be one hour")
}

func TestManager_Load_OverridesWithFlags(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("log.level", "error")
	_ = flags.Set("log.format", "json")
	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error when loading with flags")
	cfg := manager.Get()
	assert.Equal(t, "error", cfg.Log.Level, "Flag should override log level")
	assert.Equal(t, "json", cfg.Log.Format, "Flag should override log format")
}

func TestManager_Load_DebugFlagSetsLogLevelToDebug(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("debug", "true")
	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error when loading with debug flag")
	cfg := manager.Get()
	assert.Equal(t, "debug", cfg.Log.Level, "Debug flag should set log level to debug")
}

func TestManager_Load_EnvVarsOverrideDefaults(t *testing.T) {
	resetGlobalConfig()

	t.Setenv("FOAMRNG_LOG_LEVEL", "warn")
	t.Setenv("FOAMRNG_SERVER_PORT", "9999")
	t.Setenv("FOAMRNG_ENTROPY_SHOTS_PER_BASIS", "200")

	manager := NewManager()
	err := manager.Load(nil, "")
	assert.NoError(t, err, "Load should not return error when loading with env vars")

	cfg := manager.Get()
	assert.Equal(t, "warn", cfg.Log.Level, "ENV var should override log level")
	assert.Equal(t, 9999, cfg.Server.Port, "ENV var should override server port")
	assert.Equal(t, 200, cfg.Entropy.ShotsPerBasis, "ENV var should map multi-word leaf keys")
}

func TestManager_Load_FlagsOverrideEnvVars(t *testing.T) {
	resetGlobalConfig()

	t.Setenv("FOAMRNG_LOG_LEVEL", "warn")

	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("log.level", "error") // Flag should win over env var

	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error")

	cfg := manager.Get()
	assert.Equal(t, "error", cfg.Log.Level, "CLI flag should override ENV var")
}

func TestManager_Load_ConfigFileOverridesDefaults(t *testing.T) {
	resetGlobalConfig()

	dir := t.TempDir()
	path := filepath.Join(dir, "foamrng.yaml")
	content := []byte("entropy:\n  target_bits: 128\n  sigma_threshold: 0.15\n")
	assert.NoError(t, os.WriteFile(path, content, 0o644))

	manager := NewManager()
	err := manager.Load(nil, path)
	assert.NoError(t, err, "Load should not return error with a valid config file")

	cfg := manager.Get()
	assert.Equal(t, 128, cfg.Entropy.TargetBits, "Config file should override target bits")
	assert.Equal(t, 0.15, cfg.Entropy.SigmaThreshold, "Config file should override sigma threshold")
}

func TestManager_Load_MissingConfigFileIsIgnored(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	err := manager.Load(nil, "/nonexistent/foamrng.yaml")
	assert.NoError(t, err, "Missing config file should fall back to defaults")
	assert.Equal(t, 256, manager.Get().Entropy.TargetBits)
}

func TestBindFlags_AddsDebugFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	debugFlag := flags.Lookup("debug")
	assert.NotNil(t, debugFlag, "BindFlags should add a 'debug' flag")
	assert.Equal(t, "false", debugFlag.DefValue, "Debug flag should default to false")
}

func newTestFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log.level", "info", "")
	flags.String("log.format", "text", "")
	flags.Bool("debug", false, "")
	return flags
}
