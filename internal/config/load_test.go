package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalWD) })
	return dir
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))

	envContent := "APP_NAME=processor-test\n" +
		"LOG_LEVEL=debug\n" +
		"LOCK_MAX_ATTEMPTS=5\n" +
		"LOCK_ATTEMPT_TIMEOUT=750ms\n" +
		"BANK_HOUSE_ACCOUNT_ID=-42\n" +
		"RETRY_BASE_DELAY=20ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "processor_test.env"), []byte(envContent), 0o644))

	cfg, err := LoadConfig("processor_test")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "processor-test", cfg.Application.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Locking.MaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.Locking.AttemptTimeout)
	assert.Equal(t, int64(-42), cfg.Bank.HouseAccountID)
	assert.Equal(t, 20*time.Millisecond, cfg.Retry.BaseDelay)

	// Untouched keys fall back to defaults
	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "transaction_process_requests", cfg.Kafka.ProcessTopic)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig("missing")
	require.NoError(t, err)

	assert.Equal(t, int64(-1), cfg.Bank.HouseAccountID)
	assert.Equal(t, 3, cfg.Locking.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Processing.SweepInterval)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "override.env"), []byte("WORKER_POOL_SIZE=4\n"), 0o644))
	t.Setenv("WORKER_POOL_SIZE", "16")

	cfg, err := LoadConfig("override")
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.WorkerPool.Size)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LOCK_MAX_ATTEMPTS", "0")
	t.Setenv("RETRY_MAX_ATTEMPTS", "0")

	cfg, err := LoadConfig("invalid")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "LOCK_MAX_ATTEMPTS must be greater than 0")
	assert.Contains(t, err.Error(), "RETRY_MAX_ATTEMPTS must be at least 1")
}

func TestConfig_Validate(t *testing.T) {
	defaults := func() *Config {
		v := viper.New()
		setDefaults(v)
		return fromViper(v)
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, defaults().validate())
	})

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"negative lock base delay", func(c *Config) { c.Locking.BaseDelay = -time.Millisecond }, "LOCK_BASE_DELAY must not be negative"},
		{"max delay below base delay", func(c *Config) { c.Locking.MaxDelay = time.Millisecond; c.Locking.BaseDelay = time.Second }, "LOCK_MAX_DELAY must not be lower than LOCK_BASE_DELAY"},
		{"negative retry delay", func(c *Config) { c.Retry.BaseDelay = -time.Second }, "RETRY_BASE_DELAY must not be negative"},
		{"min conns above max", func(c *Config) { c.Postgres.MinConns = 50 }, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS"},
		{"missing process topic", func(c *Config) { c.Kafka.ProcessTopic = "" }, "KAFKA_PROCESS_TOPIC is required"},
		{"zero batch size", func(c *Config) { c.Processing.BatchSize = 0 }, "PROCESSING_BATCH_SIZE must be greater than 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}

	t.Run("zero sweep interval disables the sweep", func(t *testing.T) {
		cfg := defaults()
		cfg.Processing.SweepInterval = 0
		assert.NoError(t, cfg.validate())
	})
}
