package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesstactics/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:               ":8080",
		DBPath:             "test.db",
		LogLevel:           "INFO",
		StoreBackend:       config.StoreSQLite,
		RedisAddr:          "localhost:6379",
		PersistWorkerCount: 2,
		PersistQueueSize:   64,
		DefaultDifficulty:  "medium",
		TrapProbability:    0.3,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_StoreBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		addr    string
		wantErr string
	}{
		{name: "sqlite", backend: "sqlite"},
		{name: "redis", backend: "redis", addr: "localhost:6379"},
		{name: "redis without addr", backend: "redis", wantErr: "REDIS_ADDR"},
		{name: "unknown", backend: "mongo", wantErr: "STORE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.StoreBackend = tt.backend
			cfg.RedisAddr = tt.addr

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_TrapProbability(t *testing.T) {
	for _, p := range []float64{-0.1, 1.5} {
		cfg := validConfig()
		cfg.TrapProbability = p
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TRAP_PROBABILITY")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{
		LogLevel:          "INVALID",
		StoreBackend:      "sqlite",
		DefaultDifficulty: "impossible",
	}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "DB_PATH cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "PERSIST_WORKER_COUNT")
	assert.Contains(t, errStr, "PERSIST_QUEUE_SIZE")
	assert.Contains(t, errStr, "DEFAULT_DIFFICULTY")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "custom.db")
	t.Setenv("STORE_BACKEND", "REDIS")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("TRAP_PROBABILITY", "0.5")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, config.StoreRedis, cfg.StoreBackend)
	assert.Equal(t, int64(42), cfg.RandomSeed)
	assert.InDelta(t, 0.5, cfg.TrapProbability, 1e-9)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("PERSIST_WORKER_COUNT", "many")

	cfg := config.Load()

	assert.Equal(t, 2, cfg.PersistWorkerCount)
}
