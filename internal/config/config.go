package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	StoreBackend       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CatalogDir         string
	RandomSeed         int64
	PersistWorkerCount int
	PersistQueueSize   int
	DefaultDifficulty  string
	TrapProbability    float64
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:chesstactics.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		StoreBackend:       strings.ToLower(envOr("STORE_BACKEND", StoreSQLite)),
		RedisAddr:          envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            envIntOr("REDIS_DB", 0),
		CatalogDir:         os.Getenv("CATALOG_DIR"),
		RandomSeed:         int64(envIntOr("RANDOM_SEED", 0)),
		PersistWorkerCount: envIntOr("PERSIST_WORKER_COUNT", 2),
		PersistQueueSize:   envIntOr("PERSIST_QUEUE_SIZE", 128),
		DefaultDifficulty:  envOr("DEFAULT_DIFFICULTY", string(models.Medium)),
		TrapProbability:    envFloatOr("TRAP_PROBABILITY", 0.3),
	}
}

// Validate reports every configuration problem found, joined into one error.
func (c Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if !logger.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	switch c.StoreBackend {
	case StoreSQLite:
	case StoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, "REDIS_ADDR cannot be empty when STORE_BACKEND=redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be %q or %q (got %q)", StoreSQLite, StoreRedis, c.StoreBackend))
	}
	if c.RedisDB < 0 {
		problems = append(problems, "REDIS_DB must be non-negative")
	}
	if c.PersistWorkerCount < 1 {
		problems = append(problems, "PERSIST_WORKER_COUNT must be at least 1")
	}
	if c.PersistQueueSize < 1 {
		problems = append(problems, "PERSIST_QUEUE_SIZE must be at least 1")
	}
	if !models.Difficulty(c.DefaultDifficulty).Valid() {
		problems = append(problems, fmt.Sprintf("DEFAULT_DIFFICULTY must be easy, medium, hard or expert (got %q)", c.DefaultDifficulty))
	}
	if c.TrapProbability < 0 || c.TrapProbability > 1 {
		problems = append(problems, "TRAP_PROBABILITY must be between 0 and 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}
