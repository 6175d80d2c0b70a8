package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/vytor/chesstactics/internal/api"
	"github.com/vytor/chesstactics/internal/catalog"
	"github.com/vytor/chesstactics/internal/config"
	"github.com/vytor/chesstactics/internal/db"
	"github.com/vytor/chesstactics/internal/jobs"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/puzzlesource"
	"github.com/vytor/chesstactics/internal/repository/sqlite"
	"github.com/vytor/chesstactics/internal/services"
	"github.com/vytor/chesstactics/internal/skill"
	"github.com/vytor/chesstactics/internal/store"
	"github.com/vytor/chesstactics/internal/traps"
	"github.com/vytor/chesstactics/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Chess Tactics Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("store_backend=%s", cfg.StoreBackend)
	log.Debug("catalog_dir=%s", cfg.CatalogDir)
	log.Debug("persist_worker_count=%d", cfg.PersistWorkerCount)
	log.Debug("persist_queue_size=%d", cfg.PersistQueueSize)
	log.Debug("trap_probability=%.2f", cfg.TrapProbability)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Error("failed to load catalogues: %v", err)
		os.Exit(1)
	}

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	puzzleRepo := sqlite.NewPuzzleRepository(database.DB)
	attemptRepo := sqlite.NewAttemptRepository(database.DB)
	if _, err := puzzlesource.Seed(ctx, puzzleRepo, cat.Puzzles); err != nil {
		log.Error("failed to seed puzzles: %v", err)
		os.Exit(1)
	}

	progressStore, err := openStore(ctx, cfg, database)
	if err != nil {
		log.Error("failed to open progress store: %v", err)
		os.Exit(1)
	}
	defer progressStore.Close()

	newRand := randFactory(cfg.RandomSeed)
	trapEngine := traps.New(cat.Traps, newRand())
	source := puzzlesource.NewDBSource(puzzleRepo, trapEngine,
		puzzlesource.WithRand(newRand()),
		puzzlesource.WithTrapProbability(cfg.TrapProbability),
	)

	persistPool := worker.NewPool(cfg.PersistWorkerCount, cfg.PersistQueueSize)

	// Initialize services
	srv := &api.Server{
		PuzzleService: services.NewPuzzleService(source),
		SessionService: services.NewSessionService(services.SessionDeps{
			Puzzles:  source,
			Attempts: attemptRepo,
			Store:    progressStore,
			Jobs:     jobs.NewWorkerQueue(persistPool, attemptRepo, progressStore),
			Catalog:  cat,
			NewRand:  newRand,
		}),
		ReadyChecks: map[string]api.HealthCheck{
			"database": database.PingContext,
			"store":    progressStore.Ping,
		},
	}

	persistPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Queued progress writes drain before the store and database close.
	log.Debug("stopping persistence pool")
	persistPool.Stop()

	log.Info("===========================================")
	log.Info("Chess Tactics Server Stopped")
	log.Info("===========================================")
}

func openStore(ctx context.Context, cfg config.Config, database *db.DB) (store.ProgressStore, error) {
	if cfg.StoreBackend == config.StoreRedis {
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	return store.NewSQLiteStore(database.DB, sqlite.NewProgressRepository(database.DB)), nil
}

// randFactory hands out independent random sources. A non-zero seed makes
// the sequence of sources reproducible.
func randFactory(seed int64) func() skill.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var n atomic.Int64
	return func() skill.Rand {
		return rand.New(rand.NewSource(seed + n.Add(1)))
	}
}
