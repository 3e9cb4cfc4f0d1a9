package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"personapi/internal/config"
	"personapi/internal/database"
	handlers "personapi/internal/http/handler"
	"personapi/internal/http/server"
	"personapi/internal/logging"
	"personapi/internal/otel"
	"personapi/internal/repository"
	"personapi/internal/repository/memory"
	"personapi/internal/repository/postgres"
	"personapi/internal/service"
	"personapi/internal/snapshot"
	"personapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Person API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.Stdout(cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error("tracing_init_failed", err, nil)
		shutdownTracing = func(context.Context) error { return nil }
	}

	repo, db, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store_init_failed", err, map[string]any{"backend": cfg.StoreBackend})
		os.Exit(1)
	}

	snap := openSnapshot(ctx, cfg, log)
	if snap != nil {
		n, err := snap.Restore(ctx, repo)
		if err != nil {
			log.Error("snapshot_restore_failed", err, map[string]any{"key": cfg.MinIO.SnapshotKey})
		} else {
			log.Info("snapshot_restored", map[string]any{"key": cfg.MinIO.SnapshotKey, "people": n})
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := server.Deps{
		Log:      log,
		Service:  service.NewPersonService(repo),
		BodyMode: handlers.ParseBodyMode(cfg.BodyMode),
		Registry: reg,
	}
	// A nil *sql.DB must not reach the interface field.
	if db != nil {
		deps.DB = db
	}

	app, err := server.New(deps)
	if err != nil {
		log.Error("server_init_failed", err, nil)
		os.Exit(1)
	}

	addr := cfg.AppHost + ":" + cfg.Port
	listenErr := make(chan error, 1)
	go func() {
		log.Info("server_listening", map[string]any{"addr": addr, "backend": cfg.StoreBackend, "body_mode": string(deps.BodyMode)})
		listenErr <- app.Listen(addr)
	}()

	exitCode := 0
	select {
	case err := <-listenErr:
		if err != nil {
			log.Error("server_listen_failed", err, map[string]any{"addr": addr})
			exitCode = 1
		}
	case <-ctx.Done():
		log.Info("server_shutting_down", nil)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("server_shutdown_failed", err, nil)
		}
	}

	// The signal context is done by now, so shutdown work gets its own.
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if snap != nil {
		info, err := snap.Save(sctx, repo)
		if err != nil {
			log.Error("snapshot_save_failed", err, map[string]any{"key": cfg.MinIO.SnapshotKey})
		} else {
			log.Info("snapshot_saved", map[string]any{"key": info.Key, "size": info.Size})
		}
	}
	if err := closeStore(); err != nil {
		log.Error("store_close_failed", err, nil)
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Error("tracing_shutdown_failed", err, nil)
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// openStore builds the repository selected by STORE_BACKEND. db is nil for
// the in-memory backend.
func openStore(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) (repository.PersonRepository, *sql.DB, func() error, error) {
	if cfg.StoreBackend == config.StorePostgres {
		db, err := database.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return postgres.NewPersonPostgres(db), db, db.Close, nil
	}
	return memory.NewPersonMemory(), nil, func() error { return nil }, nil
}

// openSnapshot returns nil unless the in-memory backend is paired with a
// reachable MinIO bucket.
func openSnapshot(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) *snapshot.Snapshotter {
	if cfg.StoreBackend != config.StoreMemory || !cfg.MinIO.Enabled() {
		return nil
	}
	store, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.Error("snapshot_storage_unavailable", err, map[string]any{"endpoint": cfg.MinIO.Endpoint})
		return nil
	}
	return snapshot.New(store, cfg.MinIO.SnapshotKey)
}
