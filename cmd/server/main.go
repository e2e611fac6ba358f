package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldops/fieldmirror/internal/api"
	"github.com/fieldops/fieldmirror/internal/common"
	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/db"
	"github.com/fieldops/fieldmirror/internal/db/repositories"
	"github.com/fieldops/fieldmirror/internal/jobs"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/metrics"
	"github.com/fieldops/fieldmirror/internal/providers"
	"github.com/fieldops/fieldmirror/internal/routes"
	"github.com/fieldops/fieldmirror/internal/syncer"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(os.Getenv("FM_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.App.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Fieldmirror starting up",
		"environment", cfg.App.Env,
		"store", cfg.Store.Backend,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	if err := db.Init(cfg.Store); err != nil {
		logging.Error("Failed to open local store", "error", err.Error())
		log.Fatalf("Failed to open local store: %v", err)
	}
	logging.Info("Local store ready", "backend", cfg.Store.Backend)

	metricsReg := metrics.NewMetricsRegistry()

	provider := providers.NewRESTProvider(
		cfg.Remote.BaseURL,
		cfg.Remote.Token,
		cfg.Remote.Timeout,
		cfg.Remote.RequestsPerSec,
		cfg.Remote.Burst,
	)

	recordRepo := repositories.NewRecordRepository(db.DB, cfg.Sync.BatchSize)
	stateRepo := repositories.NewSyncStateRepo(db.OrmDB)
	jobRepo := repositories.NewSyncJobRepo(db.OrmDB)

	backfill := syncer.NewBackfillEngine(provider, recordRepo, stateRepo, jobRepo, metricsReg, cfg.Sync)
	delta := syncer.NewDeltaEngine(provider, recordRepo, stateRepo, jobRepo, metricsReg, cfg.Sync)
	orch := syncer.NewOrchestrator(backfill, delta, stateRepo, jobRepo, cfg.Sync)

	cache := common.NewCacheFromConfig(cfg.Cache)
	defer cache.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := jobs.NewScheduler(rootCtx, orch, jobRepo, cfg.Sync, cfg.Cron)
	if err := scheduler.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err.Error())
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	upSince := time.Now()
	syncHandler := api.NewSyncHandler(orch, stateRepo, jobRepo, recordRepo, cache, cfg.Sync)
	router := routes.RegisterRoutes(&cfg, metricsReg, syncHandler, upSince)

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	go func() {
		logging.Info("Server starting", "addr", cfg.Server.HTTPAddr, "environment", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server failed", "error", err.Error())
			stop()
		}
	}()

	<-rootCtx.Done()
	logging.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown failed", "error", err.Error())
	}
	scheduler.Stop()

	logging.Info("Fieldmirror stopped")
}
