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

	"golang.org/x/sync/errgroup"

	"library-assessment/internal/api"
	"library-assessment/internal/api/handler"
	"library-assessment/internal/config"
	"library-assessment/internal/metrics"
	"library-assessment/internal/pkg/logger"
	"library-assessment/internal/session"
	"library-assessment/internal/store"
	"library-assessment/pkg/router"
	"library-assessment/pkg/utils"
)

// @title Library Assessment API
// @version 1.0
// @description Org-unit selection, report aggregation, drill-down and CSV export for library assessment reports.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Logger
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer appLogger.Sync()

	// 3. Init DB and export directory
	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Unable to open database %s: %v", cfg.Storage.DBPath, err)
	}
	defer db.Close()

	output := utils.NewOutputManager(cfg.Storage.ExportDir)
	if err := output.EnsureOutputDirExists(); err != nil {
		log.Fatalf("Unable to create export directory: %v", err)
	}

	// 4. Sessions and handlers
	collector := metrics.NewCollector()
	sessions := session.NewRepository(session.RepositoryConfig{
		TTL:             cfg.Session.TTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		Hydrate:         handler.Hydrator(db),
		Recorder:        collector,
		SessionOptions:  []session.Option{session.WithLogger(appLogger)},
	})
	h := handler.New(handler.Deps{
		Sessions:       sessions,
		DB:             db,
		Output:         output,
		Recorder:       collector,
		Logger:         appLogger,
		MaxUploadBytes: cfg.Session.MaxUploadBytes,
	})

	r := router.New(router.WithLogger(appLogger.Zap()), router.WithColor(!cfg.IsProduction()))
	api.RegisterRoutes(r, h, collector.Handler())

	// 5. Run server until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := r.Server(":" + cfg.App.Port)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("main", "server started", map[string]interface{}{"addr": srv.Addr, "env": cfg.App.Environment})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("main", "server stopped", map[string]interface{}{"error": err})
		appLogger.Sync()
		os.Exit(1)
	}
	appLogger.Info("main", "server stopped", nil)
}
