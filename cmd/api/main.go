package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/config"
	"github.com/cmlabs-hris/edi-backend-go/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/edi-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/edipo"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/edi-backend-go/internal/repository/postgresql"
	ediPayslipService "github.com/cmlabs-hris/edi-backend-go/internal/service/edipayslip"
	notificationService "github.com/cmlabs-hris/edi-backend-go/internal/service/notification"
	radianService "github.com/cmlabs-hris/edi-backend-go/internal/service/radian"
)

const (
	appVersion      = "v1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MinConns:        cfg.Database.MinConns,
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	appMetrics := metrics.New()

	// Repositories
	radianRepo := postgresql.NewRadianRepository(db)
	sequenceRepo := postgresql.NewSequenceRepository(db)
	ediPayslipRepo := postgresql.NewEdiPayslipRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	transactor := postgresql.NewTransactor(db)

	if err := fixtures.SeedRadianSequences(ctx, sequenceRepo); err != nil {
		return fmt.Errorf("seed radian sequences: %w", err)
	}

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{})
	defer notifSvc.Stop()

	gateway := edipo.NewClient(cfg.Edipo, appMetrics)
	radianSvc := radianService.NewRadianService(radianRepo, sequenceRepo, gateway, notifSvc, appMetrics)
	ediPayslipSvc := ediPayslipService.NewEdiPayslipService(transactor, ediPayslipRepo, notifSvc, appMetrics)

	// Scheduler
	scheduler := cron.NewScheduler()
	if cfg.Cron.EdiPayslipEnabled {
		jobs := cron.NewEdiPayslipJobs(ediPayslipRepo, ediPayslipSvc, cfg.Cron.EdiPayslipInterval)
		if err := jobs.RegisterJobs(scheduler); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		Version:        appVersion,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, appHTTP.Handlers{
		Radian:       appHTTP.NewRadianHandler(radianSvc),
		EdiPayslip:   appHTTP.NewEdiPayslipHandler(ediPayslipSvc),
		Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService),
		Metrics:      appMetrics.Handler(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
