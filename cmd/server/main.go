package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	audithandler "license-desk/backend/internal/audit/handler"
	auditrepo "license-desk/backend/internal/audit/repository"
	auditservice "license-desk/backend/internal/audit/service"
	"license-desk/backend/internal/config"
	dashboardhandler "license-desk/backend/internal/dashboard/handler"
	dashboardservice "license-desk/backend/internal/dashboard/service"
	"license-desk/backend/internal/db"
	devicehandler "license-desk/backend/internal/device/handler"
	devicerepo "license-desk/backend/internal/device/repository"
	deviceservice "license-desk/backend/internal/device/service"
	identityhandler "license-desk/backend/internal/identity/handler"
	identityservice "license-desk/backend/internal/identity/service"
	"license-desk/backend/internal/security"
	"license-desk/backend/internal/server"
	"license-desk/backend/internal/telemetry/otel"
	userhandler "license-desk/backend/internal/user/handler"
	userrepo "license-desk/backend/internal/user/repository"
)

const serviceName = "license-desk-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		logger.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var (
		devices devicerepo.Repository
		users   userrepo.Repository
		logs    auditrepo.Repository
		txm     db.TxManager
	)
	if cfg.DatabaseURL != "" {
		var conn *sql.DB
		conn, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("db", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		devices = devicerepo.NewPostgresRepository(conn)
		users = userrepo.NewPostgresRepository(conn)
		logs = auditrepo.NewPostgresRepository(conn)
		txm = db.NewSQLTxManager(conn)
		logger.Info("using postgres store")
	} else {
		devices = devicerepo.NewMemoryRepository()
		users = userrepo.NewMemoryRepository()
		logs = auditrepo.NewMemoryRepository()
		txm = db.NewMutexTxManager()
		logger.Warn("DATABASE_URL empty, using in-memory store; data is lost on restart")
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	deviceSvc := deviceservice.NewService(devices, logs, txm, logger, nil)
	authSvc := identityservice.NewAuthService(users, logs, txm, hasher, tokens, logger, nil)
	auditSvc := auditservice.NewService(logs, logger, nil)
	dashboardSvc := dashboardservice.NewService(devices, users, logs, nil)

	router := server.NewRouter(server.Handlers{
		Auth:      identityhandler.NewAuthHandler(authSvc),
		Devices:   devicehandler.NewDeviceHandler(deviceSvc, nil),
		Logs:      audithandler.NewAuditHandler(auditSvc),
		Users:     userhandler.NewUserHandler(users),
		Dashboard: dashboardhandler.NewDashboardHandler(dashboardSvc),
	}, tokens, logger, serviceName)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("http server stopped")
}
