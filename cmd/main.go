package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/space-service/config"
	"github.com/cwrk-planet/space-service/internal/postgres"
	"github.com/cwrk-planet/space-service/internal/security"
	"github.com/cwrk-planet/space-service/internal/service"
	httpx "github.com/cwrk-planet/space-service/internal/transport/http"
	"github.com/cwrk-planet/space-service/internal/transport/ws"
	"github.com/cwrk-planet/space-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		File:      cfg.Logging.File,
	})
	slog.Info("starting space-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.PoolConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- auth (только проверка, подписывает auth-service) ---
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("load jwt public key: %v", err)
	}
	verifier := security.NewTokenVerifier(pub, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.ClockSkewDuration())

	// --- repo & service ---
	spaceRepo := postgres.NewSpaceRepository(db.Pool)
	spaceSvc := service.NewSpaceService(spaceRepo)

	// --- WS registry & server ---
	registry := ws.NewRegistry()
	wsServer := ws.NewServer(registry, verifier, spaceSvc, ws.Options{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		PingEvery:      cfg.PingEveryDuration(),
		ReadLimit:      cfg.WS.ReadLimit,
	})

	// --- HTTP ---
	router := httpx.NewRouter(wsServer, cfg.WS.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
