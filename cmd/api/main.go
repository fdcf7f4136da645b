package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/trainerworkload/internal/api"
	"example.com/trainerworkload/internal/app"
	"example.com/trainerworkload/internal/auth"
	"example.com/trainerworkload/internal/config"
	"example.com/trainerworkload/internal/logging"
	httptransport "example.com/trainerworkload/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := app.NewLogger(cfg, "trainer-workload-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, closeService, err := app.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build ledger service", logging.Err(err))
		return
	}
	defer closeService()

	handlerOpts := []api.Option{api.WithLogger(logger)}
	if !cfg.AuthEnabled {
		handlerOpts = append(handlerOpts, api.WithoutAuthorization())
	}
	handler := api.NewHandler(service, handlerOpts...)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	var root http.Handler = mux
	if cfg.AuthEnabled {
		authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, logger, auth.PublicPaths...)
		root = authMiddleware.Wrap(root)
	} else {
		logger.Warn("bearer-token authentication disabled")
	}
	root = httptransport.WithTransactionID(httptransport.RequestLogger(logger, root))

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), root)

	go func() {
		logger.Info("trainer workload api listening", logging.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", logging.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logging.Err(err))
	}
}
