// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/auth-gateway/internal/auth"
	"github.com/yourusername/auth-gateway/internal/config"
	"github.com/yourusername/auth-gateway/internal/observability"
	"github.com/yourusername/auth-gateway/internal/server"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	release := cfg.GinMode == gin.ReleaseMode
	logger := observability.NewLogger(cfg.LogLevel, release, os.Stdout)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	store, err := setupStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close user store")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	// セッションストアの設定（署名鍵は config で検証済み）
	sessionStore, err := auth.NewSessionStore(cfg)
	if err != nil {
		return err
	}

	router, err := server.NewRouter(server.Deps{
		Config:       cfg,
		Store:        store,
		Hasher:       auth.NewBcryptHasher(cfg.BcryptCost),
		SessionStore: sessionStore,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":       srv.Addr,
			"mode":       cfg.GinMode,
			"store":      cfg.StoreDriver,
			"session":    cfg.SessionStore,
			"restricted": cfg.RestrictedPrefix,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		logger.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
