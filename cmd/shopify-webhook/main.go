package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"shopify-webhook/internal/config"
	"shopify-webhook/internal/logging"
	"shopify-webhook/internal/store"
	"shopify-webhook/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Webhook server stopped")
		os.Exit(1)
	}
}

// run owns every resource it opens, so they are released before main exits.
func run(cfg config.Config, logger log.Interface) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.WithError(err).Warn("Closing database failed")
		}
	}()
	logger.Info("Successfully connected to database")

	handler := webhook.NewHandler(st, webhook.Options{
		Secret:       cfg.ShopifySecret,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           webhook.Routes(handler, st, cfg.WebhookPath, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{"addr": cfg.Addr, "path": cfg.WebhookPath}).Info("Webhook server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	return errors.Wrap(serveErr, "serve http")
}
