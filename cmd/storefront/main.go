// Package main implements the storefront API server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/dongnae-labs/storefront/internal/app"
	"github.com/dongnae-labs/storefront/internal/app/httpapi"
	"github.com/dongnae-labs/storefront/internal/config"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	addr := flag.String("addr", "", "Listen address override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("storefront").WithError(err).Fatal("load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New("storefront", cfg.Log.Level, cfg.Log.Format)

	application, err := app.New(cfg, log, app.Options{})
	if err != nil {
		log.WithError(err).Fatal("initialise application")
	}

	router := httpapi.NewRouter(application, httpapi.Config{
		AdminToken:      cfg.Auth.AdminToken,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitPerSec: cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}, log.WithField("component", "httpapi"))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("storefront API listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	log.Info("stopped")
}
