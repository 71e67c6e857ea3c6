package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/subdeck/subdeck/pkg/airtable"
	"github.com/subdeck/subdeck/pkg/api"
	"github.com/subdeck/subdeck/pkg/audit"
	"github.com/subdeck/subdeck/pkg/auth"
	"github.com/subdeck/subdeck/pkg/config"
	"github.com/subdeck/subdeck/pkg/observability"
	"github.com/subdeck/subdeck/pkg/tenants"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	port := flag.String("port", "", "Port to listen on (overrides SUBDECK_PORT)")
	tenantsFile := flag.String("tenants", "", "Tenant list YAML file (overrides SUBDECK_TENANTS_FILE)")
	webDir := flag.String("web-dir", "", "Static dashboard directory (overrides SUBDECK_WEB_DIR)")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *tenantsFile != "" {
		cfg.TenantsFile = *tenantsFile
	}
	if *webDir != "" {
		cfg.WebDir = *webDir
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	// A broken tenant list keeps the process up with an empty registry;
	// every login then fails with invalid credentials.
	registry, err := tenants.LoadFile(cfg.TenantsFile)
	if err != nil {
		log.WithError(err).Warn("Tenant registry load failed, continuing with empty registry")
	}
	log.Infof("Tenant registry loaded with %d tenant(s)", registry.Len())

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	auditLog := audit.NewNopLogger()
	if cfg.Observability.AuditLogPath != "" {
		fileLog, err := audit.NewFileLogger(cfg.Observability.AuditLogPath)
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		auditLog = fileLog
	}

	sessions := auth.NewStore()
	sweeper, err := auth.NewSweeper(sessions, cfg.Sessions.SweepInterval, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to schedule session sweeper: %v", err)
	}
	sweeper.Start()

	upstream := airtable.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger, metrics)

	server := api.NewServer(api.Config{
		Registry:       registry,
		Sessions:       sessions,
		Upstream:       upstream,
		Logger:         logger,
		Metrics:        metrics,
		Audit:          auditLog,
		WebDir:         cfg.WebDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        version,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(sweeper.Stop)
	shutdown.RegisterShutdownFunc(func(context.Context) error { return auditLog.Close() })

	go func() {
		log.Infof("Subdeck gateway listening on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		log.WithError(err).Error("Shutdown completed with errors")
		os.Exit(1)
	}
}
