// Package main is the entry point for the ridwell-mcp server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesprial/ridwell-mcp/internal/auth"
	"github.com/jamesprial/ridwell-mcp/internal/config"
	"github.com/jamesprial/ridwell-mcp/internal/graphql"
	"github.com/jamesprial/ridwell-mcp/internal/logger"
	"github.com/jamesprial/ridwell-mcp/internal/metrics"
	"github.com/jamesprial/ridwell-mcp/internal/pickups"
	"github.com/jamesprial/ridwell-mcp/internal/ridwell"
	"github.com/jamesprial/ridwell-mcp/internal/safety"
	"github.com/jamesprial/ridwell-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	defaultConfigPath = "/config/config.yaml"
	mcpPath           = "/mcp"
	loginTimeout      = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ridwell-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, loadErr := loadConfig()
	if err := config.ApplyEnvOverrides(ctx, cfg); err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	if loadErr != nil {
		log.Warn().Err(loadErr).Msg("could not load config file, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("could not generate auth token, running without authentication")
	} else if tokenBefore == "" {
		log.Info().Str("token", token).Msg("generated auth token (set RIDWELL_MCP_AUTH_TOKEN to persist)")
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Audit.LogPath).Msg("could not open audit log, audit logging disabled")
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	client, err := ridwell.NewClient(loginCtx, cfg.Ridwell,
		ridwell.WithLogger(log),
		ridwell.WithRecorder(collector),
	)
	cancel()
	if err != nil {
		return err
	}

	mcpServer := server.NewMCPServer(
		"ridwell-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	accountFilter := safety.FilterFromConfig(cfg.Safety.Accounts)
	confirm := safety.NewConfirmationTracker(pickups.DestructiveTools)

	n := tools.RegisterAll(mcpServer,
		pickups.PickupTools(client, accountFilter, confirm, auditLogger),
		ridwell.SessionTools(client, auditLogger),
		graphql.GraphQLTools(client, auditLogger),
	)
	log.Debug().Int("tools", n).Msg("registered tools")

	mux := http.NewServeMux()
	mux.Handle(mcpPath, server.NewStreamableHTTPServer(mcpServer))
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler(registry))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           auth.NewAuthMiddleware(cfg.Server.AuthToken, log)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return serve(ctx, httpSrv, log)
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ridwell-mcp listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// loadConfig reads the config file named by RIDWELL_MCP_CONFIG_PATH, or
// /config/config.yaml. When the file cannot be read it returns the defaults
// together with the error so the caller can log it once a logger exists.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("RIDWELL_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.DefaultConfig(), fmt.Errorf("load %q: %w", path, err)
	}
	return cfg, nil
}
