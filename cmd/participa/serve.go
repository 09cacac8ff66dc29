package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/participa/api"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/cache"
	"github.com/use-agent/participa/scraper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web page and the JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	slog.Info("participa starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"target", cfg.Scraper.TargetURL,
		"fetchMode", cfg.Scraper.FetchMode,
		"logPath", cfg.Browser.LogPath,
		"version", Version,
	)

	// ── 1. Remove the log left over from a previous process ─────────
	if err := browserlog.Delete(cfg.Browser.LogPath); err != nil {
		slog.Warn("could not remove stale browser log", "path", cfg.Browser.LogPath, "error", err)
	}

	// ── 2. Initialise scraper (locates browser, no launch yet) ──────
	sc, err := scraper.New(cfg.Browser, cfg.Scraper)
	if err != nil {
		return fmt.Errorf("initialise scraper: %w", err)
	}

	// ── 3. Initialise cache ─────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 4. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router, err := api.NewRouter(sc, cfg, cc, startTime)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// An in-flight run holds its request open; give it the run timeout to
	// finish so its browser is released by the run itself.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.RunTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("participa stopped")
	return nil
}
