package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacoelho/jscan/internal/config"
	"github.com/jacoelho/jscan/internal/ratelimit"
	"github.com/jacoelho/jscan/internal/runner"
	"github.com/jacoelho/jscan/internal/server"
)

func main() {
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Serve != "" {
		return serve(ctx, cfg)
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	r, exitResult := runner.New(cfg, log)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}
	return r.Run(ctx)
}

func serve(ctx context.Context, cfg *config.Config) int {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	opts := server.Options{
		Mapping:  cfg.Mapping,
		Target:   cfg.Target,
		MaxDepth: cfg.MaxDepth,
		Format:   cfg.Format,
	}
	if cfg.MaxDepth == 0 {
		opts.MaxDepth = -1
	}
	if cfg.RateLimit > 0 {
		opts.Limiter = ratelimit.NewWithBurst(cfg.RateLimit, max(1, int(cfg.RateLimit)))
	}

	httpServer := &http.Server{
		Addr:              cfg.Serve,
		Handler:           server.NewServer(log, opts),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("starting jscan", "addr", cfg.Serve, "target", cfg.Target, "format", cfg.Format)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		return 1
	}
	return 0
}
