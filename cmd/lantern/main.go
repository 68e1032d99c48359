// Command lantern serves the alpha-beta agent to game hosts over HTTP and
// websockets, or dials a host with -connect.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/client"
	"github.com/brensch/lantern/distance"
	"github.com/brensch/lantern/logging"
	"github.com/brensch/lantern/search"
	"github.com/brensch/lantern/server"
	"github.com/brensch/lantern/store"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", getEnvOrDefault("LANTERN_LISTEN", ":8080"), "HTTP listen address")
	connect := fs.String("connect", getEnvOrDefault("LANTERN_CONNECT", ""), "Host websocket URL to dial instead of serving")
	depth := fs.Int("depth", getEnvIntOrDefault("LANTERN_DEPTH", search.DefaultConfig.Depth), "Search depth in plies")
	deadline := fs.Duration("deadline", getEnvDurationOrDefault("LANTERN_DEADLINE", 0), "Per-move search deadline (0 = none)")
	moveTimeout := fs.Duration("move-timeout", getEnvDurationOrDefault("LANTERN_MOVE_TIMEOUT", 0), "Per-request timeout for /move (0 = none)")
	cacheSize := fs.Int("cache-size", getEnvIntOrDefault("LANTERN_CACHE_SIZE", distance.DefaultCacheSize), "Distance cache entries per match")
	recordDir := fs.String("record-dir", getEnvOrDefault("LANTERN_RECORD_DIR", ""), "Directory for parquet decision batches (empty = off)")
	flushRows := fs.Int("flush-rows", getEnvIntOrDefault("LANTERN_FLUSH_ROWS", store.DefaultFlushRows), "Rows per decision batch")
	logFormat := fs.String("log-format", getEnvOrDefault("LANTERN_LOG_FORMAT", logging.FormatText), "Log format: text, json or pretty")
	logLevel := fs.String("log-level", getEnvOrDefault("LANTERN_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger, err := logging.New(os.Stderr, *logFormat, level)
	if err != nil {
		log.Fatalf("%v", err)
	}
	slog.SetDefault(logger)

	a := agent.New(agent.Config{
		Search:    search.Config{Depth: *depth, Deadline: *deadline},
		CacheSize: *cacheSize,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *connect != "" {
		cfg := client.DefaultConfig()
		cfg.URL = *connect
		logger.Info("connecting", "url", cfg.URL, "depth", *depth)
		stats, err := client.Play(ctx, cfg, a, logger)
		logger.Info("disconnected", "observations", stats.Observations, "moves", stats.Moves, "errors", stats.Errors, "games", stats.GamesOver)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("play", "err", err)
			os.Exit(1)
		}
		return
	}

	var rec *store.Recorder
	srvConfig := server.Config{Version: version, MoveTimeout: *moveTimeout, Logger: logger}
	if *recordDir != "" {
		rec, err = store.NewRecorder(*recordDir, *flushRows, logger)
		if err != nil {
			log.Fatalf("recorder: %v", err)
		}
		srvConfig.Recorder = rec
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.New(a, srvConfig).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("lantern listening", "addr", *listen, "team", agent.TeamName, "depth", *depth, "record_dir", *recordDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			logger.Error("final flush", "err", err)
		}
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
