// Command selfplay pits two search configurations against each other and
// records every decision as parquet batches.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/distance"
	"github.com/brensch/lantern/logging"
	"github.com/brensch/lantern/maze"
	"github.com/brensch/lantern/search"
	"github.com/brensch/lantern/selfplay"
	"github.com/brensch/lantern/store"
)

var totalPlies atomic.Int64
var totalNodes atomic.Int64
var totalMatches atomic.Int64

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	matches := fs.Int("matches", getEnvIntOrDefault("LANTERN_MATCHES", 10), "Number of matches to play")
	parallel := fs.Int("parallel", getEnvIntOrDefault("LANTERN_PARALLEL", runtime.NumCPU()), "Matches played at once")
	blueDepth := fs.Int("depth-blue", getEnvIntOrDefault("LANTERN_DEPTH_BLUE", search.DefaultConfig.Depth), "Blue search depth")
	redDepth := fs.Int("depth-red", getEnvIntOrDefault("LANTERN_DEPTH_RED", search.DefaultConfig.Depth), "Red search depth")
	deadline := fs.Duration("deadline", getEnvDurationOrDefault("LANTERN_DEADLINE", 0), "Per-move search deadline (0 = none)")
	cacheSize := fs.Int("cache-size", getEnvIntOrDefault("LANTERN_CACHE_SIZE", distance.DefaultCacheSize), "Distance cache entries per match")
	maxRounds := fs.Int("max-rounds", getEnvIntOrDefault("LANTERN_MAX_ROUNDS", 0), "Stop matches after this many rounds (0 = full length)")
	layoutPath := fs.String("layout", getEnvOrDefault("LANTERN_LAYOUT", ""), "Layout file (empty = built-in)")
	recordDir := fs.String("record-dir", getEnvOrDefault("LANTERN_RECORD_DIR", "data/selfplay"), "Directory for parquet decision batches")
	flushRows := fs.Int("flush-rows", getEnvIntOrDefault("LANTERN_FLUSH_ROWS", store.DefaultFlushRows), "Rows per decision batch")
	useTUI := fs.Bool("tui", getEnvBoolOrDefault("LANTERN_TUI", false), "Show a live terminal UI")
	prof := fs.String("profile", getEnvOrDefault("LANTERN_PROFILE", ""), "Write a cpu or mem profile to the working directory")
	logFormat := fs.String("log-format", getEnvOrDefault("LANTERN_LOG_FORMAT", logging.FormatText), "Log format: text, json or pretty")
	logLevel := fs.String("log-level", getEnvOrDefault("LANTERN_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	// os.Exit and log.Fatalf skip deferred calls, so every exit below stops
	// the profile first.
	stopProfile, err := startProfile(*prof, ".")
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer stopProfile()
	fatalf := func(format string, args ...any) {
		stopProfile()
		log.Fatalf(format, args...)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fatalf("%v", err)
	}
	// The TUI owns the terminal; logs go to a file next to the records.
	logOut := os.Stderr
	if *useTUI {
		if err := os.MkdirAll(*recordDir, 0o755); err != nil {
			fatalf("create record dir: %v", err)
		}
		f, err := os.OpenFile(filepath.Join(*recordDir, "selfplay.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fatalf("open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, *logFormat, level)
	if err != nil {
		fatalf("%v", err)
	}
	slog.SetDefault(logger)

	layout := maze.Default
	if *layoutPath != "" {
		text, err := os.ReadFile(*layoutPath)
		if err != nil {
			fatalf("read layout: %v", err)
		}
		if layout, err = maze.Parse(string(text)); err != nil {
			fatalf("parse layout %s: %v", *layoutPath, err)
		}
	}

	rec, err := store.NewRecorder(*recordDir, *flushRows, logger)
	if err != nil {
		fatalf("recorder: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan MatchUpdate, 64)
	cfg := selfplay.MatchConfig{
		Layout:    layout,
		Blue:      agent.Config{Search: search.Config{Depth: *blueDepth, Deadline: *deadline}, CacheSize: *cacheSize},
		Red:       agent.Config{Search: search.Config{Depth: *redDepth, Deadline: *deadline}, CacheSize: *cacheSize},
		MaxRounds: *maxRounds,
		Logger:    logger,
		OnStep: func(s selfplay.Step) {
			totalPlies.Add(1)
			totalNodes.Add(int64(s.Decision.Stats.Nodes))
		},
	}

	logger.Info("starting self-play",
		"matches", *matches,
		"parallel", *parallel,
		"depth_blue", *blueDepth,
		"depth_red", *redDepth,
		"record_dir", *recordDir,
	)

	runErr := make(chan error, 1)
	go func() {
		_, err := selfplay.RunMatches(ctx, *matches, *parallel, cfg, func(res selfplay.MatchResult) error {
			totalMatches.Add(1)
			select {
			case updates <- MatchUpdate{Result: res}:
			default:
			}
			return rec.Record(res.Rows...)
		})
		runErr <- err
	}()

	if *useTUI {
		p := tea.NewProgram(initialModel(updates, *matches), tea.WithAltScreen())
		go func() {
			err := <-runErr
			runErr <- err
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			logger.Error("tui", "err", err)
		}
		cancel()
	}

	err = <-runErr
	if cerr := rec.Close(); cerr != nil {
		logger.Error("final flush", "err", cerr)
	}
	logger.Info("self-play done",
		"matches", totalMatches.Load(),
		"plies", totalPlies.Load(),
		"rows", rec.Rows(),
		"files", len(rec.Files()),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("self-play", "err", err)
		stopProfile()
		os.Exit(1)
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

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
