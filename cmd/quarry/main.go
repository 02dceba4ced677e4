package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/MikeSquared-Agency/quarry/internal/api"
	"github.com/MikeSquared-Agency/quarry/internal/config"
	"github.com/MikeSquared-Agency/quarry/internal/events"
	"github.com/MikeSquared-Agency/quarry/internal/jira"
	"github.com/MikeSquared-Agency/quarry/internal/scrape"
	"github.com/MikeSquared-Agency/quarry/internal/slack"
	"github.com/MikeSquared-Agency/quarry/internal/state"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	if len(cfg.Projects) == 0 {
		slog.Error("QUARRY_PROJECTS is required (comma-separated project keys)")
		os.Exit(1)
	}

	slog.Info("quarry starting", "projects", cfg.Projects, "data_dir", cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fetch client — one HTTP session reused for the whole run.
	client := jira.NewClient(cfg.JiraBaseURL, slog.Default())
	stateStore := state.NewStore(cfg.DataDir, slog.Default())

	// NATS events (optional — quarry works without them, just no live feed)
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		var err error
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without progress events")
	}

	// Postgres run ledger (optional)
	var ledger *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		ledger, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer ledger.Close()
		slog.Info("database connected")
	}

	// Slack summary poster (optional)
	var poster *slack.Poster
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		poster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	}

	runner := scrape.NewRunner(scrape.Config{
		Projects:   cfg.Projects,
		DataDir:    cfg.DataDir,
		PageSize:   cfg.PageSize,
		BatchDelay: 500 * time.Millisecond,
	}, client, stateStore, publisher, ledger, poster, slog.Default())

	// Status API
	srv := api.NewServer(cfg.Port, runner)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// A signal cancels the run; the loop stops at the current batch boundary
	// and state stays at the last committed offset.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, stopping after current batch", "signal", sig)
		cancel()
	}()

	err := runner.Run(ctx)
	switch {
	case err == nil:
		slog.Info("all scraping jobs complete")
	case errors.Is(err, context.Canceled):
		slog.Info("scrape interrupted, state saved for resume")
	default:
		slog.Error("scrape failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "text" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}
