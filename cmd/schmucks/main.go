package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aeromax/news-for-schmucks/internal/article"
	"github.com/aeromax/news-for-schmucks/internal/bundle"
	"github.com/aeromax/news-for-schmucks/internal/config"
	"github.com/aeromax/news-for-schmucks/internal/headlines"
	"github.com/aeromax/news-for-schmucks/internal/job"
	"github.com/aeromax/news-for-schmucks/internal/notifier"
	"github.com/aeromax/news-for-schmucks/internal/onthisday"
	"github.com/aeromax/news-for-schmucks/internal/reddit"
	"github.com/aeromax/news-for-schmucks/internal/scheduler"
	"github.com/aeromax/news-for-schmucks/internal/selector"
	"github.com/aeromax/news-for-schmucks/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	runOnce := flag.Bool("once", false, "Run the pipeline once and exit")
	printPrompt := flag.Bool("print", false, "With -once, print the rendered prompt to stdout")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("News for Schmucks %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Secrets come from the environment; a .env file is optional.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting News for Schmucks", "version", version)

	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database initialized", "path", cfg.Storage.Path)

	redditClient := reddit.New(
		reddit.WithSubreddit(cfg.Reddit.Subreddit),
		reddit.WithMaxRetries(cfg.Reddit.MaxRetries),
	)
	sel := selector.New(redditClient, redditClient)
	builder := bundle.New(redditClient, sel, article.New())
	notify := notifier.New(os.Getenv("SLACK_WEBHOOK_URL"), cfg.Notify.Username)

	opts := []job.Option{
		job.WithStore(db),
		job.WithNotifier(notify),
		job.WithEventSource(onthisday.New()),
	}
	if key := os.Getenv("NEWS_API_KEY"); key != "" && cfg.Headlines.Enabled {
		opts = append(opts, job.WithHeadlineSource(headlines.New(key)))
	}
	runner := job.New(cfg, builder, opts...)

	if *runOnce || !cfg.Schedule.Enabled {
		run, err := runner.Run(context.Background())
		if err != nil {
			os.Exit(1)
		}
		if *printPrompt {
			fmt.Println(run.Prompt)
		}
		return
	}

	sched, err := scheduler.New(cfg.Schedule.Time, cfg.Schedule.Timezone, func(ctx context.Context) {
		runner.Run(ctx)
	})
	if err != nil {
		slog.Error("Failed to build scheduler", "error", err)
		os.Exit(1)
	}

	sched.Start()
	slog.Info("Scheduled daily run",
		"time", cfg.Schedule.Time, "timezone", cfg.Schedule.Timezone, "next", sched.Next())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("Shutting down...")
	sched.Stop()
}
