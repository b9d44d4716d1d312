package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/tkamiya/daily-brief/internal/config"
	"github.com/tkamiya/daily-brief/internal/publisher"
	"github.com/tkamiya/daily-brief/internal/runner"
	"github.com/tkamiya/daily-brief/internal/scraper"
	"github.com/tkamiya/daily-brief/internal/summarizer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	// A missing .env is fine; config falls back to the process environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	s, err := scraper.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build scraper: %v", err)
	}

	sum, err := summarizer.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build summarizer: %v", err)
	}

	var pubs []publisher.Publisher
	switch cfg.Publisher.Type {
	case "stdout":
		pubs = append(pubs, publisher.NewStdoutPublisher())
	case "slack":
		pubs = append(pubs, publisher.NewSlackPublisher(cfg.Publisher.Slack.WebhookURL))
	case "discord":
		pubs = append(pubs, publisher.NewDiscordPublisher(cfg.Publisher.Discord.WebhookURL))
	default:
		log.Fatalf("Unknown publisher type: %s", cfg.Publisher.Type)
	}

	r := runner.New(cfg.Accounts, s, sum, pubs)

	// Single-run mode: run the pipeline once and exit.
	if *once {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		log.Println("Running daily brief (once mode)...")
		if err := r.Run(ctx); err != nil {
			log.Fatalf("Pipeline failed: %v", err)
		}
		log.Println("Done")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RunOnStart {
		log.Println("Running initial brief...")
		if err := r.Run(ctx); err != nil {
			log.Printf("Initial run failed: %v", err)
		}
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		log.Println("Cron triggered, running daily brief...")
		if err := r.Run(ctx); err != nil {
			log.Printf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron schedule %q: %v", cfg.Schedule, err)
	}
	c.Start()
	log.Printf("Scheduled daily brief with cron expression: %s", cfg.Schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	cancel()
	c.Stop()

	log.Println("Shutdown complete")
}
