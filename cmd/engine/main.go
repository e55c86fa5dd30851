package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/fetch"
	"jobradar-engine/internal/health"
	"jobradar-engine/internal/poll"
	"jobradar-engine/internal/scrape"
	"jobradar-engine/internal/scrape/greenhouse"
	"jobradar-engine/internal/scrape/lever"
	"jobradar-engine/internal/scrape/rssboard"
	"jobradar-engine/internal/scrape/types"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("JOBRADAR_CONFIG", "config.yaml"), "path to config.yaml")
	once := flag.Bool("once", false, "run a single aggregation and exit")
	source := flag.String("source", "", "scrape a single source by name and exit")
	freshHours := flag.Int("fresh-hours", 0, "restrict output to listings newer than N hours")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[engine] config %s: %v; using defaults", *configPath, err)
		cfg = config.Default()
	}
	cfg, vres := config.NormalizeAndValidate(cfg)
	for _, w := range vres.Warnings {
		log.Printf("[engine] config: %s", w)
	}

	agg, tracker := build(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *source != "":
		listings, err := agg.ScrapeSingleSource(ctx, *source)
		if err != nil {
			log.Fatalf("[engine] source %s: %v", *source, err)
		}
		printJSON(listings)
	case *once:
		var listings any
		if *freshHours > 0 {
			listings = agg.FreshWithin(ctx, *freshHours)
		} else {
			listings = agg.Aggregate(ctx)
		}
		printJSON(listings)
		for _, o := range agg.Outcomes() {
			log.Printf("[engine] source=%s listings=%d elapsed=%s err=%q",
				o.Source, o.Listings, o.Elapsed.Round(time.Millisecond), o.Err)
		}
		for _, s := range tracker.Snapshots() {
			log.Printf("[engine] health source=%s status=%s ok=%d fail=%d",
				s.Source, s.Status, s.Successes, s.Failures)
		}
	default:
		var status atomic.Value
		status.Store(poll.Status{})
		poll.Start(ctx, agg, time.Duration(cfg.App.PollSeconds)*time.Second, &status)
		log.Printf("[engine] polling every %ds", cfg.App.PollSeconds)
		<-ctx.Done()
	}
}

func build(cfg config.Config) (*scrape.Aggregator, *health.Tracker) {
	limiter := fetch.NewHostLimiter(
		time.Duration(cfg.Fetch.BaseDelayMS)*time.Millisecond,
		time.Duration(cfg.Fetch.MinDelayMS)*time.Millisecond,
		time.Duration(cfg.Fetch.MaxDelayMS)*time.Millisecond,
	)
	cache := fetch.NewResponseCache(time.Duration(cfg.Fetch.CacheTTLMinutes) * time.Minute)
	fetcher := fetch.NewFetcher(limiter, cache, fetch.Options{
		MaxRetries:     cfg.Fetch.MaxRetries,
		BackoffBase:    time.Duration(cfg.Fetch.BackoffBaseMS) * time.Millisecond,
		RequestTimeout: time.Duration(cfg.Fetch.RequestTimeoutSec) * time.Second,
	})

	adapters := []types.SourceAdapter{
		greenhouse.New(cfg.Sources.Greenhouse.Source, cfg.Sources.Greenhouse.Boards, fetcher),
		lever.New(cfg.Sources.Lever.Source, cfg.Sources.Lever.Boards, fetcher),
		rssboard.New(cfg.Sources.RSS.Source, cfg.Sources.RSS.Feeds, fetcher),
	}

	var verifier *scrape.LinkVerifier
	if cfg.Aggregation.LinkVerification {
		verifier = scrape.NewLinkVerifier(scrape.VerifierOptions{
			Workers: cfg.Aggregation.VerifyWorkers,
			Timeout: time.Duration(cfg.Aggregation.VerifyTimeoutSeconds) * time.Second,
		})
	}
	var enricher *scrape.DeepEnricher
	if cfg.Aggregation.DeepEnrichment {
		enricher = scrape.NewDeepEnricher(fetcher, scrape.EnricherOptions{
			MaxListings:  cfg.Aggregation.MaxEnrichment,
			BatchTimeout: time.Duration(cfg.Aggregation.EnrichTimeoutSeconds) * time.Second,
			Workers:      cfg.Aggregation.EnrichWorkers,
		})
	}

	tracker := health.NewTracker()
	agg := scrape.NewAggregator(adapters, verifier, enricher, tracker, scrape.AggregatorOptions{
		Deadline:        cfg.Deadline(),
		SourceTimeout:   cfg.SourceTimeout(),
		FreshnessWindow: cfg.FreshnessWindow(),
		ResultCacheTTL:  time.Duration(cfg.Aggregation.ResultCacheMinutes) * time.Minute,
	})
	return agg, tracker
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("[engine] encode: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
