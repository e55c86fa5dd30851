package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source holds the knobs every adapter shares. Per-adapter extras
// (board slugs, feed URLs) live alongside it in Sources.
type Source struct {
	Enabled     bool   `yaml:"enabled"`
	Query       string `yaml:"query"`
	Location    string `yaml:"location"`
	MaxPages    int    `yaml:"max_pages"`
	PageDelayMS int    `yaml:"page_delay_ms"`
	MaxRetries  int    `yaml:"max_retries"`
}

type Board struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	App struct {
		PollSeconds int `yaml:"poll_seconds"`
	} `yaml:"app"`

	Fetch struct {
		BaseDelayMS       int `yaml:"base_delay_ms"`
		MinDelayMS        int `yaml:"min_delay_ms"`
		MaxDelayMS        int `yaml:"max_delay_ms"`
		MaxRetries        int `yaml:"max_retries"`
		BackoffBaseMS     int `yaml:"backoff_base_ms"`
		CacheTTLMinutes   int `yaml:"cache_ttl_minutes"`
		RequestTimeoutSec int `yaml:"request_timeout_seconds"`
	} `yaml:"fetch"`

	Aggregation struct {
		DeadlineSeconds      int  `yaml:"deadline_seconds"`
		SourceTimeoutSeconds int  `yaml:"source_timeout_seconds"`
		FreshnessWindowDays  int  `yaml:"freshness_window_days"`
		ResultCacheMinutes   int  `yaml:"result_cache_minutes"`
		DeepEnrichment       bool `yaml:"deep_enrichment"`
		MaxEnrichment        int  `yaml:"max_enrichment"`
		EnrichTimeoutSeconds int  `yaml:"enrich_timeout_seconds"`
		EnrichWorkers        int  `yaml:"enrich_workers"`
		LinkVerification     bool `yaml:"link_verification"`
		VerifyWorkers        int  `yaml:"verify_workers"`
		VerifyTimeoutSeconds int  `yaml:"verify_timeout_seconds"`
	} `yaml:"aggregation"`

	Sources struct {
		Greenhouse struct {
			Source `yaml:",inline"`
			Boards []Board `yaml:"boards"`
		} `yaml:"greenhouse"`
		Lever struct {
			Source `yaml:",inline"`
			Boards []Board `yaml:"boards"`
		} `yaml:"lever"`
		RSS struct {
			Source `yaml:",inline"`
			Feeds  []Feed `yaml:"feeds"`
		} `yaml:"rss"`
	} `yaml:"sources"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Default returns the documented baseline every out-of-range value is
// corrected toward.
func Default() Config {
	var cfg Config
	cfg.App.PollSeconds = 900

	cfg.Fetch.BaseDelayMS = 2000
	cfg.Fetch.MinDelayMS = 500
	cfg.Fetch.MaxDelayMS = 8000
	cfg.Fetch.MaxRetries = 3
	cfg.Fetch.BackoffBaseMS = 1000
	cfg.Fetch.CacheTTLMinutes = 15
	cfg.Fetch.RequestTimeoutSec = 20

	cfg.Aggregation.DeadlineSeconds = 45
	cfg.Aggregation.SourceTimeoutSeconds = 30
	cfg.Aggregation.FreshnessWindowDays = 7
	cfg.Aggregation.ResultCacheMinutes = 15
	cfg.Aggregation.DeepEnrichment = true
	cfg.Aggregation.MaxEnrichment = 20
	cfg.Aggregation.EnrichTimeoutSeconds = 20
	cfg.Aggregation.EnrichWorkers = 4
	cfg.Aggregation.LinkVerification = true
	cfg.Aggregation.VerifyWorkers = 5
	cfg.Aggregation.VerifyTimeoutSeconds = 10

	def := Source{Query: "software engineer", MaxPages: 3, PageDelayMS: 1500, MaxRetries: 3}
	cfg.Sources.Greenhouse.Source = def
	cfg.Sources.Lever.Source = def
	cfg.Sources.RSS.Source = def
	return cfg
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Aggregation.SourceTimeoutSeconds) * time.Second
}

func (c Config) Deadline() time.Duration {
	return time.Duration(c.Aggregation.DeadlineSeconds) * time.Second
}

func (c Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Aggregation.FreshnessWindowDays) * 24 * time.Hour
}
