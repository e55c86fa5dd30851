package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Warnings []string `json:"warnings"`
}

func (v *Validation) warn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// NormalizeAndValidate returns a corrected copy of cfg. Out-of-range
// values are replaced with the documented defaults and reported as
// warnings; a bad config is never fatal.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	def := Default()
	var res Validation

	clampInt := func(name string, v *int, fallback int) {
		if *v <= 0 {
			res.warn("%s must be > 0; using default %d", name, fallback)
			*v = fallback
		}
	}

	clampInt("app.poll_seconds", &out.App.PollSeconds, def.App.PollSeconds)

	clampInt("fetch.base_delay_ms", &out.Fetch.BaseDelayMS, def.Fetch.BaseDelayMS)
	clampInt("fetch.min_delay_ms", &out.Fetch.MinDelayMS, def.Fetch.MinDelayMS)
	clampInt("fetch.max_delay_ms", &out.Fetch.MaxDelayMS, def.Fetch.MaxDelayMS)
	if out.Fetch.MaxDelayMS < out.Fetch.MinDelayMS {
		res.warn("fetch.max_delay_ms (%d) below fetch.min_delay_ms (%d); swapping",
			out.Fetch.MaxDelayMS, out.Fetch.MinDelayMS)
		out.Fetch.MinDelayMS, out.Fetch.MaxDelayMS = out.Fetch.MaxDelayMS, out.Fetch.MinDelayMS
	}
	clampInt("fetch.max_retries", &out.Fetch.MaxRetries, def.Fetch.MaxRetries)
	clampInt("fetch.backoff_base_ms", &out.Fetch.BackoffBaseMS, def.Fetch.BackoffBaseMS)
	clampInt("fetch.cache_ttl_minutes", &out.Fetch.CacheTTLMinutes, def.Fetch.CacheTTLMinutes)
	clampInt("fetch.request_timeout_seconds", &out.Fetch.RequestTimeoutSec, def.Fetch.RequestTimeoutSec)

	clampInt("aggregation.deadline_seconds", &out.Aggregation.DeadlineSeconds, def.Aggregation.DeadlineSeconds)
	clampInt("aggregation.source_timeout_seconds", &out.Aggregation.SourceTimeoutSeconds, def.Aggregation.SourceTimeoutSeconds)
	if out.Aggregation.SourceTimeoutSeconds >= out.Aggregation.DeadlineSeconds {
		// every stage budget stays strictly inside the run deadline
		corrected := out.Aggregation.DeadlineSeconds * 2 / 3
		if corrected <= 0 {
			corrected = 1
		}
		res.warn("aggregation.source_timeout_seconds (%d) not below deadline (%d); using %d",
			out.Aggregation.SourceTimeoutSeconds, out.Aggregation.DeadlineSeconds, corrected)
		out.Aggregation.SourceTimeoutSeconds = corrected
	}
	clampInt("aggregation.freshness_window_days", &out.Aggregation.FreshnessWindowDays, def.Aggregation.FreshnessWindowDays)
	clampInt("aggregation.result_cache_minutes", &out.Aggregation.ResultCacheMinutes, def.Aggregation.ResultCacheMinutes)
	clampInt("aggregation.max_enrichment", &out.Aggregation.MaxEnrichment, def.Aggregation.MaxEnrichment)
	clampInt("aggregation.enrich_timeout_seconds", &out.Aggregation.EnrichTimeoutSeconds, def.Aggregation.EnrichTimeoutSeconds)
	clampInt("aggregation.enrich_workers", &out.Aggregation.EnrichWorkers, def.Aggregation.EnrichWorkers)
	clampInt("aggregation.verify_workers", &out.Aggregation.VerifyWorkers, def.Aggregation.VerifyWorkers)
	clampInt("aggregation.verify_timeout_seconds", &out.Aggregation.VerifyTimeoutSeconds, def.Aggregation.VerifyTimeoutSeconds)

	out.Sources.Greenhouse.Source = normalizeSource("sources.greenhouse", out.Sources.Greenhouse.Source, &res)
	out.Sources.Lever.Source = normalizeSource("sources.lever", out.Sources.Lever.Source, &res)
	out.Sources.RSS.Source = normalizeSource("sources.rss", out.Sources.RSS.Source, &res)

	out.Sources.Greenhouse.Boards = trimBoards(out.Sources.Greenhouse.Boards)
	out.Sources.Lever.Boards = trimBoards(out.Sources.Lever.Boards)

	var feeds []Feed
	for _, f := range out.Sources.RSS.Feeds {
		f.URL = strings.TrimSpace(f.URL)
		f.Name = strings.TrimSpace(f.Name)
		if f.URL == "" {
			continue
		}
		if f.Name == "" {
			f.Name = "rss"
		}
		feeds = append(feeds, f)
	}
	out.Sources.RSS.Feeds = feeds

	if !out.Sources.Greenhouse.Enabled && !out.Sources.Lever.Enabled && !out.Sources.RSS.Enabled {
		res.warn("no sources enabled; aggregation will return nothing")
	}

	return out, res
}

func normalizeSource(name string, s Source, res *Validation) Source {
	def := Default().Sources.Greenhouse.Source
	s.Query = strings.TrimSpace(s.Query)
	if s.Query == "" {
		s.Query = def.Query
	}
	s.Location = strings.TrimSpace(s.Location)
	if s.MaxPages <= 0 {
		res.warn("%s.max_pages must be > 0; using default %d", name, def.MaxPages)
		s.MaxPages = def.MaxPages
	}
	if s.PageDelayMS < 0 {
		res.warn("%s.page_delay_ms is negative; using default %d", name, def.PageDelayMS)
		s.PageDelayMS = def.PageDelayMS
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = def.MaxRetries
	}
	return s
}

func trimBoards(in []Board) []Board {
	var out []Board
	seen := map[string]bool{}
	for _, b := range in {
		b.Slug = strings.TrimSpace(b.Slug)
		if b.Slug == "" || seen[strings.ToLower(b.Slug)] {
			continue
		}
		seen[strings.ToLower(b.Slug)] = true
		if strings.TrimSpace(b.Name) == "" {
			b.Name = b.Slug
		}
		out = append(out, b)
	}
	return out
}
