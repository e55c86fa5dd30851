package rssboard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/fetch"
	"jobradar-engine/internal/scrape"
)

// Adapter reads job-board RSS/Atom feeds (weworkremotely, remoteok and
// friends publish listing feeds). Feed bodies go through the shared
// fetcher so they share its rate limiting and cache.
type Adapter struct {
	cfg     config.Source
	feeds   []config.Feed
	fetcher *fetch.Fetcher
	parser  *gofeed.Parser
}

func New(cfg config.Source, feeds []config.Feed, f *fetch.Fetcher) *Adapter {
	return &Adapter{cfg: cfg, feeds: feeds, fetcher: f, parser: gofeed.NewParser()}
}

func (a *Adapter) Name() string  { return "rss" }
func (a *Adapter) Enabled() bool { return a.cfg.Enabled && len(a.feeds) > 0 }

func (a *Adapter) MinDelay() time.Duration {
	return time.Duration(a.cfg.PageDelayMS) * time.Millisecond
}

func (a *Adapter) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	var lastErr error
	for i, feed := range a.feeds {
		if i > 0 {
			if err := sleepCtx(ctx, a.MinDelay()); err != nil {
				return out, err
			}
		}
		listings, err := a.fetchFeed(ctx, feed)
		if err != nil {
			log.Printf("[rss] feed=%q err=%v", feed.Name, err)
			lastErr = err
			continue
		}
		out = append(out, listings...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (a *Adapter) fetchFeed(ctx context.Context, feed config.Feed) ([]domain.Listing, error) {
	body, err := a.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("rss fetch %s: %w", feed.Name, err)
	}
	parsed, err := a.parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("rss parse %s: %w", feed.Name, err)
	}

	query := strings.ToLower(a.cfg.Query)
	location := strings.ToLower(a.cfg.Location)
	now := time.Now()

	out := make([]domain.Listing, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title, company := splitTitle(item.Title)
		if company == "" {
			company = feed.Name
		}
		if item.Link == "" || title == "" {
			continue
		}
		if query != "" && !matchesQuery(title+" "+item.Description, query) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(item.Title+" "+item.Description), location) {
			continue
		}

		l := domain.Listing{
			Title:       title,
			Company:     company,
			Source:      "rss",
			ApplyURL:    item.Link,
			Description: scrape.CleanText(item.Description),
			FirstSeenAt: now,
		}
		if item.PublishedParsed != nil {
			l.PostedAt = item.PublishedParsed
		} else {
			l.PostedText = item.Published
		}
		out = append(out, l)
	}
	return out, nil
}

// splitTitle handles the "Company: Title" convention most job feeds
// use; items without it keep the whole string as the title.
func splitTitle(raw string) (title, company string) {
	raw = scrape.CleanText(raw)
	if i := strings.Index(raw, ": "); i > 0 {
		return strings.TrimSpace(raw[i+2:]), strings.TrimSpace(raw[:i])
	}
	return raw, ""
}

func matchesQuery(blob, query string) bool {
	lb := strings.ToLower(blob)
	for _, w := range strings.Fields(query) {
		if !strings.Contains(lb, w) {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
