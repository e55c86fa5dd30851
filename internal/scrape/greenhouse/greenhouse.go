package greenhouse

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/fetch"
	"jobradar-engine/internal/scrape"
)

// Adapter scrapes boards.greenhouse.io board pages for the configured
// companies, filtered by the search query.
type Adapter struct {
	cfg     config.Source
	boards  []config.Board
	fetcher *fetch.Fetcher
	baseURL string
}

func New(cfg config.Source, boards []config.Board, f *fetch.Fetcher) *Adapter {
	return &Adapter{cfg: cfg, boards: boards, fetcher: f, baseURL: "https://boards.greenhouse.io"}
}

func (a *Adapter) Name() string  { return "greenhouse" }
func (a *Adapter) Enabled() bool { return a.cfg.Enabled && len(a.boards) > 0 }

func (a *Adapter) MinDelay() time.Duration {
	return time.Duration(a.cfg.PageDelayMS) * time.Millisecond
}

func (a *Adapter) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	var lastErr error
	for _, board := range a.boards {
		listings, err := a.fetchBoard(ctx, board)
		if err != nil {
			// one dead board must not sink the others
			log.Printf("[greenhouse] board=%q err=%v", board.Slug, err)
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

func (a *Adapter) fetchBoard(ctx context.Context, board config.Board) ([]domain.Listing, error) {
	seen := map[string]bool{}
	var out []domain.Listing

	for page := 1; page <= a.cfg.MaxPages; page++ {
		if page > 1 {
			if err := sleepCtx(ctx, a.MinDelay()); err != nil {
				return out, err
			}
		}

		pageURL := fmt.Sprintf("%s/%s?page=%d", a.baseURL, board.Slug, page)
		body, err := a.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return out, fmt.Errorf("greenhouse board %s page %d: %w", board.Slug, page, err)
		}

		found, err := a.parseBoard(body, board, seen)
		if err != nil {
			return out, err
		}
		if len(found) == 0 {
			// empty page means the board is exhausted
			break
		}
		out = append(out, found...)
	}
	return out, nil
}

func (a *Adapter) parseBoard(body string, board config.Board, seen map[string]bool) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("greenhouse parse board html: %w", err)
	}

	query := strings.ToLower(a.cfg.Query)
	location := strings.ToLower(a.cfg.Location)
	now := time.Now()

	var out []domain.Listing
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		abs := href
		if strings.HasPrefix(href, "/") {
			abs = a.baseURL + href
		}
		if !strings.Contains(strings.ToLower(abs), "/jobs/") {
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		title := scrape.CleanText(sel.Text())
		if title == "" || looksLikeJunkTitle(title) {
			return
		}
		if query != "" && !matchesQuery(title, query) {
			return
		}

		loc := scrape.NormalizeLocation(sel.Parent().Find(".location").First().Text())
		if location != "" && loc != "" && !strings.Contains(strings.ToLower(loc), location) {
			return
		}

		out = append(out, domain.Listing{
			Title:       title,
			Company:     board.Name,
			Location:    loc,
			Source:      "greenhouse",
			ApplyURL:    abs,
			FirstSeenAt: now,
		})
	})
	return out, nil
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return l == "view" || l == "apply" || strings.HasPrefix(l, "apply ") ||
		strings.Contains(l, "view all") || strings.Contains(l, "learn more")
}

// matchesQuery requires every query word to appear in the title.
func matchesQuery(title, query string) bool {
	lt := strings.ToLower(title)
	for _, w := range strings.Fields(query) {
		if !strings.Contains(lt, w) {
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
