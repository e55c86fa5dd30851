package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/fetch"
	"jobradar-engine/internal/scrape"
)

// pageSize postings per API page (api.lever.co skip/limit pagination).
const pageSize = 50

// Adapter pulls the public Lever postings API for the configured
// companies.
type Adapter struct {
	cfg     config.Source
	boards  []config.Board
	fetcher *fetch.Fetcher
	apiBase string
}

func New(cfg config.Source, boards []config.Board, f *fetch.Fetcher) *Adapter {
	return &Adapter{cfg: cfg, boards: boards, fetcher: f, apiBase: "https://api.lever.co/v0/postings"}
}

func (a *Adapter) Name() string  { return "lever" }
func (a *Adapter) Enabled() bool { return a.cfg.Enabled && len(a.boards) > 0 }

func (a *Adapter) MinDelay() time.Duration {
	return time.Duration(a.cfg.PageDelayMS) * time.Millisecond
}

type posting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	Description string `json:"descriptionPlain"`
	Salary      struct {
		Min      int    `json:"min"`
		Max      int    `json:"max"`
		Currency string `json:"currency"`
	} `json:"salaryRange"`
}

func (a *Adapter) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	var lastErr error
	for _, board := range a.boards {
		listings, err := a.fetchCompany(ctx, board)
		if err != nil {
			log.Printf("[lever] company=%q err=%v", board.Slug, err)
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

func (a *Adapter) fetchCompany(ctx context.Context, board config.Board) ([]domain.Listing, error) {
	var out []domain.Listing

	for page := 0; page < a.cfg.MaxPages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, a.MinDelay()); err != nil {
				return out, err
			}
		}

		u := fmt.Sprintf("%s/%s?mode=json&limit=%d&skip=%d",
			a.apiBase, board.Slug, pageSize, page*pageSize)
		body, err := a.fetcher.Fetch(ctx, u)
		if err != nil {
			return out, fmt.Errorf("lever %s page %d: %w", board.Slug, page, err)
		}

		var postings []posting
		if err := json.Unmarshal([]byte(body), &postings); err != nil {
			return out, fmt.Errorf("lever decode %s: %w", board.Slug, err)
		}
		if len(postings) == 0 {
			break
		}

		out = append(out, a.convert(postings, board)...)
		if len(postings) < pageSize {
			break
		}
	}
	return out, nil
}

func (a *Adapter) convert(postings []posting, board config.Board) []domain.Listing {
	query := strings.ToLower(a.cfg.Query)
	location := strings.ToLower(a.cfg.Location)
	now := time.Now()

	out := make([]domain.Listing, 0, len(postings))
	for _, p := range postings {
		title := scrape.CleanText(p.Text)
		if p.HostedURL == "" || title == "" {
			continue
		}
		if query != "" && !matchesQuery(title, query) {
			continue
		}
		loc := scrape.NormalizeLocation(p.Categories.Location)
		if location != "" && loc != "" && !strings.Contains(strings.ToLower(loc), location) {
			continue
		}

		l := domain.Listing{
			Title:       title,
			Company:     board.Name,
			Location:    loc,
			Source:      "lever",
			ApplyURL:    p.HostedURL,
			Description: p.Description,
			JobType:     scrape.CleanText(p.Categories.Commitment),
			FirstSeenAt: now,
		}
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt)
			l.PostedAt = &t
		}
		if p.Salary.Max > 0 {
			l.SalaryText = fmt.Sprintf("%s %d - %d", p.Salary.Currency, p.Salary.Min, p.Salary.Max)
		}
		out = append(out, l)
	}
	return out
}

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
