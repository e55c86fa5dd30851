package scrape

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/fetch"
)

type EnricherOptions struct {
	MaxListings  int           // per run, bounds the fan-out
	BatchTimeout time.Duration // wall clock for the whole batch
	Workers      int
}

// DeepEnricher re-fetches detail pages for a bounded subset of
// listings to backfill missing fields. Strictly best-effort: any
// individual failure keeps the original listing unmodified, and tasks
// still running at the batch deadline are abandoned.
type DeepEnricher struct {
	fetcher *fetch.Fetcher
	opts    EnricherOptions
}

func NewDeepEnricher(f *fetch.Fetcher, opts EnricherOptions) *DeepEnricher {
	if opts.MaxListings <= 0 {
		opts.MaxListings = 20
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 20 * time.Second
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &DeepEnricher{fetcher: f, opts: opts}
}

func (e *DeepEnricher) Enhance(ctx context.Context, in []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, len(in))
	copy(out, in)

	n := len(out)
	if n > e.opts.MaxListings {
		n = e.opts.MaxListings
	}
	if n == 0 {
		return out
	}

	bctx, cancel := context.WithTimeout(ctx, e.opts.BatchTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			enriched, err := e.enrichOne(bctx, out[i])
			if err != nil {
				log.Printf("[enrich] skip url=%s err=%v", out[i].ApplyURL, err)
				return nil
			}
			out[i] = enriched
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *DeepEnricher) enrichOne(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	l.ApplyURL = CleanURL(l.ApplyURL)
	body, err := e.fetcher.Fetch(ctx, l.ApplyURL)
	if err != nil {
		return l, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return l, err
	}

	if d := extractDescription(doc); len(d) > len(l.Description) {
		l.Description = d
	}
	if l.Location == "" {
		l.Location = extractLocation(doc)
	}
	if l.SalaryText == "" {
		l.SalaryText = extractSalary(doc, body)
	}
	if l.Company == "" {
		l.Company = extractCompany(doc)
	}
	if l.JobType == "" {
		l.JobType = InferJobTypeFromText(l.Title, l.Description)
	}

	// A scraped date is authoritative; only absent or estimated dates
	// are replaced by what the detail page says.
	if l.PostedAt == nil || l.DateEstimated {
		if t, ok := extractPostedAt(doc, time.Now()); ok {
			l.PostedAt = &t
			l.DateEstimated = false
		}
	}
	return l, nil
}

var descriptionSelectors = []string{
	"#content",
	".job-description",
	"[class*='description']",
	"article",
	"main",
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range descriptionSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if t := CleanText(s.Text()); len(t) > 120 {
				return t
			}
		}
	}
	return ""
}

var locationSelectors = []string{
	"[itemprop='jobLocation']",
	"[data-qa='location']",
	".location",
	".posting-categories .location",
	".job-location",
}

func extractLocation(doc *goquery.Document) string {
	for _, sel := range locationSelectors {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}
	return ""
}

var salaryRe = regexp.MustCompile(`(?i)(?:[$€£]|USD|EUR|INR)\s?[\d,]+(?:k)?(?:\s?[-–]\s?(?:[$€£]|USD|EUR|INR)?\s?[\d,]+(?:k)?)?(?:\s*(?:per|/)\s*(?:year|yr|annum|month|hour|hr))?`)

func extractSalary(doc *goquery.Document, body string) string {
	for _, sel := range []string{".salary", "[class*='salary']", "[class*='compensation']"} {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if m := salaryRe.FindString(body); m != "" {
		return CleanText(m)
	}
	return ""
}

func extractCompany(doc *goquery.Document) string {
	if v, ok := doc.Find("meta[property='og:site_name']").Attr("content"); ok {
		return CleanText(v)
	}
	return CleanText(doc.Find(".company-name").First().Text())
}

func extractPostedAt(doc *goquery.Document, now time.Time) (time.Time, bool) {
	if v, ok := doc.Find("meta[property='article:published_time']").Attr("content"); ok {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
			return t, true
		}
	}
	if v, ok := doc.Find("time[datetime]").Attr("datetime"); ok {
		v = strings.TrimSpace(v)
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, true
		}
	}
	if t := CleanText(doc.Find(".posted-date, [class*='posted']").First().Text()); t != "" {
		return ParsePostedText(t, now)
	}
	return time.Time{}, false
}
