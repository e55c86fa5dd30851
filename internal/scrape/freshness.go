package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobradar-engine/internal/domain"
)

// missingDateEstimate is the conservative age stamped on listings with
// no date information at all, so they survive a typical 7-day window
// without being treated as brand new.
const missingDateEstimate = 48 * time.Hour

type relPattern struct {
	re *regexp.Regexp
	fn func(m []string, now time.Time) time.Time
}

// Ordered: first match wins.
var relPatterns = []relPattern{
	{regexp.MustCompile(`(?i)\bjust (posted|now)\b`), func(_ []string, now time.Time) time.Time { return now }},
	{regexp.MustCompile(`(?i)\btoday\b`), func(_ []string, now time.Time) time.Time { return now }},
	{regexp.MustCompile(`(?i)\byesterday\b`), func(_ []string, now time.Time) time.Time { return now.Add(-24 * time.Hour) }},
	{regexp.MustCompile(`(?i)(\d+)\+?\s*minute(s)?\s*ago`), func(m []string, now time.Time) time.Time {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Minute)
	}},
	{regexp.MustCompile(`(?i)(\d+)\+?\s*hour(s)?\s*ago`), func(m []string, now time.Time) time.Time {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Hour)
	}},
	{regexp.MustCompile(`(?i)(\d+)\+?\s*day(s)?\s*ago`), func(m []string, now time.Time) time.Time {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * 24 * time.Hour)
	}},
	{regexp.MustCompile(`(?i)(\d+)\+?\s*week(s)?\s*ago`), func(m []string, now time.Time) time.Time {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * 7 * 24 * time.Hour)
	}},
	{regexp.MustCompile(`(?i)(\d+)\+?\s*month(s)?\s*ago`), func(m []string, now time.Time) time.Time {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, -n, 0)
	}},
}

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
	"2 January 2006",
}

// ParsePostedText normalizes relative or absolute posted-date text
// into an absolute timestamp relative to now.
func ParsePostedText(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, p := range relPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			return p.fn(m, now), true
		}
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EnrichMissingDates resolves each listing's posted date: parse raw
// text when present, otherwise stamp a conservative estimate. Runs
// before filtering so otherwise-good listings are not lost to missing
// metadata alone.
func EnrichMissingDates(in []domain.Listing, now time.Time) []domain.Listing {
	out := make([]domain.Listing, len(in))
	copy(out, in)
	for i := range out {
		if out[i].PostedAt != nil && !out[i].PostedAt.IsZero() {
			continue
		}
		if t, ok := ParsePostedText(out[i].PostedText, now); ok {
			out[i].PostedAt = &t
			continue
		}
		est := now.Add(-missingDateEstimate)
		out[i].PostedAt = &est
		out[i].DateEstimated = true
	}
	return out
}

// FilterFresh keeps listings whose best-known date falls inside the
// window. A listing with no date at all stays in: the permissive
// default, chosen over starving the aggregate.
func FilterFresh(in []domain.Listing, window time.Duration, now time.Time) []domain.Listing {
	cutoff := now.Add(-window)
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		best, ok := l.BestKnownDate()
		if !ok || best.After(cutoff) {
			out = append(out, l)
		}
	}
	return out
}
