package domain

import (
	"strings"
	"time"
)

// Listing is one job posting flowing through the pipeline. Adapters
// create it, the enricher and verifier may mutate it, and it either
// reaches the final aggregate or is dropped whole.
type Listing struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`

	Source      string `json:"source"`
	ApplyURL    string `json:"applyUrl"`
	Description string `json:"description,omitempty"`
	SalaryText  string `json:"salary,omitempty"`
	JobType     string `json:"jobType,omitempty"`

	// PostedText is the raw date text as scraped ("3 days ago",
	// "Jan 2, 2026"); PostedAt is the normalized form once parsed.
	PostedText string     `json:"postedText,omitempty"`
	PostedAt   *time.Time `json:"postedAt,omitempty"`

	// DateEstimated marks a PostedAt that was back-filled with a
	// conservative guess rather than scraped. Enrichment may replace
	// an estimated date; it never replaces a scraped one.
	DateEstimated bool `json:"-"`

	FirstSeenAt  time.Time `json:"firstSeenAt"`
	LinkVerified bool      `json:"linkVerified"`
}

// Valid reports whether the listing qualifies for aggregation at all.
func (l Listing) Valid() bool {
	return strings.TrimSpace(l.Title) != "" &&
		strings.TrimSpace(l.Company) != "" &&
		strings.TrimSpace(l.ApplyURL) != ""
}

// DedupKey identifies "the same posting" across sources and passes.
func (l Listing) DedupKey() string {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return norm(l.Title) + "|" + norm(l.Company) + "|" + norm(l.Location)
}

// BestKnownDate is the date freshness decisions run on: the posted
// date when known, else the first-observed time.
func (l Listing) BestKnownDate() (time.Time, bool) {
	if l.PostedAt != nil && !l.PostedAt.IsZero() {
		return *l.PostedAt, true
	}
	if !l.FirstSeenAt.IsZero() {
		return l.FirstSeenAt, true
	}
	return time.Time{}, false
}
