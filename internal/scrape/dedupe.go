package scrape

import "jobradar-engine/internal/domain"

// Dedupe collapses listings sharing a DedupKey. Stable, first-seen
// wins, idempotent.
func Dedupe(in []domain.Listing) []domain.Listing {
	seen := make(map[string]bool, len(in))
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		k := l.DedupKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}
