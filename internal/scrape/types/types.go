package types

import (
	"context"
	"time"

	"jobradar-engine/internal/domain"
)

// SourceAdapter is one site's listing extractor. Adapters validate
// their own config, paginate with their own delay, and return only
// listings passing their minimal validity check. A failing or empty
// adapter is a zero contribution, never fatal to a run.
type SourceAdapter interface {
	Name() string
	Enabled() bool
	MinDelay() time.Duration
	FetchListings(ctx context.Context) ([]domain.Listing, error)
}
