package scrape

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/health"
	"jobradar-engine/internal/scrape/types"
)

type AggregatorOptions struct {
	Deadline        time.Duration // whole run
	SourceTimeout   time.Duration // per adapter, strictly below Deadline
	FreshnessWindow time.Duration
	ResultCacheTTL  time.Duration
	PreFilterFresh  bool // drop stale listings per task, before reduce
}

// Aggregator fans out across every enabled source adapter under one
// wall-clock deadline, reduces the combined haul (dedupe, enrich,
// verify, freshness), and caches the aggregate so repeated callers do
// not re-trigger scraping.
type Aggregator struct {
	adapters []types.SourceAdapter
	verifier *LinkVerifier
	enricher *DeepEnricher
	tracker  *health.Tracker
	opts     AggregatorOptions

	mu       sync.Mutex
	cached   []domain.Listing
	cachedAt time.Time
	outcomes []domain.SourceOutcome
}

func NewAggregator(adapters []types.SourceAdapter, verifier *LinkVerifier, enricher *DeepEnricher, tracker *health.Tracker, opts AggregatorOptions) *Aggregator {
	if opts.Deadline <= 0 {
		opts.Deadline = 45 * time.Second
	}
	if opts.SourceTimeout <= 0 || opts.SourceTimeout >= opts.Deadline {
		opts.SourceTimeout = opts.Deadline * 2 / 3
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = 7 * 24 * time.Hour
	}
	if opts.ResultCacheTTL <= 0 {
		opts.ResultCacheTTL = 15 * time.Minute
	}
	return &Aggregator{
		adapters: adapters,
		verifier: verifier,
		enricher: enricher,
		tracker:  tracker,
		opts:     opts,
	}
}

// Aggregate runs the full pipeline, or returns the cached aggregate
// when it is still warm. Callers always get a (possibly empty) slice,
// never an error: partial source failures are contained per task.
func (a *Aggregator) Aggregate(ctx context.Context) []domain.Listing {
	a.mu.Lock()
	if a.cached != nil && time.Since(a.cachedAt) < a.opts.ResultCacheTTL {
		out := a.cached
		a.mu.Unlock()
		return out
	}
	a.mu.Unlock()

	collected, outcomes := a.fanOut(ctx)
	final := a.reduce(ctx, collected)

	a.mu.Lock()
	a.cached = final
	a.cachedAt = time.Now()
	a.outcomes = outcomes
	a.mu.Unlock()

	if len(final) == 0 && allFailed(outcomes) {
		log.Printf("[aggregate] run produced zero contributions from all sources")
	}
	return final
}

// fanOut launches one task per enabled adapter and joins best-effort:
// whatever landed in the shared collection by the deadline is the run's
// haul, tasks still in flight are abandoned.
func (a *Aggregator) fanOut(ctx context.Context) ([]domain.Listing, []domain.SourceOutcome) {
	runCtx, cancel := context.WithTimeout(ctx, a.opts.Deadline)
	defer cancel()

	var (
		mu        sync.Mutex
		collected []domain.Listing
		outcomes  []domain.SourceOutcome
	)

	var g errgroup.Group
	now := time.Now()
	for _, ad := range a.adapters {
		ad := ad
		if !ad.Enabled() {
			log.Printf("[aggregate] source=%s disabled, skipping", ad.Name())
			continue
		}
		g.Go(func() error {
			start := time.Now()
			sctx, scancel := context.WithTimeout(runCtx, a.opts.SourceTimeout)
			defer scancel()

			listings, err := ad.FetchListings(sctx)
			outcome := domain.SourceOutcome{
				Source:   ad.Name(),
				Listings: len(listings),
				Elapsed:  time.Since(start),
			}
			if err != nil {
				// contained: a failed sibling never cancels the rest
				outcome.Err = err.Error()
				log.Printf("[aggregate] source=%s error: %v", ad.Name(), err)
				if a.tracker != nil {
					a.tracker.RecordFailure(ad.Name(), err.Error())
				}
			} else {
				log.Printf("[aggregate] source=%s listings=%d elapsed=%s",
					ad.Name(), len(listings), outcome.Elapsed.Round(time.Millisecond))
				if a.tracker != nil {
					a.tracker.RecordSuccess(ad.Name(), len(listings))
				}
			}

			valid := listings[:0:0]
			for _, l := range listings {
				if l.Valid() {
					valid = append(valid, l)
				}
			}
			valid = EnrichMissingDates(valid, now)
			if a.opts.PreFilterFresh {
				valid = FilterFresh(valid, a.opts.FreshnessWindow, now)
			}

			mu.Lock()
			collected = append(collected, valid...)
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}

	// best-effort join: the deadline wins over stragglers, and appends
	// made before it fires are kept
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-runCtx.Done():
		log.Printf("[aggregate] deadline reached, abandoning unfinished sources")
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]domain.Listing(nil), collected...), append([]domain.SourceOutcome(nil), outcomes...)
}

// reduce: dedupe -> deep enrichment -> link verification -> final
// freshness pass (dates may have shifted during long adapter runs) ->
// dedupe again, since enrichment can converge two listings onto one
// key.
func (a *Aggregator) reduce(ctx context.Context, in []domain.Listing) []domain.Listing {
	now := time.Now()
	out := Dedupe(in)
	if a.enricher != nil {
		out = a.enricher.Enhance(ctx, out)
	}
	if a.verifier != nil {
		out = a.verifier.VerifyAll(ctx, out)
	}
	out = FilterFresh(out, a.opts.FreshnessWindow, now)
	out = Dedupe(out)
	if out == nil {
		out = []domain.Listing{}
	}
	return out
}

// InvalidateCache forces the next Aggregate call to re-run the
// pipeline.
func (a *Aggregator) InvalidateCache() {
	a.mu.Lock()
	a.cached = nil
	a.cachedAt = time.Time{}
	a.mu.Unlock()
}

// ScrapeSingleSource runs one adapter by name outside the result
// cache. Unknown or disabled sources are an error; adapter failures
// are returned as-is for the caller to decide.
func (a *Aggregator) ScrapeSingleSource(ctx context.Context, name string) ([]domain.Listing, error) {
	for _, ad := range a.adapters {
		if ad.Name() != name {
			continue
		}
		if !ad.Enabled() {
			return nil, fmt.Errorf("source %q is disabled", name)
		}
		sctx, cancel := context.WithTimeout(ctx, a.opts.SourceTimeout)
		defer cancel()

		listings, err := ad.FetchListings(sctx)
		if err != nil {
			if a.tracker != nil {
				a.tracker.RecordFailure(name, err.Error())
			}
			return nil, err
		}
		if a.tracker != nil {
			a.tracker.RecordSuccess(name, len(listings))
		}
		valid := listings[:0:0]
		for _, l := range listings {
			if l.Valid() {
				valid = append(valid, l)
			}
		}
		return Dedupe(EnrichMissingDates(valid, time.Now())), nil
	}
	return nil, fmt.Errorf("unknown source %q", name)
}

// FreshWithin narrows the (cached) aggregate to listings newer than
// the given number of hours.
func (a *Aggregator) FreshWithin(ctx context.Context, hours int) []domain.Listing {
	all := a.Aggregate(ctx)
	if hours <= 0 {
		return all
	}
	return FilterFresh(all, time.Duration(hours)*time.Hour, time.Now())
}

// Outcomes reports the per-source results of the last completed run.
func (a *Aggregator) Outcomes() []domain.SourceOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.SourceOutcome(nil), a.outcomes...)
}

func allFailed(outcomes []domain.SourceOutcome) bool {
	for _, o := range outcomes {
		if o.OK() {
			return false
		}
	}
	return true
}
