package poll

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"jobradar-engine/internal/scrape"
)

type Status struct {
	Running   bool   `json:"running"`
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastCount int    `json:"last_count"`
}

// Start runs the aggregate on a ticker until ctx is cancelled,
// invalidating the result cache before each cycle so every tick is a
// real run. The status snapshot is stored through an atomic.Value for
// lock-free readers.
func Start(ctx context.Context, agg *scrape.Aggregator, interval time.Duration, status *atomic.Value) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[poll] stopped")
				return
			case <-t.C:
			}

			st := load(status)
			st.Running = true
			st.LastRunAt = time.Now().Format(time.RFC3339)
			status.Store(st)

			agg.InvalidateCache()
			listings := agg.Aggregate(ctx)

			st = load(status)
			st.Running = false
			st.LastCount = len(listings)
			st.LastOkAt = time.Now().Format(time.RFC3339)
			status.Store(st)

			log.Printf("[poll] ok listings=%d", len(listings))
		}
	}()
}

func load(v *atomic.Value) Status {
	if s, ok := v.Load().(Status); ok {
		return s
	}
	return Status{}
}
