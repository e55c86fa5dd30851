package fetch

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const jitterFraction = 0.3

// HostLimiter spaces requests per hostname. Each host gets a jittered
// minimum gap between request starts (base ± 30%, clamped to the
// [min, max] band) plus a hard rate.Limiter floor at min. Callers are
// slowed, never dropped.
type HostLimiter struct {
	mu   sync.Mutex
	m    map[string]*hostState
	base time.Duration
	min  time.Duration
	max  time.Duration
}

type hostState struct {
	lim *rate.Limiter
	// nextAt is the earliest start for the next request; reserved
	// under the lock so concurrent callers queue instead of racing.
	nextAt time.Time
	// rolling request counter, reset each minute
	windowStart time.Time
	count       int
}

func NewHostLimiter(base, min, max time.Duration) *HostLimiter {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if base < min {
		base = min
	}
	if base > max {
		base = max
	}
	return &HostLimiter{m: make(map[string]*hostState), base: base, min: min, max: max}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "_"
	}
	return u.Host
}

// Wait blocks until a request to rawURL may start. The lock covers only
// the bookkeeping; the sleep and the limiter wait happen outside it.
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)

	hl.mu.Lock()
	st, ok := hl.m[host]
	if !ok {
		st = &hostState{
			lim:         rate.NewLimiter(rate.Every(hl.min), 1),
			windowStart: time.Now(),
		}
		hl.m[host] = st
	}

	now := time.Now()
	if now.Sub(st.windowStart) > time.Minute {
		st.windowStart = now
		st.count = 0
	}
	st.count++

	target := hl.jittered()
	start := now
	if st.nextAt.After(now) {
		start = st.nextAt
	}
	st.nextAt = start.Add(target)
	wait := time.Until(start)
	hl.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return st.lim.Wait(ctx)
}

// Requests reports how many requests hit host in the current rolling
// window. Observability only.
func (hl *HostLimiter) Requests(host string) int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	st, ok := hl.m[host]
	if !ok {
		return 0
	}
	if time.Since(st.windowStart) > time.Minute {
		return 0
	}
	return st.count
}

func (hl *HostLimiter) jittered() time.Duration {
	spread := float64(hl.base) * jitterFraction
	d := time.Duration(float64(hl.base) + (rand.Float64()*2-1)*spread)
	if d < hl.min {
		d = hl.min
	}
	if d > hl.max {
		d = hl.max
	}
	return d
}
