package fetch

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"
)

// Client identities rotated round-robin across requests, independent of
// host, to blur the fingerprint a fixed agent would leave.
var defaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/605.1.15 (Version/17.4 Safari/605.1.15)",
}

const maxBodyBytes = 2 << 20

type Options struct {
	MaxRetries     int           // total attempts; min 1
	BackoffBase    time.Duration // doubles each retry
	RequestTimeout time.Duration
	Agents         []string
}

// Fetcher is the one road to the network for adapters and the
// enricher: per-host spacing, identity rotation, a short-TTL document
// cache, and classified retries with exponential backoff.
type Fetcher struct {
	hc      *http.Client
	limiter *HostLimiter
	cache   *ResponseCache
	opts    Options
	uaIdx   atomic.Uint64
}

func NewFetcher(limiter *HostLimiter, cache *ResponseCache, opts Options) *Fetcher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 20 * time.Second
	}
	if len(opts.Agents) == 0 {
		opts.Agents = defaultAgents
	}
	return &Fetcher{
		hc:      &http.Client{Timeout: opts.RequestTimeout},
		limiter: limiter,
		cache:   cache,
		opts:    opts,
	}
}

// Fetch returns the document at rawURL. A cache hit bypasses both the
// rate limiter and the network. After exhausting retries the last
// classified error is returned; the caller decides fallback behavior.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(rawURL); ok {
			return body, nil
		}
	}

	var lastErr error
	backoff := f.opts.BackoffBase
	for attempt := 1; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("[fetch] retry %d/%d url=%s after %v (%v)",
				attempt, f.opts.MaxRetries, rawURL, backoff, lastErr)
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return "", ctx.Err()
			case <-t.C:
			}
			backoff *= 2
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, rawURL); err != nil {
				return "", err
			}
		}

		body, err := f.doOnce(ctx, rawURL)
		if err == nil {
			if f.cache != nil {
				f.cache.Put(rawURL, body)
			}
			return body, nil
		}

		var fe *Error
		if errors.As(err, &fe) && !fe.Retryable() {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (f *Fetcher) doOnce(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Kind: KindNotFound, Err: err}
	}
	req.Header.Set("User-Agent", f.nextAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	res, err := f.hc.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Kind: classifyErr(err), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &Error{URL: rawURL, Status: res.StatusCode, Kind: classifyStatus(res.StatusCode)}
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Kind: classifyErr(err), Err: err}
	}

	body := string(b)
	if Blocked(body) {
		return "", &Error{URL: rawURL, Status: res.StatusCode, Kind: KindRateLimited}
	}
	return body, nil
}

func (f *Fetcher) nextAgent() string {
	n := f.uaIdx.Add(1)
	return f.opts.Agents[(n-1)%uint64(len(f.opts.Agents))]
}
