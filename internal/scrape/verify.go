package scrape

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jobradar-engine/internal/domain"
)

// Hosts that block automated probes outright; a network check would
// only produce false negatives, so their links are trusted as-is.
var verifySkipHosts = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"naukri.com",
	"ziprecruiter.com",
}

type VerifierOptions struct {
	Workers    int
	Timeout    time.Duration // per listing
	MaxRetries int           // 403/429 micro-retries per listing
}

// LinkVerifier confirms apply URLs resolve before listings reach the
// aggregate. Unverifiable listings are dropped, never half-published.
type LinkVerifier struct {
	hc   *http.Client
	opts VerifierOptions
}

func NewLinkVerifier(opts VerifierOptions) *LinkVerifier {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	return &LinkVerifier{
		hc:   &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// VerifyAll checks every listing concurrently on a bounded pool and
// returns the verifiable ones in input order. A per-listing timeout
// drops that listing, never the batch.
func (v *LinkVerifier) VerifyAll(ctx context.Context, in []domain.Listing) []domain.Listing {
	if len(in) == 0 {
		return nil
	}

	results := make([]domain.Listing, len(in))
	keep := make([]bool, len(in))

	var g errgroup.Group
	g.SetLimit(v.opts.Workers)
	for i := range in {
		i := i
		g.Go(func() error {
			l := in[i]
			l.ApplyURL = CleanURL(l.ApplyURL)
			if l.ApplyURL == "" {
				return nil
			}
			if skipVerification(l.ApplyURL) {
				l.LinkVerified = true
				results[i], keep[i] = l, true
				return nil
			}

			vctx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
			defer cancel()

			ok := v.check(vctx, l.ApplyURL)
			if !ok {
				if alt := AlternateURL(l.ApplyURL); alt != "" && v.check(vctx, alt) {
					l.ApplyURL = alt
					ok = true
				}
			}
			if !ok {
				log.Printf("[verify] dropped url=%s", l.ApplyURL)
				return nil
			}
			l.LinkVerified = true
			results[i], keep[i] = l, true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Listing, 0, len(in))
	for i := range in {
		if keep[i] {
			out = append(out, results[i])
		}
	}
	return out
}

// check issues a HEAD (GET on 405) and treats 2xx/3xx as alive.
// Redirects are followed by the client. 403/429 get a short backoff
// and retry before the listing is given up on.
func (v *LinkVerifier) check(ctx context.Context, rawURL string) bool {
	backoff := 500 * time.Millisecond
	for attempt := 1; attempt <= v.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return false
			case <-t.C:
			}
			backoff *= 2
		}

		status, err := v.probe(ctx, http.MethodHead, rawURL)
		if err == nil && status == http.StatusMethodNotAllowed {
			status, err = v.probe(ctx, http.MethodGet, rawURL)
		}
		if err != nil {
			return false
		}
		if status >= 200 && status < 400 {
			return true
		}
		if status != http.StatusForbidden && status != http.StatusTooManyRequests {
			return false
		}
	}
	return false
}

func (v *LinkVerifier) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", defaultProbeAgent)
	res, err := v.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	return res.StatusCode, nil
}

const defaultProbeAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36"

func skipVerification(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, h := range verifySkipHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
