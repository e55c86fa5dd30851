package greenhouse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/fetch"
)

const boardPage = `<html><body>
<section>
  <div class="opening">
    <a href="/acme/jobs/101">Software Engineer, Backend</a>
    <span class="location">Remote</span>
  </div>
  <div class="opening">
    <a href="/acme/jobs/102">Senior Software Engineer</a>
    <span class="location">Berlin, Germany</span>
  </div>
  <div class="opening">
    <a href="/acme/jobs/103">Accountant</a>
    <span class="location">Pune</span>
  </div>
  <div class="opening">
    <a href="/acme/jobs/104">Apply now</a>
  </div>
  <a href="/about">About us</a>
</section>
</body></html>`

const emptyPage = `<html><body><p>No more openings.</p></body></html>`

func testAdapter(t *testing.T, handler http.Handler, cfg config.Source, boards []config.Board) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := fetch.NewHostLimiter(5*time.Millisecond, time.Millisecond, 10*time.Millisecond)
	f := fetch.NewFetcher(limiter, nil, fetch.Options{MaxRetries: 1, BackoffBase: time.Millisecond})

	a := New(cfg, boards, f)
	a.baseURL = srv.URL
	return a
}

func TestFetchListings_ParsesAndFiltersByQuery(t *testing.T) {
	var pages atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, boardPage)
			return
		}
		fmt.Fprint(w, emptyPage)
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 3, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2, "only query-matching, non-junk titles survive")

	assert.Equal(t, "Software Engineer, Backend", out[0].Title)
	assert.Equal(t, "Acme", out[0].Company)
	assert.Equal(t, "Remote", out[0].Location)
	assert.Equal(t, "greenhouse", out[0].Source)
	assert.Contains(t, out[0].ApplyURL, "/acme/jobs/101")

	assert.Equal(t, int64(2), pages.Load(), "an empty page stops pagination early")
}

func TestFetchListings_RespectsMaxPages(t *testing.T) {
	var pages atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		// every page yields results; only max_pages stops us
		fmt.Fprintf(w, `<html><body><div><a href="/acme/jobs/%s0">Software Engineer</a></div></body></html>`,
			r.URL.Query().Get("page"))
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 2, PageDelayMS: 1, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int64(2), pages.Load())
}

func TestFetchListings_LocationFilter(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, boardPage)
			return
		}
		fmt.Fprint(w, emptyPage)
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", Location: "berlin", MaxPages: 1, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Senior Software Engineer", out[0].Title)
}

func TestFetchListings_DeadBoardDoesNotSinkOthers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, boardPage)
			return
		}
		fmt.Fprint(w, emptyPage)
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 1, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{
		{Slug: "dead", Name: "Dead Co"},
		{Slug: "acme", Name: "Acme"},
	})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	for _, l := range out {
		assert.Equal(t, "Acme", l.Company)
	}
}

func TestEnabled(t *testing.T) {
	a := New(config.Source{Enabled: true}, nil, nil)
	assert.False(t, a.Enabled(), "no boards means nothing to scrape")

	a = New(config.Source{Enabled: false}, []config.Board{{Slug: "acme"}}, nil)
	assert.False(t, a.Enabled())

	a = New(config.Source{Enabled: true}, []config.Board{{Slug: "acme"}}, nil)
	assert.True(t, a.Enabled())
}
