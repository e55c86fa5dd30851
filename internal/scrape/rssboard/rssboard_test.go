package rssboard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/fetch"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Remote Programming Jobs</title>
  <item>
    <title>Acme: Senior Golang Developer</title>
    <link>https://board.example.com/jobs/1</link>
    <description>Build concurrent pipelines in Go. Remote.</description>
    <pubDate>Fri, 28 Aug 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Globex: Marketing Manager</title>
    <link>https://board.example.com/jobs/2</link>
    <description>Run campaigns.</description>
    <pubDate>Fri, 28 Aug 2026 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Untitled Golang Role</title>
    <link>https://board.example.com/jobs/3</link>
    <description>golang microservices</description>
  </item>
</channel>
</rss>`

func testAdapter(t *testing.T, cfg config.Source) (*Adapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	t.Cleanup(srv.Close)

	limiter := fetch.NewHostLimiter(5*time.Millisecond, time.Millisecond, 10*time.Millisecond)
	f := fetch.NewFetcher(limiter, nil, fetch.Options{MaxRetries: 1, BackoffBase: time.Millisecond})

	feeds := []config.Feed{{Name: "TestBoard", URL: srv.URL + "/jobs.rss"}}
	return New(cfg, feeds, f), srv
}

func TestFetchListings_ParsesFeed(t *testing.T) {
	a, _ := testAdapter(t, config.Source{Enabled: true, Query: "golang", MaxRetries: 1})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2, "non-matching items are filtered out")

	first := out[0]
	assert.Equal(t, "Senior Golang Developer", first.Title)
	assert.Equal(t, "Acme", first.Company, "company comes from the title prefix")
	assert.Equal(t, "https://board.example.com/jobs/1", first.ApplyURL)
	assert.Equal(t, "rss", first.Source)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC), first.PostedAt.UTC())

	second := out[1]
	assert.Equal(t, "Untitled Golang Role", second.Title)
	assert.Equal(t, "TestBoard", second.Company, "feed name backs a missing company prefix")
	assert.Nil(t, second.PostedAt)
}

func TestFetchListings_LocationFilter(t *testing.T) {
	a, _ := testAdapter(t, config.Source{Enabled: true, Query: "golang", Location: "remote", MaxRetries: 1})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Senior Golang Developer", out[0].Title)
}

func TestFetchListings_BadFeedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "this is not xml")
	}))
	defer srv.Close()

	limiter := fetch.NewHostLimiter(5*time.Millisecond, time.Millisecond, 10*time.Millisecond)
	f := fetch.NewFetcher(limiter, nil, fetch.Options{MaxRetries: 1, BackoffBase: time.Millisecond})
	a := New(config.Source{Enabled: true, Query: "golang"}, []config.Feed{{Name: "bad", URL: srv.URL}}, f)

	_, err := a.FetchListings(context.Background())
	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.False(t, New(config.Source{Enabled: true}, nil, nil).Enabled())
	assert.True(t, New(config.Source{Enabled: true}, []config.Feed{{URL: "x"}}, nil).Enabled())
}
