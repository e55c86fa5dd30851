package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/fetch"
)

func testAdapter(t *testing.T, handler http.Handler, cfg config.Source, boards []config.Board) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := fetch.NewHostLimiter(5*time.Millisecond, time.Millisecond, 10*time.Millisecond)
	f := fetch.NewFetcher(limiter, nil, fetch.Options{MaxRetries: 1, BackoffBase: time.Millisecond})

	a := New(cfg, boards, f)
	a.apiBase = srv.URL
	return a
}

func postingJSON(id, title, location string, createdAt int64) map[string]any {
	return map[string]any{
		"id":        id,
		"text":      title,
		"hostedUrl": "https://jobs.example.com/acme/" + id,
		"createdAt": createdAt,
		"categories": map[string]any{
			"location":   location,
			"commitment": "Full-time",
		},
		"descriptionPlain": "Build services in Go.",
	}
}

func TestFetchListings_ConvertsPostings(t *testing.T) {
	created := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("skip") != "0" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			postingJSON("1", "Software Engineer", "Remote", created.UnixMilli()),
			postingJSON("2", "Sales Lead", "NYC", 0),
		})
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 3, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1, "query filter keeps engineering roles only")

	l := out[0]
	assert.Equal(t, "Software Engineer", l.Title)
	assert.Equal(t, "Acme", l.Company)
	assert.Equal(t, "Remote", l.Location)
	assert.Equal(t, "lever", l.Source)
	assert.Equal(t, "Full-time", l.JobType)
	assert.Equal(t, "https://jobs.example.com/acme/1", l.ApplyURL)
	require.NotNil(t, l.PostedAt)
	assert.Equal(t, created, l.PostedAt.UTC())
}

func TestFetchListings_PaginatesUntilShortPage(t *testing.T) {
	var requests atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))

		var page []map[string]any
		if skip == 0 {
			for i := 0; i < pageSize; i++ {
				page = append(page, postingJSON(fmt.Sprintf("a%d", i), "Software Engineer", "Remote", 0))
			}
		} else {
			page = append(page, postingJSON("tail", "Software Engineer", "Remote", 0))
		}
		_ = json.NewEncoder(w).Encode(page)
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 5, PageDelayMS: 1, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, pageSize+1)
	assert.Equal(t, int64(2), requests.Load(), "a short page ends pagination")
}

func TestFetchListings_EmptyFirstPageStops(t *testing.T) {
	var requests atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("[]"))
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 5, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int64(1), requests.Load())
}

func TestFetchListings_SkipsInvalidPostings(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("skip") != "0" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		missingURL := postingJSON("3", "Software Engineer II", "Remote", 0)
		missingURL["hostedUrl"] = ""
		missingTitle := postingJSON("4", "   ", "Remote", 0)
		_ = json.NewEncoder(w).Encode([]map[string]any{missingURL, missingTitle})
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 1, MaxRetries: 1}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	out, err := a.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFetchListings_APIErrorSurfacesWhenNothingCollected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	cfg := config.Source{Enabled: true, Query: "software engineer", MaxPages: 1, MaxRetries: 2}
	a := testAdapter(t, handler, cfg, []config.Board{{Slug: "acme", Name: "Acme"}})

	_, err := a.FetchListings(context.Background())
	assert.Error(t, err)
}
