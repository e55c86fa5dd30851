package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"HTTPS://Example.COM/jobs/1", "https://example.com/jobs/1"},
		{"https://example.com/jobs/1?utm_source=feed&utm_medium=rss", "https://example.com/jobs/1"},
		{"https://example.com/jobs/1?gclid=x&id=9", "https://example.com/jobs/1?id=9"},
		{"https://example.com//jobs//1", "https://example.com/jobs/1"},
		{"example.com/jobs/1", "https://example.com/jobs/1"},
		{"//cdn.example.com/jobs/1", "https://cdn.example.com/jobs/1"},
		{"https://example.com/jobs/1#apply", "https://example.com/jobs/1"},
		{"  ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanURL(tc.in), "clean %q", tc.in)
	}
}

func TestCleanURL_LinkedInKeepsJobID(t *testing.T) {
	got := CleanURL("https://www.linkedin.com/jobs/search?currentJobId=123&refId=zz&trackingId=aa")
	assert.Equal(t, "https://www.linkedin.com/jobs/search?currentJobId=123", got)
}

func TestAlternateURL(t *testing.T) {
	assert.Equal(t,
		"https://job-boards.greenhouse.io/acme/jobs/42",
		AlternateURL("https://boards.greenhouse.io/acme/jobs/42"))

	assert.Equal(t,
		"https://jobs.lever.co/acme/42/apply",
		AlternateURL("https://jobs.lever.co/acme/42"))
	assert.Equal(t,
		"https://jobs.lever.co/acme/42",
		AlternateURL("https://jobs.lever.co/acme/42/apply"))

	assert.Equal(t,
		"https://acme.wd1.myworkdayjobs.com/careers/job/123",
		AlternateURL("https://acme.wd1.myworkdayjobs.com/en-US/careers/job/123"))

	assert.Empty(t, AlternateURL("https://careers.example.com/jobs/1"),
		"hosts without a known alternate shape yield nothing")
}
