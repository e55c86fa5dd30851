package scrape

import (
	"net/url"
	"sort"
	"strings"
)

// CleanURL canonicalizes an apply URL: lower-cases scheme/host, strips
// tracking params and fragments, collapses duplicated slashes, and
// defaults the scheme when missing.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	} else if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	for strings.Contains(u.Path, "//") {
		u.Path = strings.ReplaceAll(u.Path, "//", "/")
	}

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "ref" || lk == "src" || lk == "trk" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	// keep only the job id param on linkedin links
	if strings.Contains(u.Host, "linkedin.com") {
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}

	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// AlternateURL returns a second URL shape worth probing when the
// primary fails verification, or "" when no pattern is known for the
// host.
func AlternateURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)

	switch {
	case strings.Contains(host, "greenhouse.io"):
		// boards.greenhouse.io/<slug>/jobs/<id> <-> job-boards.greenhouse.io
		alt := *u
		if strings.HasPrefix(host, "boards.") {
			alt.Host = "job-boards.greenhouse.io"
		} else {
			alt.Host = "boards.greenhouse.io"
		}
		return alt.String()
	case strings.Contains(host, "lever.co"):
		// jobs.lever.co/<slug>/<id> <-> .../apply
		alt := *u
		if strings.HasSuffix(alt.Path, "/apply") {
			alt.Path = strings.TrimSuffix(alt.Path, "/apply")
		} else {
			alt.Path = strings.TrimSuffix(alt.Path, "/") + "/apply"
		}
		return alt.String()
	case strings.Contains(host, "myworkdayjobs.com"):
		// language segment is optional on workday postings
		alt := *u
		if strings.Contains(alt.Path, "/en-US/") {
			alt.Path = strings.Replace(alt.Path, "/en-US/", "/", 1)
			return alt.String()
		}
		return ""
	default:
		return ""
	}
}
