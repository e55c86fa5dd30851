package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind buckets a failed fetch for retry decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindNotFound
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a classified fetch failure. Not-found is the only kind that
// is never retried.
type Error struct {
	URL    string
	Status int
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Retryable() bool { return e.Kind != KindNotFound }

// Markers anti-bot challenge pages tend to carry in the body or title.
var blockMarkers = []string{
	"captcha",
	"are you a human",
	"verify you are human",
	"unusual traffic",
	"access denied",
	"just a moment",
	"challenge-platform",
	"enable javascript and cookies",
}

// Blocked reports whether a 200 body is actually an anti-bot page.
func Blocked(body string) bool {
	probe := body
	if len(probe) > 4096 {
		probe = probe[:4096]
	}
	probe = strings.ToLower(probe)
	for _, m := range blockMarkers {
		if strings.Contains(probe, m) {
			return true
		}
	}
	return false
}

func classifyStatus(status int) Kind {
	switch {
	case status == 404 || status == 410:
		return KindNotFound
	case status == 429 || status == 403:
		return KindRateLimited
	case status >= 500:
		return KindTransient
	default:
		return KindUnknown
	}
}

func classifyErr(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTransient
	}
	msg := err.Error()
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "EOF") {
		return KindTransient
	}
	return KindUnknown
}
