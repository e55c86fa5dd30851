package health

import (
	"sync"
	"time"
)

type Status string

const (
	StatusUnknown  Status = "UNKNOWN"
	StatusHealthy  Status = "HEALTHY"
	StatusDegraded Status = "DEGRADED"
	StatusFailing  Status = "FAILING"
)

type record struct {
	successes   int
	failures    int
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
	lastCount   int
}

// Tracker keeps per-source success/failure counters. Dashboards only;
// the pipeline never reads it to make decisions.
type Tracker struct {
	mu sync.Mutex
	m  map[string]*record
}

func NewTracker() *Tracker {
	return &Tracker{m: make(map[string]*record)}
}

func (t *Tracker) RecordSuccess(source string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.get(source)
	r.successes++
	r.lastSuccess = time.Now()
	r.lastCount = count
}

func (t *Tracker) RecordFailure(source, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.get(source)
	r.failures++
	r.lastFailure = time.Now()
	r.lastError = message
}

func (t *Tracker) get(source string) *record {
	r, ok := t.m[source]
	if !ok {
		r = &record{}
		t.m[source] = r
	}
	return r
}

// StatusOf derives a status from the rolling success ratio and whether
// the most recent run succeeded.
func (t *Tracker) StatusOf(source string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.m[source]
	if !ok {
		return StatusUnknown
	}
	total := r.successes + r.failures
	if total == 0 {
		return StatusUnknown
	}
	ratio := float64(r.successes) / float64(total)
	lastWasFailure := r.lastFailure.After(r.lastSuccess)

	switch {
	case ratio >= 0.8 && !lastWasFailure:
		return StatusHealthy
	case ratio < 0.3 || (lastWasFailure && ratio < 0.5):
		return StatusFailing
	default:
		return StatusDegraded
	}
}

type Snapshot struct {
	Source    string `json:"source"`
	Status    Status `json:"status"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
	LastError string `json:"lastError,omitempty"`
	LastCount int    `json:"lastCount"`
}

func (t *Tracker) Snapshots() []Snapshot {
	t.mu.Lock()
	names := make([]string, 0, len(t.m))
	for name := range t.m {
		names = append(names, name)
	}
	t.mu.Unlock()

	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		t.mu.Lock()
		r := t.m[name]
		snap := Snapshot{
			Source:    name,
			Successes: r.successes,
			Failures:  r.failures,
			LastError: r.lastError,
			LastCount: r.lastCount,
		}
		t.mu.Unlock()
		snap.Status = t.StatusOf(name)
		out = append(out, snap)
	}
	return out
}
