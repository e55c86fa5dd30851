package domain

import "time"

// SourceOutcome is the per-adapter record of a single aggregation run.
// Consumed by the health tracker and logs; never part of the listing
// aggregate itself.
type SourceOutcome struct {
	Source   string        `json:"source"`
	Listings int           `json:"listings"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      string        `json:"error,omitempty"`
}

func (o SourceOutcome) OK() bool { return o.Err == "" }
