package search

import (
	"proxytune/internal/loadtest"
	"proxytune/internal/nginx"
)

// Record pairs one iteration's configuration with its measured metrics.
// Iteration 0 is always the baseline run on the default configuration.
type Record struct {
	Iteration int              `json:"iteration"`
	Config    nginx.Params     `json:"config"`
	Metrics   loadtest.Metrics `json:"metrics"`
}

// History is the ordered run log of one search, baseline first.
type History []Record

// Best returns the record with the highest throughput. Ties go to the
// earliest iteration: the comparison is strictly greater-than, so a
// later config with no measured advantage never displaces an earlier
// one.
func (h History) Best() (Record, bool) {
	if len(h) == 0 {
		return Record{}, false
	}
	best := h[0]
	for _, r := range h[1:] {
		if r.Metrics.RPS > best.Metrics.RPS {
			best = r
		}
	}
	return best, true
}

// Improvement computes the best throughput's gain over the baseline in
// percent. A zero baseline yields 0 rather than a division blow-up.
func (h History) Improvement() float64 {
	best, ok := h.Best()
	if !ok {
		return 0
	}
	initial := h[0].Metrics.RPS
	if initial <= 0 {
		return 0
	}
	return (best.Metrics.RPS - initial) / initial * 100
}

// HistorySink persists a finished or interrupted run log. The two
// targets are distinct paths so a partial save never clobbers a
// completed one.
type HistorySink interface {
	SaveFinal(h History) error
	SavePartial(h History) error
}
