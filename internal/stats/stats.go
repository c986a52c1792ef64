// Package stats summarizes the spread of results across search
// iterations. Failed iterations (zero throughput) are excluded so a
// couple of timed-out runs do not drag the distribution to the floor.
package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/sirupsen/logrus"

	"proxytune/internal/search"
)

// RPS values are recorded in hundredths to keep two decimals of
// precision inside the integer histogram.
const rpsScale = 100

// Summary describes how throughput and latency were distributed across
// the measured iterations of one search run.
type Summary struct {
	Measured int // iterations that produced a usable result
	Failed   int // iterations that did not

	RPSMedian float64
	RPSP90    float64
	RPSMax    float64

	LatencyMedianMs float64
	LatencyP90Ms    float64
	LatencyMaxMs    float64
}

// Summarize builds the distribution summary for a run history. Values
// outside the histogram bounds cannot be recorded; they are logged and
// left out rather than dragging the quantiles around.
func Summarize(h search.History, log *logrus.Logger) Summary {
	if log == nil {
		log = logrus.StandardLogger()
	}

	rps := hdrhistogram.New(1, 1_000_000*rpsScale, 3)
	lat := hdrhistogram.New(1, int64(10*time.Minute/time.Millisecond), 3)

	s := Summary{}
	for _, rec := range h {
		if rec.Metrics.Failed() || rec.Metrics.RPS <= 0 {
			s.Failed++
			continue
		}
		s.Measured++
		if err := rps.RecordValue(int64(rec.Metrics.RPS * rpsScale)); err != nil {
			log.WithError(err).WithField("iteration", rec.Iteration).
				Warn("throughput outside histogram bounds, left out of the distribution")
		}
		if ms := int64(rec.Metrics.AvgResponseTime); ms >= 1 {
			if err := lat.RecordValue(ms); err != nil {
				log.WithError(err).WithField("iteration", rec.Iteration).
					Warn("latency outside histogram bounds, left out of the distribution")
			}
		}
	}

	if s.Measured == 0 {
		return s
	}

	s.RPSMedian = float64(rps.ValueAtQuantile(50)) / rpsScale
	s.RPSP90 = float64(rps.ValueAtQuantile(90)) / rpsScale
	s.RPSMax = float64(rps.Max()) / rpsScale
	s.LatencyMedianMs = float64(lat.ValueAtQuantile(50))
	s.LatencyP90Ms = float64(lat.ValueAtQuantile(90))
	s.LatencyMaxMs = float64(lat.Max())
	return s
}
