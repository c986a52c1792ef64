package stats

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxytune/internal/loadtest"
	"proxytune/internal/search"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func rec(i int, rps, lat float64) search.Record {
	return search.Record{
		Iteration: i,
		Metrics:   loadtest.Metrics{RPS: rps, AvgResponseTime: lat, TotalRequests: 1000, SuccessRate: 100},
	}
}

func TestSummarize(t *testing.T) {
	h := search.History{
		rec(0, 50, 20),
		rec(1, 80, 12),
		rec(2, 65, 15),
	}

	s := Summarize(h, quietLogger())

	assert.Equal(t, 3, s.Measured)
	assert.Equal(t, 0, s.Failed)
	// HdrHistogram keeps three significant figures.
	assert.InDelta(t, 65, s.RPSMedian, 1)
	assert.InDelta(t, 80, s.RPSMax, 1)
	assert.InDelta(t, 15, s.LatencyMedianMs, 1)
	assert.InDelta(t, 20, s.LatencyMaxMs, 1)
}

func TestSummarizeSkipsFailedIterations(t *testing.T) {
	h := search.History{
		rec(0, 50, 20),
		{Iteration: 1, Metrics: loadtest.Metrics{Err: "load test exceeded maximum time"}},
		{Iteration: 2}, // zero metrics
	}

	s := Summarize(h, quietLogger())

	assert.Equal(t, 1, s.Measured)
	assert.Equal(t, 2, s.Failed)
	assert.InDelta(t, 50, s.RPSMax, 1)
}

func TestSummarizeWarnsOnOutOfRangeValues(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	// Two million RPS is beyond what the histogram can hold.
	h := search.History{
		rec(0, 50, 20),
		rec(1, 2_000_000, 12),
	}

	s := Summarize(h, logger)

	assert.Equal(t, 2, s.Measured)
	assert.InDelta(t, 50, s.RPSMax, 1)

	require.NotEmpty(t, hook.Entries)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Contains(t, entry.Message, "outside histogram bounds")
	assert.Equal(t, 1, entry.Data["iteration"])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, quietLogger())
	assert.Equal(t, 0, s.Measured)
	assert.Equal(t, 0.0, s.RPSMax)
}
