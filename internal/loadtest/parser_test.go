package loadtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_20240101_stats.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const statsHeader = "Type,Name,Request Count,Failure Count,Median Response Time,Average Response Time,Min Response Time,Max Response Time,Average Content Size,Requests/s,Failures/s\n"

func TestParseStatsAggregatedRow(t *testing.T) {
	path := writeCSV(t, statsHeader+
		"GET,/todos,600,5,10,12.5,1,100,128,90.3,0.8\n"+
		"Aggregated,Aggregated,1000,10,11,15.2,1,120,128,150.5,0.9\n")

	m, err := ParseStats(path)
	require.NoError(t, err)

	assert.Equal(t, 150.5, m.RPS)
	assert.Equal(t, 15.2, m.AvgResponseTime)
	assert.Equal(t, 1000, m.TotalRequests)
	assert.InDelta(t, 99.0, m.SuccessRate, 0.0001)
}

func TestParseStatsFirstAggregatedWins(t *testing.T) {
	path := writeCSV(t, statsHeader+
		"Aggregated,Aggregated,100,0,5,5.0,1,10,64,50.0,0\n"+
		"Aggregated,Aggregated,999,0,5,5.0,1,10,64,999.0,0\n")

	m, err := ParseStats(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, m.RPS)
}

func TestParseStatsNoAggregatedRow(t *testing.T) {
	path := writeCSV(t, statsHeader+
		"GET,/todos,600,5,10,12.5,1,100,128,90.3,0.8\n")

	m, err := ParseStats(path)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)
}

func TestParseStatsZeroRequestCount(t *testing.T) {
	path := writeCSV(t, statsHeader+
		"Aggregated,Aggregated,0,0,0,0.0,0,0,0,0.0,0\n")

	m, err := ParseStats(path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.TotalRequests)
	assert.Equal(t, 0.0, m.SuccessRate)
}

func TestParseStatsMalformedNumber(t *testing.T) {
	path := writeCSV(t, statsHeader+
		"Aggregated,Aggregated,abc,10,11,15.2,1,120,128,150.5,0.9\n")

	m, err := ParseStats(path)
	assert.Error(t, err)
	assert.Equal(t, Metrics{}, m)
}

func TestParseStatsMissingFile(t *testing.T) {
	_, err := ParseStats(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
