package loadtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// The locust stats CSV marks the roll-up row across all request types
// with this sentinel in the Type (or Name) column.
const aggregatedMarker = "Aggregated"

// ParseStats extracts the aggregate metrics row from a locust
// test_*_stats.csv artifact. Only the first Aggregated row is read.
// A well-formed file without an Aggregated row yields zero Metrics and
// no error.
func ParseStats(path string) (Metrics, error) {
	var m Metrics

	f, err := os.Open(path)
	if err != nil {
		return m, fmt.Errorf("open stats file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return m, fmt.Errorf("read stats header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			// No Aggregated row in the file.
			return Metrics{}, nil
		}
		if err != nil {
			return Metrics{}, fmt.Errorf("read stats row: %w", err)
		}

		if field(row, "Type") != aggregatedMarker && field(row, "Name") != aggregatedMarker {
			continue
		}

		m.RPS, err = strconv.ParseFloat(field(row, "Requests/s"), 64)
		if err != nil {
			return Metrics{}, fmt.Errorf("parse Requests/s: %w", err)
		}
		m.AvgResponseTime, err = strconv.ParseFloat(field(row, "Average Response Time"), 64)
		if err != nil {
			return Metrics{}, fmt.Errorf("parse Average Response Time: %w", err)
		}

		total, err := strconv.Atoi(field(row, "Request Count"))
		if err != nil {
			return Metrics{}, fmt.Errorf("parse Request Count: %w", err)
		}
		failures, err := strconv.Atoi(field(row, "Failure Count"))
		if err != nil {
			return Metrics{}, fmt.Errorf("parse Failure Count: %w", err)
		}

		if total > 0 {
			m.TotalRequests = total
			m.SuccessRate = float64(total-failures) / float64(total) * 100
		}
		return m, nil
	}
}
