package loadtest

// Metrics is the aggregate result of one load test run. The zero value
// stands for a run that produced nothing usable; Err carries a short
// description when that happens. A zero-RPS iteration can never win the
// best-configuration comparison.
type Metrics struct {
	RPS             float64 `json:"rps"`
	AvgResponseTime float64 `json:"avg_response_time"`
	TotalRequests   int     `json:"total_requests"`
	SuccessRate     float64 `json:"success_rate"`
	Err             string  `json:"error,omitempty"`
}

// Failed reports whether the run produced no usable measurement.
func (m Metrics) Failed() bool {
	return m.Err != "" || m.TotalRequests == 0
}
