package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"proxytune/internal/loadtest"
	"proxytune/internal/nginx"
	"proxytune/internal/search"
	"proxytune/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	rule        = strings.Repeat("=", 70)
)

// Console implements search.Progress for the headless terminal: one
// banner per step, one line per candidate.
type Console struct {
	step int
}

func (c *Console) Step(title string) {
	c.step++
	fmt.Printf("\n%s\n", rule)
	fmt.Println(headerStyle.Render(fmt.Sprintf("STEP %d: %s", c.step, title)))
	fmt.Println(rule)
}

func (c *Console) CandidateStart(iteration, total int, p nginx.Params) {
	fmt.Printf("\n--- Iteration %d/%d ---\n", iteration, total)
	fmt.Printf("Config: %s\n", p)
}

func (c *Console) CandidateResult(iteration int, m loadtest.Metrics) {
	if m.Failed() {
		reason := m.Err
		if reason == "" {
			reason = "no usable result"
		}
		fmt.Println(warnStyle.Render(fmt.Sprintf("Result: failed (%s)", reason)))
		return
	}
	fmt.Printf("Result: RPS = %.2f | avg %.2f ms | success %.2f%%\n",
		m.RPS, m.AvgResponseTime, m.SuccessRate)
}

func (c *Console) CandidateSkipped(iteration int, warnings []string) {
	fmt.Println(warnStyle.Render(fmt.Sprintf("Iteration %d skipped: environment reset failed", iteration)))
}

// PrintRunHeader announces the run parameters before the search starts.
func PrintRunHeader(iterations, users, duration int) {
	fmt.Println(rule)
	fmt.Println(headerStyle.Render("AUTOMATED CONFIGURATION SEARCH"))
	fmt.Println(rule)
	fmt.Printf("Iterations : %d\n", iterations)
	fmt.Printf("Load test  : %d users, %d sec\n", users, duration)
	fmt.Println()
}

// PrintSummary renders the final result block.
func PrintSummary(res *search.Result, dist stats.Summary, reportPath string) {
	fmt.Printf("\n%s\n", rule)
	fmt.Println(headerStyle.Render("OPTIMIZATION RESULTS"))
	fmt.Println(rule)

	fmt.Printf("Best configuration (RPS: %.2f):\n", res.Best.Metrics.RPS)
	fmt.Printf("  worker_connections: %d\n", res.Best.Config.WorkerConnections)
	fmt.Printf("  keepalive_timeout:  %d\n", res.Best.Config.KeepaliveTimeout)
	fmt.Printf("  upstream_keepalive: %d\n", res.Best.Config.UpstreamKeepalive)

	fmt.Printf("\n%s\n", goodStyle.Render(fmt.Sprintf("Improvement over baseline: %+.2f%%", res.ImprovementPct)))

	if dist.Measured > 0 {
		fmt.Printf("\nAcross %d measured iterations (%d failed):\n", dist.Measured, dist.Failed)
		fmt.Printf("  RPS     p50 %.2f | p90 %.2f | max %.2f\n", dist.RPSMedian, dist.RPSP90, dist.RPSMax)
		fmt.Printf("  Latency p50 %.0f ms | p90 %.0f ms | max %.0f ms\n", dist.LatencyMedianMs, dist.LatencyP90Ms, dist.LatencyMaxMs)
	}

	if reportPath != "" {
		fmt.Printf("\nReport: %s\n", reportPath)
	}
	fmt.Println(rule)
}

// PrintInterrupted tells the user where the partial results went.
func PrintInterrupted(partialPath string) {
	fmt.Printf("\n\n%s\n", warnStyle.Render("Search interrupted"))
	if partialPath != "" {
		fmt.Printf("Partial results: %s\n", partialPath)
	}
}
