package report

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxytune/internal/loadtest"
	"proxytune/internal/nginx"
	"proxytune/internal/search"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleHistory() search.History {
	return search.History{
		{Iteration: 0, Config: nginx.DefaultParams(), Metrics: loadtest.Metrics{RPS: 50, AvgResponseTime: 20, TotalRequests: 1000, SuccessRate: 99}},
		{Iteration: 1, Config: nginx.Params{WorkerConnections: 2048, KeepaliveTimeout: 90, UpstreamKeepalive: 64}, Metrics: loadtest.Metrics{RPS: 80, AvgResponseTime: 12, TotalRequests: 1500, SuccessRate: 100}},
		{Iteration: 2, Config: nginx.Params{WorkerConnections: 512, KeepaliveTimeout: 30, UpstreamKeepalive: 16}, Metrics: loadtest.Metrics{RPS: 65, AvgResponseTime: 15, TotalRequests: 1200, SuccessRate: 100}},
	}
}

func TestGenerateReport(t *testing.T) {
	g := &Generator{Dir: t.TempDir(), Log: quietLogger()}

	path, err := g.Generate(sampleHistory(), "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "optimization_report_"))
	assert.Contains(t, html, "Best RPS")
	assert.Contains(t, html, "80.00")
	assert.Contains(t, html, "+60.00%")
	assert.Contains(t, html, "<td>2048</td>")
	// One table row per iteration.
	assert.Equal(t, 3, strings.Count(html, "<td>0</td>")+strings.Count(html, "<td>1</td>")+strings.Count(html, "<td>2</td>"))
}

func TestGenerateReportEmbedsCharts(t *testing.T) {
	g := &Generator{Dir: t.TempDir(), Log: quietLogger()}

	path, err := g.Generate(sampleHistory(), "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "data:image/png;base64,")
}

func TestGenerateReportExplicitPath(t *testing.T) {
	g := &Generator{Dir: t.TempDir(), Log: quietLogger()}
	out := filepath.Join(t.TempDir(), "custom.html")

	path, err := g.Generate(sampleHistory(), out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestGenerateReportEmptyHistory(t *testing.T) {
	g := &Generator{Dir: t.TempDir(), Log: quietLogger()}

	_, err := g.Generate(nil, "")
	assert.Error(t, err)
}
