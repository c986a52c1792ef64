package report

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"proxytune/internal/search"
)

// Generator renders the self-contained HTML report for a finished run.
type Generator struct {
	Dir string // default output directory for timestamped reports
	Log *logrus.Logger
}

type reportData struct {
	GeneratedAt    string
	Iterations     int
	InitialRPS     float64
	BestRPS        float64
	ImprovementPct float64
	Best           search.Record
	Charts         []Chart
	History        search.History
}

// Generate writes the report and returns its path. With an empty
// outPath a timestamped file is created under the generator's Dir.
// Charts are best-effort; the tables always make it in.
func (g *Generator) Generate(h search.History, outPath string) (string, error) {
	if len(h) == 0 {
		return "", errors.New("empty history, nothing to report")
	}

	if outPath == "" {
		if err := os.MkdirAll(g.Dir, 0755); err != nil {
			return "", fmt.Errorf("create reports dir: %w", err)
		}
		ts := time.Now().Format("20060102_150405")
		outPath = filepath.Join(g.Dir, fmt.Sprintf("optimization_report_%s.html", ts))
	}

	best, _ := h.Best()
	data := reportData{
		GeneratedAt:    time.Now().Format(time.RFC1123),
		Iterations:     len(h),
		InitialRPS:     h[0].Metrics.RPS,
		BestRPS:        best.Metrics.RPS,
		ImprovementPct: h.Improvement(),
		Best:           best,
		Charts:         renderCharts(h, g.Log),
		History:        h,
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := reportTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	g.Log.WithField("path", outPath).Info("report written")
	return outPath, nil
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Configuration Optimization Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 16px; background: #fafafa; color: #222; }
        .container { max-width: 1100px; margin: 0 auto; background: #fff; padding: 20px; border: 1px solid #ddd; border-radius: 6px; }
        h1 { font-size: 22px; margin-bottom: 8px; }
        h2 { font-size: 18px; margin-top: 20px; }
        .summary { padding: 10px 12px; border: 1px solid #ddd; border-radius: 4px; background: #f7f7f7; }
        .metrics { display: flex; flex-wrap: wrap; gap: 12px; margin-top: 8px; }
        .metric { padding: 8px 10px; border: 1px solid #ddd; border-radius: 4px; background: #fff; min-width: 160px; }
        .metric-title { font-size: 12px; color: #555; }
        .metric-value { font-size: 18px; font-weight: 600; color: #111; }
        table { width: 100%; border-collapse: collapse; margin-top: 12px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; font-size: 13px; }
        th { background: #f1f1f1; }
        tr:nth-child(even) { background: #fbfbfb; }
        .charts img { max-width: 100%; height: auto; border: 1px solid #ddd; border-radius: 4px; margin: 10px 0; }
        .footer { font-size: 12px; color: #777; margin-top: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Automated Configuration Search Report</h1>

        <div class="summary">
            <h2>Summary</h2>
            <div class="metrics">
                <div class="metric"><div class="metric-title">Initial RPS</div><div class="metric-value">{{printf "%.2f" .InitialRPS}}</div></div>
                <div class="metric"><div class="metric-title">Best RPS</div><div class="metric-value">{{printf "%.2f" .BestRPS}}</div></div>
                <div class="metric"><div class="metric-title">Improvement</div><div class="metric-value">{{printf "%+.2f" .ImprovementPct}}%</div></div>
                <div class="metric"><div class="metric-title">Iterations</div><div class="metric-value">{{.Iterations}}</div></div>
            </div>
        </div>

        <h2>Best configuration</h2>
        <table>
            <tr><th>Parameter</th><th>Value</th></tr>
            <tr><td>worker_connections</td><td>{{.Best.Config.WorkerConnections}}</td></tr>
            <tr><td>keepalive_timeout</td><td>{{.Best.Config.KeepaliveTimeout}}</td></tr>
            <tr><td>upstream_keepalive</td><td>{{.Best.Config.UpstreamKeepalive}}</td></tr>
        </table>
{{if .Charts}}
        <h2>Charts</h2>
        <div class="charts">
{{range .Charts}}            <div><div style="font-size:13px;margin:4px 0;">{{.Title}}</div><img src="{{.Data}}" alt="{{.Title}}"></div>
{{end}}        </div>
{{end}}
        <h2>All iterations</h2>
        <table>
            <tr>
                <th>Iteration</th>
                <th>worker_connections</th>
                <th>keepalive_timeout</th>
                <th>upstream_keepalive</th>
                <th>RPS</th>
                <th>Avg response (ms)</th>
                <th>Success (%)</th>
            </tr>
{{range .History}}            <tr>
                <td>{{.Iteration}}</td>
                <td>{{.Config.WorkerConnections}}</td>
                <td>{{.Config.KeepaliveTimeout}}</td>
                <td>{{.Config.UpstreamKeepalive}}</td>
                <td>{{printf "%.2f" .Metrics.RPS}}</td>
                <td>{{printf "%.2f" .Metrics.AvgResponseTime}}</td>
                <td>{{printf "%.2f" .Metrics.SuccessRate}}</td>
            </tr>
{{end}}        </table>

        <div class="footer">Generated {{.GeneratedAt}}</div>
    </div>
</body>
</html>
`))
