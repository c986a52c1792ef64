package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/color"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"proxytune/internal/nginx"
	"proxytune/internal/search"
)

// Chart is a rendered PNG ready for inline embedding.
type Chart struct {
	Title string
	Data  template.URL
}

// renderCharts draws the standard chart set for a run. Every chart is
// optional: a rendering failure is logged and the report is produced
// without that image.
func renderCharts(h search.History, log *logrus.Logger) []Chart {
	type def struct {
		title string
		build func(search.History) (*plot.Plot, error)
	}

	defs := []def{
		{"Throughput by iteration", rpsOverIterations},
		{"Throughput vs worker_connections", rpsVsParam("worker_connections", func(p nginx.Params) float64 {
			return float64(p.WorkerConnections)
		})},
		{"Throughput vs keepalive_timeout", rpsVsParam("keepalive_timeout", func(p nginx.Params) float64 {
			return float64(p.KeepaliveTimeout)
		})},
		{"Throughput vs upstream_keepalive", rpsVsParam("upstream_keepalive", func(p nginx.Params) float64 {
			return float64(p.UpstreamKeepalive)
		})},
	}

	var charts []Chart
	for _, d := range defs {
		p, err := d.build(h)
		if err == nil {
			var data template.URL
			data, err = encodePNG(p)
			if err == nil {
				charts = append(charts, Chart{Title: d.title, Data: data})
				continue
			}
		}
		log.WithError(err).WithField("chart", d.title).Warn("could not render chart")
	}
	return charts
}

func rpsOverIterations(h search.History) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "RPS by iteration"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "RPS"

	pts := make(plotter.XYs, len(h))
	for i, rec := range h {
		pts[i].X = float64(rec.Iteration)
		pts[i].Y = rec.Metrics.RPS
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{54, 162, 235, 255}
	line.Width = vg.Points(2)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}

	p.Add(line, scatter, plotter.NewGrid())
	return p, nil
}

func rpsVsParam(name string, value func(nginx.Params) float64) func(search.History) (*plot.Plot, error) {
	return func(h search.History) (*plot.Plot, error) {
		p := plot.New()
		p.Title.Text = "RPS vs " + name
		p.X.Label.Text = name
		p.Y.Label.Text = "RPS"

		pts := make(plotter.XYs, len(h))
		for i, rec := range h {
			pts[i].X = value(rec.Config)
			pts[i].Y = rec.Metrics.RPS
		}

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		scatter.Color = color.RGBA{255, 159, 64, 255}

		p.Add(scatter, plotter.NewGrid())
		return p, nil
	}
}

func encodePNG(p *plot.Plot) (template.URL, error) {
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", err
	}

	enc := base64.StdEncoding.EncodeToString(buf.Bytes())
	return template.URL(fmt.Sprintf("data:image/png;base64,%s", enc)), nil
}
