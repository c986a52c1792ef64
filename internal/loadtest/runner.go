package loadtest

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Extra wall time granted to the wrapper script beyond the test
// duration itself (locust startup, ramp, CSV flush).
const runGrace = 120 * time.Second

// Runner drives the external locust wrapper script and collects the
// stats artifact it leaves behind.
type Runner struct {
	Script     string // wrapper script, takes users/spawn-rate/duration
	WorkDir    string // directory the script is executed from
	ResultsDir string // where test_*_stats.csv files appear
	Log        *logrus.Logger

	grace time.Duration // extra wall time past the test duration, runGrace if zero
}

// Run executes one load test and returns its aggregate metrics. All
// failure modes (timeout, missing artifact, unparseable artifact) are
// folded into a zero-valued Metrics so the search loop keeps going; the
// wrapper's own exit code is not meaningful and is ignored. The stats
// artifact is left on disk for later inspection.
func (r *Runner) Run(ctx context.Context, users, spawnRate, durationSec int) Metrics {
	grace := r.grace
	if grace == 0 {
		grace = runGrace
	}
	deadline := time.Duration(durationSec)*time.Second + grace
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	r.Log.WithFields(logrus.Fields{
		"users":    users,
		"duration": durationSec,
	}).Info("starting load test")

	cmd := exec.CommandContext(runCtx, r.Script,
		strconv.Itoa(users), strconv.Itoa(spawnRate), strconv.Itoa(durationSec))
	cmd.Dir = r.WorkDir
	_ = cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Metrics{Err: "load test exceeded maximum time"}
	}
	if ctx.Err() != nil {
		return Metrics{Err: "load test canceled"}
	}

	statsPath, err := newestStatsFile(r.ResultsDir)
	if err != nil {
		return Metrics{Err: err.Error()}
	}

	m, err := ParseStats(statsPath)
	if err != nil {
		r.Log.WithError(err).Warn("could not parse load test results")
		return Metrics{}
	}
	return m
}

// newestStatsFile returns the most recently modified test_*_stats.csv
// in dir. Several runs may coexist; the newest one belongs to us.
func newestStatsFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.New("results directory not found")
	}

	var (
		newest    string
		newestMod time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, _ := filepath.Match("test_*_stats.csv", e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}

	if newest == "" {
		return "", errors.New("no stats CSV found in results directory")
	}
	return newest, nil
}
