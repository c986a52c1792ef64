package search

import (
	"context"
	"errors"
	"math/rand"

	"github.com/sirupsen/logrus"

	"proxytune/internal/env"
	"proxytune/internal/loadtest"
	"proxytune/internal/nginx"
)

// ErrResetFailed aborts the whole search: a baseline measured against a
// broken environment would invalidate every later comparison.
var ErrResetFailed = errors.New("initial environment reset failed")

// Environment is the slice of env.Controller the driver needs.
type Environment interface {
	Reset(ctx context.Context, full bool) env.Result
	RestartProxy(ctx context.Context) env.Result
}

// LoadTester runs one load test and reports its aggregate metrics.
type LoadTester interface {
	Run(ctx context.Context, users, spawnRate, durationSec int) loadtest.Metrics
}

// Progress receives human-facing updates as the search advances. The
// console implementation lives in internal/cli; tests use the zero
// noopProgress.
type Progress interface {
	Step(title string)
	CandidateStart(iteration, total int, p nginx.Params)
	CandidateResult(iteration int, m loadtest.Metrics)
	CandidateSkipped(iteration int, warnings []string)
}

type noopProgress struct{}

func (noopProgress) Step(string)                           {}
func (noopProgress) CandidateStart(int, int, nginx.Params) {}
func (noopProgress) CandidateResult(int, loadtest.Metrics) {}
func (noopProgress) CandidateSkipped(int, []string)        {}

// Options bound one search run.
type Options struct {
	Iterations int
	GridSize   int
	Users      int
	SpawnRate  int
	Duration   int
	FullReset  bool

	// Rand drives the candidate shuffle; nil uses the global source.
	Rand *rand.Rand
}

// Result is what one finished (or interrupted) search produced.
type Result struct {
	History        History
	Best           Record
	InitialRPS     float64
	ImprovementPct float64
	Interrupted    bool
}

// Driver runs the whole search: baseline, candidate loop, best
// tracking, history persistence. It owns the History for the duration
// of the run and hands it out read-only afterwards.
type Driver struct {
	Opts      Options
	NginxConf string

	Apply    func(p nginx.Params, path string) error
	Env      Environment
	Load     LoadTester
	Sink     HistorySink
	Progress Progress
	Log      *logrus.Logger
}

// Candidates samples the search grid: full cross product, shuffled,
// truncated to the iteration budget. A small budget therefore tests a
// random subset of the grid instead of its first lexicographic slice.
func Candidates(gridSize, iterations int, rng *rand.Rand) []nginx.Params {
	grid := nginx.GenerateGrid(gridSize)

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(grid), func(i, j int) {
		grid[i], grid[j] = grid[j], grid[i]
	})

	if iterations >= 0 && len(grid) > iterations {
		grid = grid[:iterations]
	}
	return grid
}

// Run executes the search until the candidates are exhausted, the
// context is canceled, or the initial reset fails.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.Progress == nil {
		d.Progress = noopProgress{}
	}

	candidates := Candidates(d.Opts.GridSize, d.Opts.Iterations, d.Opts.Rand)
	d.Log.WithField("candidates", len(candidates)).Info("generated candidate configurations")

	// Baseline: default config, full (or plain) reset, proxy restart.
	// Failure here is the one fatal path.
	d.Progress.Step("Resetting system and applying the default configuration")

	defaults := nginx.DefaultParams()
	if err := d.Apply(defaults, d.NginxConf); err != nil {
		d.Log.WithError(err).Warn("could not apply default configuration, continuing with the file as-is")
	}

	reset := d.Env.Reset(ctx, d.Opts.FullReset)
	d.logWarnings(reset)
	if ctx.Err() != nil {
		// An interrupt lands here as a failed reset too; it is not a
		// fatal environment problem, just the user bailing out.
		return d.interrupted(nil), nil
	}
	if !reset.OK {
		return nil, ErrResetFailed
	}
	if r := d.Env.RestartProxy(ctx); !r.OK {
		d.Log.Warn("proxy restart failed before baseline")
	}

	d.Progress.Step("Baseline load test (default configuration)")

	var history History
	baseline := d.Load.Run(ctx, d.Opts.Users, d.Opts.SpawnRate, d.Opts.Duration)
	if ctx.Err() != nil {
		return d.interrupted(history), nil
	}
	history = append(history, Record{Iteration: 0, Config: defaults, Metrics: baseline})

	best := history[0]
	initialRPS := baseline.RPS
	d.Log.WithField("rps", initialRPS).Info("baseline throughput")

	d.Progress.Step("Searching candidate configurations")

	for i, cand := range candidates {
		iteration := i + 1
		if ctx.Err() != nil {
			return d.interrupted(history), nil
		}

		d.Progress.CandidateStart(iteration, len(candidates), cand)

		if err := d.Apply(cand, d.NginxConf); err != nil {
			d.Log.WithError(err).Warn("could not apply candidate configuration")
		}

		reset := d.Env.Reset(ctx, false)
		d.logWarnings(reset)
		if ctx.Err() != nil {
			return d.interrupted(history), nil
		}
		if !reset.OK {
			// One bad iteration must not take the whole search down.
			d.Log.WithField("iteration", iteration).Warn("environment reset failed, skipping candidate")
			d.Progress.CandidateSkipped(iteration, reset.Warnings)
			continue
		}
		if r := d.Env.RestartProxy(ctx); !r.OK {
			d.Log.WithField("iteration", iteration).Warn("proxy restart failed")
		}

		m := d.Load.Run(ctx, d.Opts.Users, d.Opts.SpawnRate, d.Opts.Duration)
		if ctx.Err() != nil {
			return d.interrupted(history), nil
		}

		rec := Record{Iteration: iteration, Config: cand, Metrics: m}
		history = append(history, rec)
		d.Progress.CandidateResult(iteration, m)

		if m.RPS > best.Metrics.RPS {
			best = rec
		}
	}

	res := &Result{
		History:        history,
		Best:           best,
		InitialRPS:     initialRPS,
		ImprovementPct: history.Improvement(),
	}

	if d.Sink != nil {
		if err := d.Sink.SaveFinal(history); err != nil {
			d.Log.WithError(err).Error("could not persist run history")
		}
	}
	return res, nil
}

// interrupted saves whatever accumulated so far to the partial location
// and reports an orderly early exit. No report is generated for an
// interrupted run.
func (d *Driver) interrupted(history History) *Result {
	d.Log.Warn("search interrupted, saving partial history")

	if len(history) > 0 && d.Sink != nil {
		if err := d.Sink.SavePartial(history); err != nil {
			d.Log.WithError(err).Error("could not persist partial history")
		}
	}

	res := &Result{History: history, Interrupted: true}
	if best, ok := history.Best(); ok {
		res.Best = best
		res.InitialRPS = history[0].Metrics.RPS
		res.ImprovementPct = history.Improvement()
	}
	return res
}

func (d *Driver) logWarnings(r env.Result) {
	for _, w := range r.Warnings {
		d.Log.Warn(w)
	}
}
