// Package sweep measures how sensitive a simulation outcome is to each group
// of parameters by scaling the group across a range of factors while the
// remaining parameters are randomly perturbed.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/internal/forecast"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"github.com/iwvelando/rental-forecast/pkg/mathutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrBudgetExceeded is returned when a sweep needs more runs than allowed.
var ErrBudgetExceeded = errors.New("sweep exceeds run budget")

// Options configures a sweep around the Base parameters.
type Options struct {
	Base finance.Parameters
	config.SweepConfig
}

// OptionsFromConfig builds sweep options from a loaded configuration.
func OptionsFromConfig(conf *config.Configuration) Options {
	return Options{Base: conf.Parameters, SweepConfig: conf.Sweep}
}

// Point is the averaged metric at one scale factor.
type Point struct {
	Scale float64 `json:"scale"`
	Value float64 `json:"value"`
}

// Series is the metric of one variable group across the scale grid.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Result holds one series per variable group, followed by the benchmark
// series when requested.
type Result struct {
	RunID  string   `json:"runId"`
	Metric string   `json:"metric"`
	Runs   int      `json:"runs"`
	Series []Series `json:"series"`
}

// Runner executes a sweep.
type Runner struct {
	logger  *zap.Logger
	opts    Options
	factors []float64
}

type job struct {
	group  int
	factor int
	trial  int
}

// NewRunner validates the options and constructs a Runner.
func NewRunner(logger *zap.Logger, opts Options) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	groups := make([]config.VariableGroup, len(opts.Groups))
	for i, group := range opts.Groups {
		groups[i] = config.VariableGroup{Name: group.Name, Targets: append([]config.Target(nil), group.Targets...)}
	}
	opts.Groups = groups
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := config.ValidateParameters(opts.Base); err != nil {
		return nil, fmt.Errorf("invalid base parameters: %w", err)
	}
	if total := opts.TotalRuns(); opts.MaxRuns > 0 && total > opts.MaxRuns {
		return nil, fmt.Errorf("%w: %d runs needed, %d allowed", ErrBudgetExceeded, total, opts.MaxRuns)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	return &Runner{logger: logger, opts: opts, factors: opts.ScaleFactors()}, nil
}

// TotalRuns returns the number of simulations the sweep performs.
func (r *Runner) TotalRuns() int {
	return len(r.opts.Groups) * len(r.factors) * r.opts.Trials
}

// Run executes every simulation of the sweep on a bounded worker pool and
// averages the trials of each scale factor in trial order.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	total := r.TotalRuns()
	if r.opts.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.MaxDuration)
		defer cancel()
	}

	result := &Result{RunID: uuid.NewString(), Metric: r.opts.Metric, Runs: total}
	started := time.Now()
	r.logger.Info("starting sweep",
		zap.String("op", "sweep.Runner.Run"),
		zap.String("runId", result.RunID),
		zap.Int("runs", total),
		zap.Int("workers", r.opts.Workers),
		zap.Float64("volatility", r.opts.Volatility),
	)

	values := make([]float64, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for group := range r.opts.Groups {
		for factor := range r.factors {
			for trial := 0; trial < r.opts.Trials; trial++ {
				j := job{group: group, factor: factor, trial: trial}
				g.Go(func() error {
					value, err := r.evaluate(gctx, j)
					if err != nil {
						return err
					}
					values[r.index(j)] = value
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep aborted: %w", err)
	}

	for group, variables := range r.opts.Groups {
		series := Series{Name: variables.Name, Points: make([]Point, len(r.factors))}
		for factor, scale := range r.factors {
			first := r.index(job{group: group, factor: factor})
			series.Points[factor] = Point{Scale: scale, Value: mathutil.Mean(values[first : first+r.opts.Trials])}
		}
		result.Series = append(result.Series, series)
	}

	if r.opts.Benchmark {
		benchmark, err := r.benchmarkSeries()
		if err != nil {
			return nil, err
		}
		result.Series = append(result.Series, benchmark)
	}

	r.logger.Info("sweep complete",
		zap.String("op", "sweep.Runner.Run"),
		zap.String("runId", result.RunID),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (r *Runner) index(j job) int {
	return (j.group*len(r.factors)+j.factor)*r.opts.Trials + j.trial
}

// evaluate runs one simulation and returns the selected metric.
func (r *Runner) evaluate(ctx context.Context, j job) (float64, error) {
	params, err := r.parametersFor(j)
	if err != nil {
		return 0, err
	}
	outcome, err := forecast.RunToHorizon(ctx, r.logger, params)
	if err != nil {
		return 0, err
	}
	if r.opts.Metric == config.SweepMetricCashFlow {
		return outcome.CashFlow, nil
	}
	return outcome.TotalAssets, nil
}

// parametersFor perturbs every parameter except the horizon and then sets
// the group's targets from the unperturbed base. No random numbers are
// drawn without volatility.
func (r *Runner) parametersFor(j job) (finance.Parameters, error) {
	params := r.opts.Base
	if r.opts.Volatility > 0 {
		rng := rand.New(rand.NewPCG(r.opts.Seed, streamFor(j)))
		spread := r.opts.Volatility / constants.PercentageMultiplier
		for _, name := range config.ParameterNames() {
			if name == config.HorizonParameter {
				continue
			}
			value, err := config.GetParameter(params, name)
			if err != nil {
				return params, err
			}
			factor := 1 - spread + rng.Float64()*2*spread
			if err := config.SetParameter(&params, name, value*factor); err != nil {
				return params, err
			}
		}
	}

	scale := r.factors[j.factor]
	for _, target := range r.opts.Groups[j.group].Targets {
		base, err := config.GetParameter(r.opts.Base, target.Field)
		if err != nil {
			return params, err
		}
		value := base * scale
		if target.Inverse {
			value = base / scale
		}
		if err := config.SetParameter(&params, target.Field, value); err != nil {
			return params, err
		}
	}
	return params, nil
}

func streamFor(j job) uint64 {
	return uint64(j.group)<<40 | uint64(j.factor)<<20 | uint64(j.trial)
}

// benchmarkSeries is the flat series of investing the monthly additions at
// the growth rate instead of buying property. For the cash flow metric the
// balance is converted into the monthly return it earns.
func (r *Runner) benchmarkSeries() (Series, error) {
	base := r.opts.Base
	value, err := forecast.Benchmark(base.Additions, base.Growth, base.Horizon())
	if err != nil {
		return Series{}, err
	}
	if r.opts.Metric == config.SweepMetricCashFlow {
		rate, err := loans.AnnualToMonthlyRate(base.Growth)
		if err != nil {
			return Series{}, err
		}
		value *= rate
	}

	series := Series{Name: constants.BenchmarkSeriesName, Points: make([]Point, len(r.factors))}
	for i, scale := range r.factors {
		series.Points[i] = Point{Scale: scale, Value: value}
	}
	return series, nil
}
