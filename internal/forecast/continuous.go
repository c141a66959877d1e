package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"go.uber.org/zap"
)

// ErrStopRun is returned by a Reseeder to end a continuous run.
var ErrStopRun = errors.New("stop continuous run")

// Reporter receives the output of a continuous run. Run numbers start at 1.
type Reporter interface {
	ReportActions(run int, actions []finance.Action) error
	ReportSummary(run int, summary finance.Summary) error
}

// Reseeder supplies the parameter changes applied before the next run.
// completed is the number of runs finished so far.
type Reseeder interface {
	Next(ctx context.Context, completed int, current finance.Parameters) ([]config.Patch, error)
}

// QueueReseeder feeds configured patch sets in order and repeats the last
// parameters once they are exhausted. With Cycles > 0 the run stops after
// that many runs, otherwise it never stops.
type QueueReseeder struct {
	Reseeds [][]config.Patch
	Cycles  int
}

// NewQueueReseeder creates a QueueReseeder from the continuous configuration.
func NewQueueReseeder(conf config.ContinuousConfig) *QueueReseeder {
	return &QueueReseeder{Reseeds: conf.Reseeds, Cycles: conf.Cycles}
}

// Next implements Reseeder.
func (q *QueueReseeder) Next(_ context.Context, completed int, _ finance.Parameters) ([]config.Patch, error) {
	if q.Cycles > 0 && completed >= q.Cycles {
		return nil, ErrStopRun
	}
	index := completed - 1
	if index >= 0 && index < len(q.Reseeds) {
		return q.Reseeds[index], nil
	}
	return nil, nil
}

// RunContinuous simulates runs back to back. Each run reports a summary
// every SummaryInterval months ahead of the tick, then the actions and
// summary of every tick. After the horizon the reseeder's patches are
// applied and the portfolio restarts from an empty state. An invalid patch
// set is logged and the previous parameters are kept. It returns nil when
// the reseeder stops the run and the context error on cancellation.
func RunContinuous(ctx context.Context, logger *zap.Logger, params finance.Parameters, reporter Reporter, reseeder Reseeder) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	portfolio, err := finance.NewPortfolio(logger, params)
	if err != nil {
		return err
	}

	for run := 1; ; run++ {
		logger.Info(fmt.Sprintf("starting run %d", run),
			zap.String("op", "forecast.RunContinuous"),
			zap.Int("horizon", params.Horizon()),
		)

		for month := 0; month <= params.Horizon(); month++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if month%constants.SummaryInterval == 0 {
				if err := reporter.ReportSummary(run, portfolio.Summary()); err != nil {
					return fmt.Errorf("failed to report summary: %w", err)
				}
			}
			tick := portfolio.Tick()
			if len(tick.Actions) > 0 {
				if err := reporter.ReportActions(run, tick.Actions); err != nil {
					return fmt.Errorf("failed to report actions: %w", err)
				}
			}
			if err := reporter.ReportSummary(run, tick.Summary); err != nil {
				return fmt.Errorf("failed to report summary: %w", err)
			}
		}

		patches, err := reseeder.Next(ctx, run, params)
		if errors.Is(err, ErrStopRun) {
			logger.Info(fmt.Sprintf("continuous run stopped after %d runs", run),
				zap.String("op", "forecast.RunContinuous"),
			)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to reseed run %d: %w", run+1, err)
		}

		next, err := config.ApplyPatches(params, patches)
		if err != nil {
			logger.Warn("ignoring invalid reseed",
				zap.String("op", "forecast.RunContinuous"),
				zap.Int("run", run+1),
				zap.Error(err),
			)
		}
		params = next

		if err := portfolio.Reset(params); err != nil {
			return fmt.Errorf("failed to reset portfolio: %w", err)
		}
	}
}
