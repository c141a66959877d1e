// Package forecast drives portfolio simulations: single runs to the horizon,
// fully reported forecasts and continuous runs that reseed their parameters
// between runs.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/datetime"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"go.uber.org/zap"
)

// Forecast holds every decision and monthly summary of a run to the horizon.
type Forecast struct {
	RunID      string             `json:"runId"`
	StartDate  string             `json:"startDate,omitempty"`
	Parameters finance.Parameters `json:"parameters"`
	Summaries  []finance.Summary  `json:"summaries"`
	Actions    []finance.Action   `json:"actions"`
	Outcome    finance.Outcome    `json:"outcome"`
}

// RunToHorizon simulates months 0 through the horizon without reporting and
// returns the final total assets and monthly cash flow.
func RunToHorizon(ctx context.Context, logger *zap.Logger, params finance.Parameters) (finance.Outcome, error) {
	portfolio, err := finance.NewPortfolio(logger, params)
	if err != nil {
		return finance.Outcome{}, err
	}

	horizon := params.Horizon()
	for month := 0; month <= horizon; month++ {
		if month%constants.SummaryInterval == 0 {
			if err := ctx.Err(); err != nil {
				return finance.Outcome{}, err
			}
		}
		portfolio.Tick()
	}
	return portfolio.Results(), nil
}

// Simulate runs to the horizon collecting every action and end-of-month
// summary. When startDate is set, summaries are labeled with calendar months.
func Simulate(ctx context.Context, logger *zap.Logger, params finance.Parameters, startDate string) (*Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	portfolio, err := finance.NewPortfolio(logger, params)
	if err != nil {
		return nil, err
	}

	horizon := params.Horizon()
	var start time.Time
	if startDate != "" {
		start, err = datetime.ParseMonth(startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
	}

	result := &Forecast{
		RunID:      uuid.NewString(),
		StartDate:  startDate,
		Parameters: params,
	}
	logger.Debug("starting forecast",
		zap.String("op", "forecast.Simulate"),
		zap.String("runId", result.RunID),
		zap.Int("horizon", horizon),
	)

	for month := 0; month <= horizon; month++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tick := portfolio.Tick()
		if startDate != "" {
			tick.Summary.Date = datetime.MonthLabel(start, month)
		}
		result.Summaries = append(result.Summaries, tick.Summary)
		result.Actions = append(result.Actions, tick.Actions...)
	}
	result.Outcome = portfolio.Results()

	logger.Debug("forecast complete",
		zap.String("op", "forecast.Simulate"),
		zap.String("runId", result.RunID),
		zap.Int("actions", len(result.Actions)),
		zap.Float64("totalAssets", result.Outcome.TotalAssets),
	)
	return result, nil
}

// Benchmark returns the balance of investing additions every month at the
// annual growth percent for the given number of months, with no real estate.
func Benchmark(additions, growthPercent float64, months int) (float64, error) {
	rate, err := loans.AnnualToMonthlyRate(growthPercent)
	if err != nil {
		return 0, fmt.Errorf("benchmark growth rate: %w", err)
	}
	total := additions
	for month := 0; month < months; month++ {
		total *= 1 + rate
		total += additions
	}
	return total, nil
}
