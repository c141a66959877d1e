package integration

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/internal/forecast"
	"github.com/iwvelando/rental-forecast/internal/sweep"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/testutil"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// TestPerformance times the full example sweep.
func TestPerformance(t *testing.T) {
	if !testing.Verbose() || testing.Short() {
		t.Skip("Skipping performance test. Run with -v to enable.")
	}

	logger := zap.NewNop()

	start := time.Now()
	conf, err := config.LoadConfiguration("../../" + constants.ExampleConfigFile)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	loadTime := time.Since(start)

	start = time.Now()
	if _, err := forecast.RunToHorizon(context.Background(), logger, conf.Parameters); err != nil {
		t.Fatalf("RunToHorizon failed: %v", err)
	}
	runTime := time.Since(start)

	runner, err := sweep.NewRunner(logger, sweep.OptionsFromConfig(conf))
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	start = time.Now()
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	sweepTime := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Config loading: %v", loadTime)
	t.Logf("  Single run: %v", runTime)
	t.Logf("  Sweep of %d runs: %v", result.Runs, sweepTime)

	if sweepTime > time.Minute {
		t.Errorf("Sweep time %v exceeds one minute threshold", sweepTime)
	}
}

// TestMemoryUsage reuses one portfolio across many resets.
func TestMemoryUsage(t *testing.T) {
	params := testutil.DefaultParameters(120)
	portfolio, err := finance.NewPortfolio(zap.NewNop(), params)
	if err != nil {
		t.Fatalf("NewPortfolio failed: %v", err)
	}

	var first finance.Outcome
	for i := 0; i < 10; i++ {
		if err := portfolio.Reset(params); err != nil {
			t.Fatalf("Reset failed on iteration %d: %v", i, err)
		}
		for month := 0; month <= params.Horizon(); month++ {
			portfolio.Tick()
		}
		outcome := portfolio.Results()
		if i == 0 {
			first = outcome
		} else if outcome != first {
			t.Fatalf("iteration %d outcome %+v differs from first %+v", i, outcome, first)
		}
	}
}

// TestDataConsistency validates that multiple runs produce identical results
func TestDataConsistency(t *testing.T) {
	logger := zap.NewNop()

	var firstResult *forecast.Forecast
	for run := 0; run < 3; run++ {
		conf := loadTestConfig(t)
		result, err := forecast.Simulate(context.Background(), logger, conf.Parameters, conf.StartDate)
		if err != nil {
			t.Fatalf("Simulate failed on run %d: %v", run, err)
		}

		if firstResult == nil {
			firstResult = result
			continue
		}
		if !reflect.DeepEqual(result.Summaries, firstResult.Summaries) {
			t.Errorf("run %d summaries differ from the first run", run)
		}
		if !reflect.DeepEqual(result.Actions, firstResult.Actions) {
			t.Errorf("run %d actions differ from the first run", run)
		}
		if result.RunID == firstResult.RunID {
			t.Errorf("run %d reused run ID %s", run, result.RunID)
		}
	}
}

// TestConfigurationVariations checks the policy reacts to parameter changes.
func TestConfigurationVariations(t *testing.T) {
	tests := []struct {
		name     string
		patches  []config.Patch
		validate func(t *testing.T, result *forecast.Forecast)
	}{
		{
			name:    "No additions never buys",
			patches: []config.Patch{{Field: "additions", Value: 0}},
			validate: func(t *testing.T, result *forecast.Forecast) {
				if n := len(result.Actions); n != 0 {
					t.Errorf("expected no actions, got %d", n)
				}
				if result.Outcome.TotalAssets != 0 {
					t.Errorf("expected no assets, got %.2f", result.Outcome.TotalAssets)
				}
			},
		},
		{
			name:    "Unreachable DTI never buys",
			patches: []config.Patch{{Field: "maxDTI", Value: 10}},
			validate: func(t *testing.T, result *forecast.Forecast) {
				if n := testutil.CountActions(result.Actions, finance.ActionPurchase); n != 0 {
					t.Errorf("expected no purchases, got %d", n)
				}
			},
		},
		{
			name:    "Short horizon never sells",
			patches: []config.Patch{{Field: "months", Value: 48}},
			validate: func(t *testing.T, result *forecast.Forecast) {
				if len(result.Summaries) != 49 {
					t.Errorf("expected 49 summaries, got %d", len(result.Summaries))
				}
				if n := testutil.CountActions(result.Actions, finance.ActionSell); n != 0 {
					t.Errorf("expected no sales, got %d", n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := config.ApplyPatches(testutil.DefaultParameters(120), tt.patches)
			if err != nil {
				t.Fatalf("ApplyPatches failed: %v", err)
			}
			result, err := forecast.Simulate(context.Background(), zap.NewNop(), params, "")
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			tt.validate(t, result)
		})
	}
}

func BenchmarkRunToHorizon(b *testing.B) {
	params := testutil.DefaultParameters(180)
	logger := zap.NewNop()
	for i := 0; i < b.N; i++ {
		if _, err := forecast.RunToHorizon(context.Background(), logger, params); err != nil {
			b.Fatal(err)
		}
	}
}
