package integration

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/internal/forecast"
	"github.com/iwvelando/rental-forecast/internal/sweep"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/output"
	"github.com/iwvelando/rental-forecast/pkg/testutil"
	"go.uber.org/zap"
)

func loadTestConfig(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

// TestMainIntegrationBaseline runs the test configuration exactly as the
// horizon mode of the command line tool does.
func TestMainIntegrationBaseline(t *testing.T) {
	logger := zap.NewNop()
	conf := loadTestConfig(t)

	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("expected no configuration warnings, got %v", warnings)
	}
	if conf.Parameters != testutil.DefaultParameters(120) {
		t.Errorf("test configuration drifted from the default parameters: %+v", conf.Parameters)
	}

	result, err := forecast.Simulate(context.Background(), logger, conf.Parameters, conf.StartDate)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if len(result.Summaries) != 121 {
		t.Fatalf("expected 121 monthly summaries, got %d", len(result.Summaries))
	}
	if result.Summaries[120].Date != "2035-01" {
		t.Errorf("expected final label 2035-01, got %s", result.Summaries[120].Date)
	}

	purchases := testutil.CountActions(result.Actions, finance.ActionPurchase)
	if purchases == 0 {
		t.Fatal("expected at least one purchase within ten years")
	}
	// The five year hold lists every property bought in the first five years.
	if testutil.CountActions(result.Actions, finance.ActionList) == 0 {
		t.Error("expected at least one listing within ten years")
	}

	outcome, err := forecast.RunToHorizon(context.Background(), logger, conf.Parameters)
	if err != nil {
		t.Fatalf("RunToHorizon() error = %v", err)
	}
	if outcome != result.Outcome {
		t.Errorf("RunToHorizon() = %+v, Simulate outcome %+v", outcome, result.Outcome)
	}

	final := result.Summaries[120]
	if math.Abs(final.TotalAssets-(final.Cash+final.Equity+final.EmergencyFund)) > 1e-6 {
		t.Errorf("total assets %.2f is not cash + equity + emergency fund", final.TotalAssets)
	}
}

// TestCSVOutputFormat checks the CSV rendering of a full run.
func TestCSVOutputFormat(t *testing.T) {
	conf := loadTestConfig(t)

	result, err := forecast.Simulate(context.Background(), zap.NewNop(), conf.Parameters, conf.StartDate)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output.CsvString(result)), "\n")
	if len(lines) != len(result.Summaries)+1 {
		t.Fatalf("expected %d CSV lines, got %d", len(result.Summaries)+1, len(lines))
	}

	for i, line := range lines {
		if fields := strings.Count(line, `","`) + 1; fields != 12 {
			t.Errorf("line %d has %d fields, expected 12: %s", i, fields, line)
		}
	}

	notes := 0
	for _, line := range lines[1:] {
		if strings.Contains(line, "purchase #") {
			notes++
		}
	}
	if notes == 0 {
		t.Error("expected purchase notes in the CSV output")
	}
}

// TestPrettyOutputFormat checks the human-readable rendering of a full run.
func TestPrettyOutputFormat(t *testing.T) {
	conf := loadTestConfig(t)

	result, err := forecast.Simulate(context.Background(), zap.NewNop(), conf.Parameters, conf.StartDate)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	var buf bytes.Buffer
	output.WritePretty(&buf, result)
	text := buf.String()

	for _, element := range []string{
		"--- Results for run " + result.RunID + " ---",
		"\n2025-01 | 0 | ",
		"\n2035-01 | ",
		"Final total assets: ",
	} {
		if !strings.Contains(text, element) {
			t.Errorf("pretty output missing %q", element)
		}
	}
}

// TestContinuousMode runs the configured reseeds through the continuous
// printer.
func TestContinuousMode(t *testing.T) {
	conf := loadTestConfig(t)

	var buf bytes.Buffer
	printer := output.NewContinuousPrinter(&buf, constants.OutputFormatCSV)
	err := forecast.RunContinuous(context.Background(), zap.NewNop(), conf.Parameters, printer, forecast.NewQueueReseeder(conf.Continuous))
	if err != nil {
		t.Fatalf("RunContinuous() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Two runs of 121 ticks plus 11 yearly summaries each, and one header.
	if len(lines) != 2*(121+11)+1 {
		t.Fatalf("expected %d lines, got %d", 2*(121+11)+1, len(lines))
	}
	if !strings.HasPrefix(lines[len(lines)-1], `"2","120"`) {
		t.Errorf("expected the last row to close run 2, got %s", lines[len(lines)-1])
	}
}

// TestSweepMode runs the configured sweep end to end.
func TestSweepMode(t *testing.T) {
	conf := loadTestConfig(t)

	runner, err := sweep.NewRunner(zap.NewNop(), sweep.OptionsFromConfig(conf))
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rent := testutil.FindSeries(result.Series, "rent")
	if rent == nil {
		t.Fatal("rent series not found")
	}
	benchmark := testutil.FindSeries(result.Series, constants.BenchmarkSeriesName)
	if benchmark == nil {
		t.Fatal("benchmark series not found")
	}

	// The unscaled point of a zero volatility sweep is the base run.
	outcome, err := forecast.RunToHorizon(context.Background(), zap.NewNop(), conf.Parameters)
	if err != nil {
		t.Fatalf("RunToHorizon() error = %v", err)
	}
	for _, point := range rent.Points {
		if math.Abs(point.Scale-1) < 1e-9 && math.Abs(point.Value-outcome.TotalAssets) > 1e-6 {
			t.Errorf("unscaled rent point %.2f differs from base run %.2f", point.Value, outcome.TotalAssets)
		}
	}

	expectedBenchmark, err := forecast.Benchmark(conf.Parameters.Additions, conf.Parameters.Growth, 120)
	if err != nil {
		t.Fatalf("Benchmark() error = %v", err)
	}
	if math.Abs(benchmark.Points[0].Value-expectedBenchmark) > 1e-6 {
		t.Errorf("benchmark = %.2f, expected %.2f", benchmark.Points[0].Value, expectedBenchmark)
	}
}

// TestConfigurationValidation loads configurations that must be rejected.
func TestConfigurationValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "No parameters",
			yaml:    "startDate: \"2025-01\"\n",
			wantErr: "missing required parameter",
		},
		{
			name:    "Non-numeric parameter",
			yaml:    "parameters:\n  rent: lots\n",
			wantErr: "not numeric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfigurationFromReader(strings.NewReader(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestExampleConfiguration checks the shipped example loads cleanly.
func TestExampleConfiguration(t *testing.T) {
	conf, err := config.LoadConfiguration("../../" + constants.ExampleConfigFile)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !conf.Sweep.Enabled() {
		t.Fatal("expected the example to configure a sweep")
	}
	if len(conf.Sweep.Groups) != 15 {
		t.Errorf("expected 15 sweep groups, got %d", len(conf.Sweep.Groups))
	}
	if conf.Parameters.Horizon() != 180 {
		t.Errorf("expected a 180 month horizon, got %d", conf.Parameters.Horizon())
	}
}
