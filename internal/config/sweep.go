package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/rental-forecast/pkg/constants"
)

const (
	SweepMetricTotalAssets = constants.MetricTotalAssets
	SweepMetricCashFlow    = constants.MetricCashFlow
)

// SweepConfig defines a sensitivity sweep over groups of parameters.
type SweepConfig struct {
	Metric      string          `yaml:"metric,omitempty" mapstructure:"metric"`
	Volatility  float64         `yaml:"volatility,omitempty" mapstructure:"volatility"` // percent
	Trials      int             `yaml:"trials,omitempty" mapstructure:"trials"`
	Benchmark   bool            `yaml:"benchmark,omitempty" mapstructure:"benchmark"`
	ScaleStart  float64         `yaml:"scaleStart,omitempty" mapstructure:"scaleStart"`
	ScaleEnd    float64         `yaml:"scaleEnd,omitempty" mapstructure:"scaleEnd"`
	ScaleStep   float64         `yaml:"scaleStep,omitempty" mapstructure:"scaleStep"`
	Workers     int             `yaml:"workers,omitempty" mapstructure:"workers"`
	Seed        uint64          `yaml:"seed,omitempty" mapstructure:"seed"`
	MaxDuration time.Duration   `yaml:"maxDuration,omitempty" mapstructure:"maxDuration"`
	MaxRuns     int             `yaml:"maxRuns,omitempty" mapstructure:"maxRuns"`
	Groups      []VariableGroup `yaml:"groups,omitempty" mapstructure:"groups"`
}

// VariableGroup is a set of parameters scaled together by the same factor.
type VariableGroup struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Targets []Target `yaml:"targets" mapstructure:"targets"`
}

// Target is a parameter scaled by a group. An inverse target is divided by
// the scale factor instead of multiplied.
type Target struct {
	Field   string `yaml:"field" mapstructure:"field"`
	Inverse bool   `yaml:"inverse,omitempty" mapstructure:"inverse"`
}

// Enabled reports whether any variable group is configured.
func (s *SweepConfig) Enabled() bool {
	return s != nil && len(s.Groups) > 0
}

// CanonicalSweepMetric returns the canonical identifier for a sweep metric.
func CanonicalSweepMetric(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "total_assets", "totalassets", "total-assets", "assets":
		return SweepMetricTotalAssets
	case "cash_flow", "cashflow", "cash-flow":
		return SweepMetricCashFlow
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (s *SweepConfig) Normalize() {
	if s == nil {
		return
	}
	s.Metric = CanonicalSweepMetric(s.Metric)

	if s.ScaleStart <= 0 {
		s.ScaleStart = constants.DefaultScaleStart
	}
	if s.ScaleEnd <= 0 {
		s.ScaleEnd = constants.DefaultScaleEnd
	}
	if s.ScaleStep <= 0 {
		s.ScaleStep = constants.DefaultScaleStep
	}

	if s.Volatility == 0 {
		s.Trials = 1
	} else if s.Trials <= 0 {
		s.Trials = constants.DefaultTrials
	}

	for i := range s.Groups {
		s.Groups[i].Name = strings.TrimSpace(s.Groups[i].Name)
		for j := range s.Groups[i].Targets {
			if name, err := CanonicalParameterName(s.Groups[i].Targets[j].Field); err == nil {
				s.Groups[i].Targets[j].Field = name
			}
		}
	}
}

// Validate returns an error when the sweep configuration is unsupported.
func (s *SweepConfig) Validate() error {
	if s == nil {
		return fmt.Errorf("sweep configuration cannot be nil")
	}

	s.Normalize()

	switch s.Metric {
	case SweepMetricTotalAssets, SweepMetricCashFlow:
		// supported metrics
	default:
		return fmt.Errorf("sweep metric %q is not supported", s.Metric)
	}
	if s.Volatility < 0 || s.Volatility >= constants.PercentageMultiplier {
		return fmt.Errorf("sweep volatility %.2f%% must be in [0, 100)", s.Volatility)
	}
	if s.ScaleStart > s.ScaleEnd {
		return fmt.Errorf("sweep scale start %.2f must not be greater than end %.2f", s.ScaleStart, s.ScaleEnd)
	}
	if count := s.factorCount(); count > constants.MaxScaleFactors {
		return fmt.Errorf("sweep scale grid has %.0f points, at most %d allowed", count, constants.MaxScaleFactors)
	}
	if s.Trials > constants.MaxSweepRuns {
		return fmt.Errorf("sweep trials %d exceed the limit of %d", s.Trials, constants.MaxSweepRuns)
	}
	if s.Workers < 0 {
		return fmt.Errorf("sweep workers %d must not be negative", s.Workers)
	}
	if s.MaxRuns < 0 {
		return fmt.Errorf("sweep maxRuns %d must not be negative", s.MaxRuns)
	}
	if s.MaxDuration < 0 {
		return fmt.Errorf("sweep maxDuration %s must not be negative", s.MaxDuration)
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("sweep requires at least one variable group")
	}

	if runs := s.TotalRuns(); runs > constants.MaxSweepRuns {
		return fmt.Errorf("sweep needs %d runs, at most %d allowed", runs, constants.MaxSweepRuns)
	}

	names := make(map[string]bool, len(s.Groups))
	for i, group := range s.Groups {
		if group.Name == "" {
			return fmt.Errorf("sweep group %d requires a name", i+1)
		}
		if names[group.Name] {
			return fmt.Errorf("sweep group %q is defined more than once", group.Name)
		}
		names[group.Name] = true
		if group.Name == constants.BenchmarkSeriesName && s.Benchmark {
			return fmt.Errorf("sweep group name %q is reserved for the benchmark series", group.Name)
		}
		if len(group.Targets) == 0 {
			return fmt.Errorf("sweep group %q requires at least one target", group.Name)
		}
		for _, target := range group.Targets {
			name, err := CanonicalParameterName(target.Field)
			if err != nil {
				return fmt.Errorf("sweep group %q: %w", group.Name, err)
			}
			if name == HorizonParameter {
				return fmt.Errorf("sweep group %q: the horizon cannot be swept", group.Name)
			}
		}
	}

	return nil
}

// factorCount returns the size of the scale grid as a float so oversized
// grids can be rejected before conversion.
func (s *SweepConfig) factorCount() float64 {
	if s.ScaleStep <= 0 || s.ScaleEnd < s.ScaleStart {
		return 0
	}
	return math.Floor((s.ScaleEnd-s.ScaleStart)/s.ScaleStep+1e-9) + 1
}

// FactorCount returns the number of points on the scale grid without
// building it. Callers must validate the configuration first.
func (s *SweepConfig) FactorCount() int {
	return int(s.factorCount())
}

// TotalRuns returns the number of simulations the sweep performs.
func (s *SweepConfig) TotalRuns() int {
	return len(s.Groups) * s.FactorCount() * s.Trials
}

// ScaleFactors returns the scale grid from start to end inclusive. Points
// are computed by index to avoid accumulating floating point error.
func (s *SweepConfig) ScaleFactors() []float64 {
	count := s.FactorCount()
	if count < 1 {
		return nil
	}
	factors := make([]float64, count)
	for i := range factors {
		factors[i] = s.ScaleStart + float64(i)*s.ScaleStep
	}
	return factors
}
