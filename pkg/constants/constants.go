// Package constants provides shared constants for the rental-forecast application.
package constants

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CostUnit is the multiplier applied to property costs, which are
	// configured in thousands of dollars.
	CostUnit = 1000.0
)

// Policy constants that are fixed rather than configured.
const (
	// HomeEquityReleaseFraction is the share of a property's equity a home
	// equity loan releases as cash.
	HomeEquityReleaseFraction = 0.8

	// RefinanceAmortizationYears is the amortization period applied to every
	// refinanced mortgage regardless of the configured amortization.
	RefinanceAmortizationYears = 25.0

	// DownPaymentStep is the increment, in percentage points, of the minimum
	// down payment search.
	DownPaymentStep = 1.0

	// MaxDownPayment is the largest down payment percentage ever considered.
	MaxDownPayment = 100.0

	// SummaryInterval is how often, in months, a continuous run emits an
	// extra summary ahead of the month's tick.
	SummaryInterval = 12

	// MaxHorizonMonths is the longest horizon a simulation accepts.
	MaxHorizonMonths = 1200
)

// Sweep defaults
const (
	// DefaultScaleStart is the smallest scale factor applied to a swept variable.
	DefaultScaleStart = 0.50

	// DefaultScaleEnd is the largest scale factor applied to a swept variable.
	DefaultScaleEnd = 1.95

	// DefaultScaleStep is the distance between consecutive scale factors.
	DefaultScaleStep = 0.05

	// DefaultTrials is the number of perturbed runs averaged per scale factor
	// when volatility is non-zero.
	DefaultTrials = 5

	// MaxScaleFactors bounds the number of points on a sweep's scale grid.
	MaxScaleFactors = 1000

	// MaxSweepRuns bounds the simulations of one sweep regardless of its
	// configured budget.
	MaxSweepRuns = 1_000_000

	// BenchmarkSeriesName labels the market-only benchmark series.
	BenchmarkSeriesName = "benchmark"
)

// Sweep metrics
const (
	// MetricTotalAssets selects cash + equity + emergency fund at the horizon.
	MetricTotalAssets = "total_assets"

	// MetricCashFlow selects the monthly rental cash flow at the horizon.
	MetricCashFlow = "cash_flow"
)

// Run modes for the CLI
const (
	// ModeHorizon runs once to the horizon and prints every month.
	ModeHorizon = "horizon"

	// ModeContinuous runs repeatedly, reseeding between runs.
	ModeContinuous = "continuous"

	// ModeSweep runs the sensitivity sweep.
	ModeSweep = "sweep"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)
