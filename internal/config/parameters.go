package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/spf13/cast"
)

// ErrUnknownParameter is returned when a name does not match any parameter.
var ErrUnknownParameter = errors.New("unknown parameter")

// ConfigurationError reports a parameter that is missing, not numeric or
// outside its valid domain.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parameter %q: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("parameter %q: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type parameterField struct {
	name string
	ref  func(*finance.Parameters) *float64
}

// parameterFields lists every recognized parameter under its configuration
// name.
var parameterFields = []parameterField{
	{"holdTime", func(p *finance.Parameters) *float64 { return &p.HoldTime }},
	{"safety", func(p *finance.Parameters) *float64 { return &p.Safety }},
	{"additions", func(p *finance.Parameters) *float64 { return &p.Additions }},
	{"expenses", func(p *finance.Parameters) *float64 { return &p.Expenses }},
	{"income", func(p *finance.Parameters) *float64 { return &p.Income }},
	{"cost", func(p *finance.Parameters) *float64 { return &p.Cost }},
	{"down", func(p *finance.Parameters) *float64 { return &p.Down }},
	{"amortization", func(p *finance.Parameters) *float64 { return &p.Amortization }},
	{"rent", func(p *finance.Parameters) *float64 { return &p.Rent }},
	{"tax", func(p *finance.Parameters) *float64 { return &p.Tax }},
	{"management", func(p *finance.Parameters) *float64 { return &p.Management }},
	{"repairs", func(p *finance.Parameters) *float64 { return &p.Repairs }},
	{"insurance", func(p *finance.Parameters) *float64 { return &p.Insurance }},
	{"interest", func(p *finance.Parameters) *float64 { return &p.Interest }},
	{"market", func(p *finance.Parameters) *float64 { return &p.Market }},
	{"growth", func(p *finance.Parameters) *float64 { return &p.Growth }},
	{"occupancy", func(p *finance.Parameters) *float64 { return &p.Occupancy }},
	{"time", func(p *finance.Parameters) *float64 { return &p.TimeToSell }},
	{"maxDTI", func(p *finance.Parameters) *float64 { return &p.MaxDTI }},
	{"term", func(p *finance.Parameters) *float64 { return &p.Term }},
	{HorizonParameter, func(p *finance.Parameters) *float64 { return &p.Months }},
}

// HorizonParameter names the simulation horizon, which sweeps never perturb.
const HorizonParameter = "months"

func lookupField(name string) (parameterField, bool) {
	trimmed := strings.TrimSpace(name)
	for _, field := range parameterFields {
		if strings.EqualFold(field.name, trimmed) {
			return field, true
		}
	}
	return parameterField{}, false
}

// CanonicalParameterName returns the configuration spelling of name, matched
// case-insensitively.
func CanonicalParameterName(name string) (string, error) {
	field, ok := lookupField(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return field.name, nil
}

// ParameterNames returns every recognized parameter name in declaration order.
func ParameterNames() []string {
	names := make([]string, len(parameterFields))
	for i, field := range parameterFields {
		names[i] = field.name
	}
	return names
}

// GetParameter returns the value of the named parameter.
func GetParameter(p finance.Parameters, name string) (float64, error) {
	field, ok := lookupField(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return *field.ref(&p), nil
}

// SetParameter sets the named parameter on p without validating the result.
func SetParameter(p *finance.Parameters, name string, value float64) error {
	field, ok := lookupField(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	*field.ref(p) = value
	return nil
}

// ParseParameters builds Parameters from a raw key/value map. Every
// parameter is required, keys are matched case-insensitively and values
// must coerce to finite numbers.
func ParseParameters(raw map[string]interface{}) (finance.Parameters, error) {
	var params finance.Parameters

	seen := make(map[string]bool, len(raw))
	for key, value := range raw {
		field, ok := lookupField(key)
		if !ok {
			return finance.Parameters{}, &ConfigurationError{Field: key, Reason: "not a recognized parameter", Err: ErrUnknownParameter}
		}
		if _, ok := value.(bool); ok {
			return finance.Parameters{}, &ConfigurationError{Field: field.name, Reason: "value is not numeric", Err: fmt.Errorf("unexpected boolean %v", value)}
		}
		number, err := cast.ToFloat64E(value)
		if err != nil {
			return finance.Parameters{}, &ConfigurationError{Field: field.name, Reason: "value is not numeric", Err: err}
		}
		*field.ref(&params) = number
		seen[field.name] = true
	}

	var missing []string
	for _, field := range parameterFields {
		if !seen[field.name] {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return finance.Parameters{}, &ConfigurationError{
			Field:  missing[0],
			Reason: fmt.Sprintf("missing required parameter (missing: %s)", strings.Join(missing, ", ")),
		}
	}

	if err := ValidateParameters(params); err != nil {
		return finance.Parameters{}, err
	}
	return params, nil
}

// ValidateParameters checks the values a simulation cannot run with.
func ValidateParameters(p finance.Parameters) error {
	for _, field := range parameterFields {
		value := *field.ref(&p)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return &ConfigurationError{Field: field.name, Reason: "value must be finite"}
		}
	}

	if _, err := p.MonthlyRates(); err != nil {
		field := "rate"
		var rateErr *finance.RateError
		if errors.As(err, &rateErr) {
			field = rateErr.Rate
		}
		return &ConfigurationError{Field: field, Reason: "rate outside valid domain", Err: err}
	}
	if p.Months < 0 {
		return &ConfigurationError{Field: HorizonParameter, Reason: "horizon must not be negative"}
	}
	if err := p.CheckHorizon(); err != nil {
		return &ConfigurationError{Field: HorizonParameter, Reason: fmt.Sprintf("horizon must not exceed %d months", constants.MaxHorizonMonths), Err: err}
	}
	if p.Down < 0 {
		return &ConfigurationError{Field: "down", Reason: "down payment must not be negative"}
	}
	return nil
}
