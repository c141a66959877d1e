package config

import (
	"fmt"

	"github.com/iwvelando/rental-forecast/pkg/finance"
)

// Patch replaces a single parameter value between runs.
type Patch struct {
	Field string  `yaml:"field" mapstructure:"field" json:"field"`
	Value float64 `yaml:"value" mapstructure:"value" json:"value"`
}

// ApplyPatches returns a copy of base with every patch applied. Unknown
// field names are rejected with ErrUnknownParameter and the result is
// revalidated, so a failed patch set leaves the caller's parameters as they
// were.
func ApplyPatches(base finance.Parameters, patches []Patch) (finance.Parameters, error) {
	patched := base
	for _, patch := range patches {
		if err := SetParameter(&patched, patch.Field, patch.Value); err != nil {
			return base, fmt.Errorf("failed to apply patch: %w", err)
		}
	}
	if err := ValidateParameters(patched); err != nil {
		return base, fmt.Errorf("patched parameters are invalid: %w", err)
	}
	return patched, nil
}
