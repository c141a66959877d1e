// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/rental-forecast/internal/sweep"
	"github.com/iwvelando/rental-forecast/pkg/finance"
)

// DefaultParameters returns the baseline scenario shipped in
// config.yaml.example with the given horizon.
func DefaultParameters(months float64) finance.Parameters {
	return finance.Parameters{
		HoldTime:     5,
		Safety:       6,
		Additions:    2000,
		Expenses:     1000,
		Income:       60000,
		Cost:         240,
		Down:         20,
		Amortization: 25,
		Rent:         2400,
		Tax:          2400,
		Management:   2400,
		Repairs:      2400,
		Insurance:    1200,
		Interest:     2,
		Market:       2,
		Growth:       8,
		Occupancy:    92,
		TimeToSell:   6,
		MaxDTI:       45,
		Term:         5,
		Months:       months,
	}
}

// FindSeries finds a series by name in a sweep result.
// Returns a pointer to the series if found, nil otherwise.
func FindSeries(series []sweep.Series, name string) *sweep.Series {
	for i := range series {
		if series[i].Name == name {
			return &series[i]
		}
	}
	return nil
}

// CountActions returns how many actions of the given kind occurred.
func CountActions(actions []finance.Action, kind finance.ActionKind) int {
	n := 0
	for _, action := range actions {
		if action.Kind == kind {
			n++
		}
	}
	return n
}
