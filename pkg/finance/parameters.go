// Package finance implements the rental property portfolio simulation: the
// properties held, the monthly decision policy and the summary metrics.
package finance

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"github.com/iwvelando/rental-forecast/pkg/mathutil"
)

// Parameters holds every policy input of a simulation run. Values are fixed
// for the duration of a run.
type Parameters struct {
	HoldTime     float64 `json:"holdTime" yaml:"holdTime"`         // years before a property is listed
	Safety       float64 `json:"safety" yaml:"safety"`             // months of expenses reserved per purchase
	Additions    float64 `json:"additions" yaml:"additions"`       // cash added every month
	Expenses     float64 `json:"expenses" yaml:"expenses"`         // personal monthly expenses
	Income       float64 `json:"income" yaml:"income"`             // personal annual income
	Cost         float64 `json:"cost" yaml:"cost"`                 // property cost in thousands
	Down         float64 `json:"down" yaml:"down"`                 // minimum down payment percent
	Amortization float64 `json:"amortization" yaml:"amortization"` // years
	Rent         float64 `json:"rent" yaml:"rent"`                 // monthly rent per property
	Tax          float64 `json:"tax" yaml:"tax"`                   // annual
	Management   float64 `json:"management" yaml:"management"`     // annual
	Repairs      float64 `json:"repairs" yaml:"repairs"`           // annual
	Insurance    float64 `json:"insurance" yaml:"insurance"`       // annual
	Interest     float64 `json:"interest" yaml:"interest"`         // annual percent
	Market       float64 `json:"market" yaml:"market"`             // annual percent
	Growth       float64 `json:"growth" yaml:"growth"`             // annual percent
	Occupancy    float64 `json:"occupancy" yaml:"occupancy"`       // percent
	TimeToSell   float64 `json:"time" yaml:"time"`                 // months listed before a sale
	MaxDTI       float64 `json:"maxDTI" yaml:"maxDTI"`             // percent
	Term         float64 `json:"term" yaml:"term"`                 // mortgage fixed-rate term in years
	Months       float64 `json:"months" yaml:"months"`             // simulation horizon
}

// ErrHorizonTooLong is returned for horizons beyond constants.MaxHorizonMonths.
var ErrHorizonTooLong = errors.New("horizon too long")

// RateError reports which annual rate could not be converted.
type RateError struct {
	Rate string // interest, growth or market
	Err  error
}

func (e *RateError) Error() string {
	return fmt.Sprintf("%s rate: %v", e.Rate, e.Err)
}

func (e *RateError) Unwrap() error {
	return e.Err
}

// Rates holds the monthly equivalents of the annual rates in Parameters.
type Rates struct {
	Interest float64
	Growth   float64
	Market   float64
}

// MonthlyRates converts the annual interest, growth and market rates.
func (p Parameters) MonthlyRates() (Rates, error) {
	var rates Rates
	var err error
	if rates.Interest, err = loans.AnnualToMonthlyRate(p.Interest); err != nil {
		return Rates{}, &RateError{Rate: "interest", Err: err}
	}
	if rates.Growth, err = loans.AnnualToMonthlyRate(p.Growth); err != nil {
		return Rates{}, &RateError{Rate: "growth", Err: err}
	}
	if rates.Market, err = loans.AnnualToMonthlyRate(p.Market); err != nil {
		return Rates{}, &RateError{Rate: "market", Err: err}
	}
	return rates, nil
}

// CheckHorizon returns ErrHorizonTooLong when Months exceeds
// constants.MaxHorizonMonths.
func (p Parameters) CheckHorizon() error {
	if p.Months > constants.MaxHorizonMonths {
		return fmt.Errorf("%w: %.0f months, at most %d allowed", ErrHorizonTooLong, p.Months, constants.MaxHorizonMonths)
	}
	return nil
}

// Horizon returns the number of the last simulated month.
func (p Parameters) Horizon() int {
	return int(math.Round(p.Months))
}

// HoldMonths is the age at which an unlisted property is listed for sale.
func (p Parameters) HoldMonths() float64 {
	return p.HoldTime * constants.MonthsPerYear
}

// TermMonths is the age at which an unlisted property is refinanced.
func (p Parameters) TermMonths() float64 {
	return p.Term * constants.MonthsPerYear
}

// FixedMonthlyCosts returns the monthly tax, insurance, repairs and
// management carried by every property.
func (p Parameters) FixedMonthlyCosts() float64 {
	return (p.Tax + p.Insurance + p.Repairs + p.Management) / constants.MonthsPerYear
}

// ExpenseLoad returns the full monthly cost of a property with the given
// mortgage payment.
func (p Parameters) ExpenseLoad(monthlyMortgage float64) float64 {
	return p.FixedMonthlyCosts() + monthlyMortgage
}

// ExpectedRent returns the occupancy-adjusted monthly rent of one property.
func (p Parameters) ExpectedRent() float64 {
	return mathutil.ApplyPercentage(p.Rent, p.Occupancy)
}

// MonthlyIncome returns the personal income per month.
func (p Parameters) MonthlyIncome() float64 {
	return p.Income / constants.MonthsPerYear
}

// PurchasePrice returns the price of a property in dollars.
func (p Parameters) PurchasePrice() float64 {
	return p.Cost * constants.CostUnit
}
