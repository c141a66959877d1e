// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/format"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"github.com/iwvelando/rental-forecast/pkg/mathutil"
)

// ValidatePayoff checks whether a purchase at the minimum down payment is
// paid off before the property is listed.
func ValidatePayoff(p finance.Parameters) (string, error) {
	rate, err := loans.AnnualToMonthlyRate(p.Interest)
	if err != nil {
		return "", err
	}

	periods := int(math.Round(p.Amortization * constants.MonthsPerYear))
	if periods <= 0 {
		return "", nil
	}
	principal := p.PurchasePrice() * (1 - p.Down/constants.PercentageMultiplier)
	payment := loans.MonthlyMortgagePayment(p.Cost, p.Down, rate, p.Amortization)
	payoff := loans.PayoffPeriod(loans.AmortizationSchedule(principal, rate, payment, periods))

	if payoff > 0 && float64(payoff) < p.HoldMonths() {
		return fmt.Sprintf("Mortgage at %.0f%% down is paid off after %d months, before properties are listed at %.0f months",
			p.Down, payoff, p.HoldMonths()), nil
	}
	return "", nil
}

// ValidateHorizon checks that a property bought in the first month can be
// listed and sold within the horizon.
func ValidateHorizon(p finance.Parameters) string {
	cycle := p.HoldMonths() + p.TimeToSell
	if float64(p.Horizon()) < cycle {
		return fmt.Sprintf("Horizon of %d months is shorter than the %.0f month hold and sale cycle, no property will be sold",
			p.Horizon(), cycle)
	}
	return ""
}

// ValidateCashFlow checks that a property bought at the minimum down
// payment earns more rent than it costs.
func ValidateCashFlow(p finance.Parameters) (string, error) {
	rate, err := loans.AnnualToMonthlyRate(p.Interest)
	if err != nil {
		return "", err
	}
	mortgage := loans.MonthlyMortgagePayment(p.Cost, p.Down, rate, p.Amortization)
	net := p.ExpectedRent() - p.ExpenseLoad(mortgage)
	if net < 0 {
		return fmt.Sprintf("Each property loses %s per month at %.0f%% down", format.Currency(-net), p.Down), nil
	}
	return "", nil
}

// ValidateFirstPurchase checks that the monthly additions can fund a first
// purchase within the horizon.
func ValidateFirstPurchase(p finance.Parameters) (string, error) {
	rate, err := loans.AnnualToMonthlyRate(p.Interest)
	if err != nil {
		return "", err
	}
	mortgage := loans.MonthlyMortgagePayment(p.Cost, p.Down, rate, p.Amortization)
	required := mathutil.ApplyPercentage(p.PurchasePrice(), p.Down) + p.ExpenseLoad(mortgage)*p.Safety
	saved := p.Additions * float64(p.Horizon()+1)
	if saved < required {
		return fmt.Sprintf("Additions of %s per month never reach the %s needed for a first purchase",
			format.Currency(p.Additions), format.Currency(required)), nil
	}
	return "", nil
}

// ParameterValidator validates a parameter set as a whole.
type ParameterValidator struct {
	Parameters finance.Parameters
}

// ValidateAll validates the parameters and returns warnings
func (pv *ParameterValidator) ValidateAll() []string {
	var warnings []string
	p := pv.Parameters

	if warning, err := ValidatePayoff(p); err == nil && warning != "" {
		warnings = append(warnings, warning)
	}
	if warning := ValidateHorizon(p); warning != "" {
		warnings = append(warnings, warning)
	}
	if warning, err := ValidateCashFlow(p); err == nil && warning != "" {
		warnings = append(warnings, warning)
	}
	if warning, err := ValidateFirstPurchase(p); err == nil && warning != "" {
		warnings = append(warnings, warning)
	}

	return warnings
}
