// Package loans provides rate conversion and mortgage payment calculations
// shared by the simulation.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/mathutil"
)

// DomainError reports an input outside the domain of a rate calculation.
type DomainError struct {
	Op    string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: value %v is outside the valid domain", e.Op, e.Value)
}

// Payment holds the values for a given payment.
type Payment struct {
	Period             int
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// AnnualToMonthlyRate converts an annual percentage rate into the equivalent
// compound monthly rate, expressed as a fraction. Twelve months compounded at
// the returned rate reproduce the annual rate.
func AnnualToMonthlyRate(annualPercent float64) (float64, error) {
	base := 1 + annualPercent/constants.PercentageMultiplier
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return 0, &DomainError{Op: "loans.AnnualToMonthlyRate", Value: annualPercent}
	}
	return math.Pow(10, math.Log10(base)/constants.MonthsPerYear) - 1, nil
}

// MonthlyMortgagePayment calculates the fixed monthly payment amortizing a
// property bought for costThousands (in thousands of dollars) with
// downPercent down over amortizationYears at monthlyRate.
func MonthlyMortgagePayment(costThousands, downPercent, monthlyRate, amortizationYears float64) float64 {
	principal := costThousands * constants.CostUnit * (1 - downPercent/constants.PercentageMultiplier)
	periods := amortizationYears * constants.MonthsPerYear
	if periods <= 0 {
		return principal
	}
	if monthlyRate == 0 {
		return principal / periods
	}

	power := math.Pow(1+monthlyRate, periods)
	return principal * monthlyRate * power / (power - 1)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, monthlyRate float64) float64 {
	return remainingPrincipal * monthlyRate
}

// DebtToIncomeRatio returns monthly debt as a percentage of monthly income,
// or 0 when there is no income.
func DebtToIncomeRatio(monthlyDebt, monthlyIncome float64) float64 {
	return mathutil.CalculatePercentage(monthlyDebt, monthlyIncome)
}

// AmortizationSchedule produces the payment breakdown of a loan repaid by a
// fixed payment at monthlyRate over the given number of periods.
func AmortizationSchedule(principal, monthlyRate, payment float64, periods int) []Payment {
	schedule := make([]Payment, 0, periods)
	remaining := principal
	for period := 1; period <= periods; period++ {
		interest := CalculateInterestPayment(remaining, monthlyRate)
		paid := payment - interest
		remaining -= paid
		schedule = append(schedule, Payment{
			Period:             period,
			Payment:            payment,
			Principal:          paid,
			Interest:           interest,
			RemainingPrincipal: remaining,
		})
	}
	return schedule
}

// PayoffPeriod returns the first period whose remaining principal rounds to
// zero, or 0 if the schedule never pays the loan off.
func PayoffPeriod(schedule []Payment) int {
	for _, payment := range schedule {
		if mathutil.IsZero(payment.RemainingPrincipal) || payment.RemainingPrincipal < 0 {
			return payment.Period
		}
	}
	return 0
}
