package finance

import (
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"github.com/iwvelando/rental-forecast/pkg/mathutil"
)

// Property is a single rental property held in a portfolio. Its rates are
// copied from the portfolio when it is bought and never change afterwards.
type Property struct {
	ID                  int     `json:"id"`
	Value               float64 `json:"value"`
	Owing               float64 `json:"owing"`
	Age                 int     `json:"age"` // months since purchase or last refinance
	Listed              bool    `json:"listed"`
	ListedTime          int     `json:"listedTime"`
	MonthlyMortgage     float64 `json:"monthlyMortgage"`
	MonthlyInterestRate float64 `json:"monthlyInterestRate"`
	MonthlyMarketRate   float64 `json:"monthlyMarketRate"`
}

// RefinanceResult describes the outcome of a refinance.
type RefinanceResult struct {
	Released      float64 // cash released by a home equity loan
	PriorAge      int
	MortgageDelta float64 // new payment minus old payment
}

// Equity returns the property value less the outstanding loan.
func (p *Property) Equity() float64 {
	return p.Value - p.Owing
}

// PrincipalPaid returns the principal portion of this month's payment.
func (p *Property) PrincipalPaid() float64 {
	return p.MonthlyMortgage - loans.CalculateInterestPayment(p.Owing, p.MonthlyInterestRate)
}

// AdvanceMonth ages the property by one month: the loan is paid down and the
// value grows with the market unless the property is listed, in which case
// its value is frozen and the listing ages instead.
func (p *Property) AdvanceMonth() {
	p.Age++
	if p.Owing > 0 {
		p.Owing = mathutil.Max(p.Owing-p.PrincipalPaid(), 0)
	}
	if p.Listed {
		p.ListedTime++
	} else {
		p.Value *= 1 + p.MonthlyMarketRate
	}
}

// Refinance renews the mortgage over a fresh amortization period at the
// property's rate and resets its age. With homeEquityLoan set the loan is
// first increased by a share of the equity, which is returned as released
// cash. Negative equity releases nothing.
func (p *Property) Refinance(homeEquityLoan bool) RefinanceResult {
	result := RefinanceResult{PriorAge: p.Age}
	startingMortgage := p.MonthlyMortgage
	p.Age = 0

	if homeEquityLoan {
		result.Released = mathutil.Max(p.Equity(), 0) * constants.HomeEquityReleaseFraction
		p.Owing += result.Released
	}
	p.MonthlyMortgage = loans.MonthlyMortgagePayment(p.Owing/constants.CostUnit, 0,
		p.MonthlyInterestRate, constants.RefinanceAmortizationYears)
	result.MortgageDelta = p.MonthlyMortgage - startingMortgage
	return result
}
