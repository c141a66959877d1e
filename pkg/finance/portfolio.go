package finance

import (
	"fmt"
	"math"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"github.com/iwvelando/rental-forecast/pkg/mathutil"
	"go.uber.org/zap"
)

// Portfolio is the state of a simulation run: the properties held plus cash,
// emergency fund and debt-to-income aggregates. It is not safe for
// concurrent use; parallel runs each own a Portfolio.
type Portfolio struct {
	logger *zap.Logger
	params Parameters
	rates  Rates

	properties    []*Property
	cash          float64
	emergencyFund float64
	dti           float64
	month         int
	nextID        int
}

// NewPortfolio creates an empty portfolio for the given parameters.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewPortfolio(logger *zap.Logger, params Parameters) (*Portfolio, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Portfolio{logger: logger}
	if err := p.Reset(params); err != nil {
		return nil, err
	}
	return p, nil
}

// Reset discards every property and aggregate and starts over at month 0
// with the given parameters.
func (p *Portfolio) Reset(params Parameters) error {
	if err := params.CheckHorizon(); err != nil {
		return err
	}
	rates, err := params.MonthlyRates()
	if err != nil {
		return fmt.Errorf("failed to derive monthly rates: %w", err)
	}
	p.params = params
	p.rates = rates
	p.properties = nil
	p.cash = 0
	p.emergencyFund = 0
	p.dti = 0
	p.month = 0
	p.nextID = 0
	return nil
}

// Parameters returns the parameters of the current run.
func (p *Portfolio) Parameters() Parameters { return p.params }

// Rates returns the monthly rates of the current run.
func (p *Portfolio) Rates() Rates { return p.rates }

// Month returns the month the next Tick simulates.
func (p *Portfolio) Month() int { return p.month }

// Cash returns the liquid cash, which may be negative.
func (p *Portfolio) Cash() float64 { return p.cash }

// EmergencyFund returns the accumulated safety reserve.
func (p *Portfolio) EmergencyFund() float64 { return p.emergencyFund }

// DTI returns the debt-to-income ratio computed at the end of the last tick.
func (p *Portfolio) DTI() float64 { return p.dti }

// Properties returns a copy of the held properties in acquisition order.
func (p *Portfolio) Properties() []Property {
	out := make([]Property, len(p.properties))
	for i, prop := range p.properties {
		out[i] = *prop
	}
	return out
}

// Tick simulates the current month and advances to the next one. Decisions
// run in a fixed order: sell, refinance, buy, then every property ages, cash
// settles, the reserve grows and the debt-to-income ratio is recomputed.
func (p *Portfolio) Tick() TickResult {
	var actions []Action
	actions = append(actions, p.trySell()...)
	actions = append(actions, p.tryRefinance()...)
	if action, ok := p.tryBuy(); ok {
		actions = append(actions, action)
	}

	for _, prop := range p.properties {
		prop.AdvanceMonth()
	}

	p.cash += p.params.Additions
	p.cash -= p.totalExpenseLoad()
	p.cash += p.params.ExpectedRent() * float64(p.unlistedCount())
	p.cash *= 1 + p.rates.Growth
	p.emergencyFund *= 1 + p.rates.Growth

	p.dti = loans.DebtToIncomeRatio(p.currentDebt(), p.currentIncome())

	result := TickResult{Month: p.month, Actions: actions, Summary: p.Summary()}
	p.month++
	return result
}

// Summary reports the current state of the portfolio.
func (p *Portfolio) Summary() Summary {
	equity := p.totalEquity()
	revenue := p.revenue()
	debt := p.totalExpenseLoad()
	return Summary{
		Month:         p.month,
		Properties:    len(p.properties),
		Cash:          p.cash,
		Equity:        equity,
		EmergencyFund: p.emergencyFund,
		TotalAssets:   p.cash + equity + p.emergencyFund,
		DTI:           p.dti,
		Revenue:       revenue,
		Debt:          debt,
		CashFlow:      revenue - debt,
	}
}

// Results returns the total assets and the monthly rental cash flow.
func (p *Portfolio) Results() Outcome {
	return Outcome{
		TotalAssets: p.cash + p.totalEquity() + p.emergencyFund,
		CashFlow:    p.revenue() - p.totalExpenseLoad(),
	}
}

// trySell lists properties held past the hold time and sells properties
// listed for long enough. Sold properties are removed after the pass.
func (p *Portfolio) trySell() []Action {
	var actions []Action
	sold := make(map[int]bool)
	for i, prop := range p.properties {
		if !prop.Listed && float64(prop.Age) >= p.params.HoldMonths() {
			prop.Listed = true
			prop.ListedTime = 0
			actions = append(actions, Action{
				Kind:       ActionList,
				Month:      p.month,
				PropertyID: prop.ID,
				Age:        prop.Age,
				Amount:     prop.Value,
			})
			p.logger.Debug(fmt.Sprintf("month %d: list %d month old property for %.2f", p.month, prop.Age, prop.Value),
				zap.String("op", "finance.Portfolio.trySell"),
			)
		}
		if prop.Listed && float64(prop.ListedTime) >= p.params.TimeToSell {
			equity := prop.Equity()
			p.cash += equity
			sold[i] = true
			actions = append(actions, Action{
				Kind:       ActionSell,
				Month:      p.month,
				PropertyID: prop.ID,
				Age:        prop.Age,
				Amount:     prop.Value,
				CashChange: equity,
			})
			p.logger.Debug(fmt.Sprintf("month %d: sell %d month old property for %.2f", p.month, prop.Age, prop.Value),
				zap.String("op", "finance.Portfolio.trySell"),
				zap.Float64("equity", equity),
			)
		}
	}

	if len(sold) > 0 {
		kept := make([]*Property, 0, len(p.properties)-len(sold))
		for i, prop := range p.properties {
			if !sold[i] {
				kept = append(kept, prop)
			}
		}
		p.properties = kept
	}
	return actions
}

// tryRefinance renews every unlisted property held past the mortgage term,
// taking a home equity loan when the released cash would fund another
// purchase.
func (p *Portfolio) tryRefinance() []Action {
	var actions []Action
	for _, prop := range p.properties {
		if prop.Listed || float64(prop.Age) < p.params.TermMonths() {
			continue
		}

		if p.shouldDoHomeEquityLoan(prop) {
			result := prop.Refinance(true)
			p.cash += result.Released
			actions = append(actions, Action{
				Kind:          ActionHomeEquityLoan,
				Month:         p.month,
				PropertyID:    prop.ID,
				Age:           result.PriorAge,
				Amount:        result.Released,
				CashChange:    result.Released,
				MortgageDelta: result.MortgageDelta,
			})
			p.logger.Debug(fmt.Sprintf("month %d: release %.2f from %d month old property in home equity loan",
				p.month, result.Released, result.PriorAge),
				zap.String("op", "finance.Portfolio.tryRefinance"),
				zap.Float64("mortgageDelta", result.MortgageDelta),
			)
			continue
		}

		result := prop.Refinance(false)
		actions = append(actions, Action{
			Kind:          ActionRefinance,
			Month:         p.month,
			PropertyID:    prop.ID,
			Age:           result.PriorAge,
			MortgageDelta: result.MortgageDelta,
		})
		p.logger.Debug(fmt.Sprintf("month %d: refinance %d month old property", p.month, result.PriorAge),
			zap.String("op", "finance.Portfolio.tryRefinance"),
			zap.Float64("mortgageDelta", result.MortgageDelta),
		)
	}
	return actions
}

// tryBuy purchases at most one property at the smallest down payment that
// keeps the debt-to-income ratio under the maximum, provided the cash covers
// the down payment and the safety reserve.
func (p *Portfolio) tryBuy() (Action, bool) {
	down, mortgage, ok := p.MinimumDown(p.currentDebt(), p.currentIncome())
	if !ok || !p.CanAfford(mortgage, down, 0) {
		return Action{}, false
	}

	price := p.params.PurchasePrice()
	prop := &Property{
		ID:                  p.nextID,
		Value:               price,
		Owing:               price * (1 - down/constants.PercentageMultiplier),
		MonthlyMortgage:     mortgage,
		MonthlyInterestRate: p.rates.Interest,
		MonthlyMarketRate:   p.rates.Market,
	}
	p.nextID++
	p.properties = append(p.properties, prop)

	downPayment := mathutil.ApplyPercentage(price, down)
	reserve := p.params.ExpenseLoad(mortgage) * p.params.Safety
	p.cash -= downPayment + reserve
	p.emergencyFund += reserve

	p.logger.Debug(fmt.Sprintf("month %d: purchase %.2f property at %.0f%% down", p.month, price, down),
		zap.String("op", "finance.Portfolio.tryBuy"),
		zap.Float64("reserve", reserve),
		zap.Float64("monthlyMortgage", mortgage),
	)

	return Action{
		Kind:        ActionPurchase,
		Month:       p.month,
		PropertyID:  prop.ID,
		Amount:      price,
		CashChange:  -(downPayment + reserve),
		DownPercent: down,
	}, true
}

// MinimumDown searches upward from the configured down payment, one
// percentage point at a time, for the smallest down payment whose purchase
// keeps the debt-to-income ratio at or below the maximum. It returns the down
// payment percent and resulting mortgage payment, or ok == false when even a
// full cash purchase would exceed the maximum.
func (p *Portfolio) MinimumDown(monthlyDebt, monthlyIncome float64) (down, mortgage float64, ok bool) {
	for down = p.params.Down; down <= constants.MaxDownPayment; down += constants.DownPaymentStep {
		mortgage = loans.MonthlyMortgagePayment(p.params.Cost, down, p.rates.Interest, p.params.Amortization)
		if p.potentialDTI(monthlyDebt, monthlyIncome, mortgage) <= p.params.MaxDTI {
			return down, mortgage, true
		}
	}
	return 0, 0, false
}

// CanAfford reports whether cash plus extra covers the down payment and
// the safety reserve of a property with the given mortgage payment.
func (p *Portfolio) CanAfford(monthlyMortgage, down, extra float64) bool {
	required := mathutil.ApplyPercentage(p.params.PurchasePrice(), down) +
		p.params.ExpenseLoad(monthlyMortgage)*p.params.Safety
	return p.cash+extra >= required
}

// shouldDoHomeEquityLoan reports whether the cash released by a home equity
// loan on prop would fund another purchase while the ratio stays in bounds.
func (p *Portfolio) shouldDoHomeEquityLoan(prop *Property) bool {
	equity := prop.Equity()
	if equity <= 0 || math.IsNaN(equity) {
		return false
	}
	released := equity * constants.HomeEquityReleaseFraction
	loanPayment := loans.MonthlyMortgagePayment(released/constants.CostUnit, 0,
		prop.MonthlyInterestRate, p.params.Amortization)

	down, mortgage, ok := p.MinimumDown(p.currentDebt()+loanPayment, p.currentIncome())
	return ok && p.CanAfford(mortgage, down, released)
}

// potentialDTI is the ratio that would result from buying one more property
// with the given mortgage payment.
func (p *Portfolio) potentialDTI(monthlyDebt, monthlyIncome, mortgage float64) float64 {
	return loans.DebtToIncomeRatio(
		monthlyDebt+p.params.ExpenseLoad(mortgage),
		monthlyIncome+p.params.ExpectedRent(),
	)
}

// currentDebt is the monthly debt counted against income: every property's
// full expense load plus personal expenses.
func (p *Portfolio) currentDebt() float64 {
	return p.totalExpenseLoad() + p.params.Expenses
}

// currentIncome is the expected rent of every held property plus personal
// income.
func (p *Portfolio) currentIncome() float64 {
	return p.revenue() + p.params.MonthlyIncome()
}

func (p *Portfolio) totalExpenseLoad() float64 {
	total := 0.0
	for _, prop := range p.properties {
		total += p.params.ExpenseLoad(prop.MonthlyMortgage)
	}
	return total
}

func (p *Portfolio) revenue() float64 {
	return p.params.ExpectedRent() * float64(len(p.properties))
}

func (p *Portfolio) totalEquity() float64 {
	total := 0.0
	for _, prop := range p.properties {
		total += prop.Equity()
	}
	return total
}

func (p *Portfolio) unlistedCount() int {
	n := 0
	for _, prop := range p.properties {
		if !prop.Listed {
			n++
		}
	}
	return n
}
