package finance

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/rental-forecast/pkg/loans"
	"go.uber.org/zap"
)

// defaultParameters mirrors the example scenario shipped in config.yaml.example.
func defaultParameters() Parameters {
	return Parameters{
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
		Months:       300,
	}
}

func newTestPortfolio(t *testing.T, params Parameters) *Portfolio {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	p, err := NewPortfolio(logger, params)
	if err != nil {
		t.Fatalf("NewPortfolio() error = %v", err)
	}
	return p
}

func (p *Portfolio) addTestProperty(prop Property) *Property {
	prop.ID = p.nextID
	if prop.MonthlyInterestRate == 0 {
		prop.MonthlyInterestRate = p.rates.Interest
	}
	if prop.MonthlyMarketRate == 0 {
		prop.MonthlyMarketRate = p.rates.Market
	}
	p.nextID++
	stored := &prop
	p.properties = append(p.properties, stored)
	return stored
}

func TestNewPortfolioRejectsBadRates(t *testing.T) {
	params := defaultParameters()
	params.Growth = -100

	if _, err := NewPortfolio(nil, params); err == nil {
		t.Fatal("NewPortfolio() expected error for a -100% growth rate")
	}
}

func TestTickEmptyPortfolioCannotAfford(t *testing.T) {
	p := newTestPortfolio(t, defaultParameters())

	// With no properties the minimum 20% down keeps the ratio near 34.9%,
	// well under 45%, but $0 of cash cannot cover the $48,000 down payment.
	down, _, ok := p.MinimumDown(p.currentDebt(), p.currentIncome())
	if !ok || down != 20 {
		t.Fatalf("MinimumDown() = %v, %v; expected 20%% to be feasible", down, ok)
	}

	result := p.Tick()

	if len(result.Actions) != 0 {
		t.Errorf("expected no actions, got %+v", result.Actions)
	}
	expectedCash := 2000 * (1 + p.rates.Growth)
	if math.Abs(p.Cash()-expectedCash) > 1e-9 {
		t.Errorf("Cash() = %.6f, expected %.6f", p.Cash(), expectedCash)
	}
	if p.Month() != 1 {
		t.Errorf("Month() = %d, expected 1", p.Month())
	}
	if result.Summary.Month != 0 {
		t.Errorf("Summary.Month = %d, expected the simulated month 0", result.Summary.Month)
	}
	if p.DTI() != 20 {
		t.Errorf("DTI() = %v, expected 1000/5000 = 20", p.DTI())
	}
}

func TestMinimumDownInfeasibleWithoutIncome(t *testing.T) {
	params := defaultParameters()
	params.Income = 0
	p := newTestPortfolio(t, params)
	p.cash = 1e7

	if _, _, ok := p.MinimumDown(p.currentDebt(), p.currentIncome()); ok {
		t.Fatal("MinimumDown() expected no feasible down payment without personal income")
	}

	result := p.Tick()
	for _, action := range result.Actions {
		if action.Kind == ActionPurchase {
			t.Errorf("unexpected purchase %+v", action)
		}
	}
}

func TestMinimumDownRaisesDownPayment(t *testing.T) {
	params := defaultParameters()
	params.MaxDTI = 30
	p := newTestPortfolio(t, params)

	down, mortgage, ok := p.MinimumDown(p.currentDebt(), p.currentIncome())
	if !ok {
		t.Fatal("MinimumDown() expected a feasible down payment")
	}
	if down != 55 {
		t.Errorf("down = %v, expected 55", down)
	}
	if dti := p.potentialDTI(p.currentDebt(), p.currentIncome(), mortgage); dti > params.MaxDTI {
		t.Errorf("potential DTI = %.2f, expected at most %.2f", dti, params.MaxDTI)
	}
	previous := loans.MonthlyMortgagePayment(params.Cost, down-1, p.rates.Interest, params.Amortization)
	if dti := p.potentialDTI(p.currentDebt(), p.currentIncome(), previous); dti <= params.MaxDTI {
		t.Errorf("down payment %v%% was already feasible, search is not minimal", down-1)
	}
}

func TestTickPurchaseAgesInSameMonth(t *testing.T) {
	params := defaultParameters()
	p := newTestPortfolio(t, params)
	p.cash = 100000

	result := p.Tick()

	if len(result.Actions) != 1 || result.Actions[0].Kind != ActionPurchase {
		t.Fatalf("expected a single purchase, got %+v", result.Actions)
	}
	purchase := result.Actions[0]
	if purchase.DownPercent != 20 {
		t.Errorf("DownPercent = %v, expected 20", purchase.DownPercent)
	}

	props := p.Properties()
	if len(props) != 1 {
		t.Fatalf("expected 1 property, got %d", len(props))
	}
	if props[0].Age != 1 {
		t.Errorf("Age = %d, expected the purchase to age in the month it was bought", props[0].Age)
	}
	if props[0].Owing >= 192000 {
		t.Errorf("Owing = %.2f, expected the first payment to reduce the loan", props[0].Owing)
	}

	reserve := params.ExpenseLoad(props[0].MonthlyMortgage) * params.Safety
	expectedFund := reserve * (1 + p.rates.Growth)
	if math.Abs(p.EmergencyFund()-expectedFund) > 1e-6 {
		t.Errorf("EmergencyFund() = %.2f, expected %.2f", p.EmergencyFund(), expectedFund)
	}

	expectedCash := (100000 - 48000 - reserve + params.Additions -
		params.ExpenseLoad(props[0].MonthlyMortgage) + params.ExpectedRent()) * (1 + p.rates.Growth)
	if math.Abs(p.Cash()-expectedCash) > 1e-6 {
		t.Errorf("Cash() = %.2f, expected %.2f", p.Cash(), expectedCash)
	}
}

func TestTrySellRemovesEveryEligibleProperty(t *testing.T) {
	p := newTestPortfolio(t, defaultParameters())
	first := p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 80, Listed: true, ListedTime: 6})
	p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 80, Listed: true, ListedTime: 7})
	kept := p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 10})

	actions := p.trySell()

	if len(actions) != 2 {
		t.Fatalf("expected 2 sales, got %+v", actions)
	}
	for _, action := range actions {
		if action.Kind != ActionSell {
			t.Errorf("unexpected action %+v", action)
		}
	}
	if actions[0].PropertyID != first.ID {
		t.Errorf("first sale was property %d, expected %d", actions[0].PropertyID, first.ID)
	}
	if p.Cash() != 200000 {
		t.Errorf("Cash() = %.2f, expected 200000 of realized equity", p.Cash())
	}
	props := p.Properties()
	if len(props) != 1 || props[0].ID != kept.ID {
		t.Errorf("expected only property %d to remain, got %+v", kept.ID, props)
	}
}

func TestTrySellListsBeforeSelling(t *testing.T) {
	p := newTestPortfolio(t, defaultParameters())
	prop := p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 60})

	actions := p.trySell()

	if len(actions) != 1 || actions[0].Kind != ActionList {
		t.Fatalf("expected a single listing, got %+v", actions)
	}
	if !prop.Listed || prop.ListedTime != 0 {
		t.Errorf("property listed = %v listedTime = %d, expected listed with time 0", prop.Listed, prop.ListedTime)
	}
	if len(p.Properties()) != 1 {
		t.Errorf("a newly listed property must not be sold in the same pass")
	}
}

func TestTrySellWithoutListingTime(t *testing.T) {
	params := defaultParameters()
	params.TimeToSell = 0
	p := newTestPortfolio(t, params)
	p.cash = 1000
	p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 60})
	young := p.addTestProperty(Property{Value: 250000, Owing: 200000, Age: 12})

	actions := p.trySell()

	if len(actions) != 2 || actions[0].Kind != ActionList || actions[1].Kind != ActionSell {
		t.Fatalf("expected a listing then a sale, got %+v", actions)
	}
	if actions[0].PropertyID != actions[1].PropertyID {
		t.Errorf("listed property %d but sold %d", actions[0].PropertyID, actions[1].PropertyID)
	}
	if actions[1].CashChange != 100000 {
		t.Errorf("sale released %.2f, expected the equity of 100000", actions[1].CashChange)
	}
	if p.cash != 101000 {
		t.Errorf("cash = %.2f, expected 101000", p.cash)
	}
	if props := p.Properties(); len(props) != 1 || props[0].ID != young.ID {
		t.Errorf("expected only the young property to remain, got %+v", props)
	}
}

func TestNewPortfolioRejectsExcessiveHorizon(t *testing.T) {
	params := defaultParameters()
	params.Months = 1e15
	if _, err := NewPortfolio(zap.NewNop(), params); !errors.Is(err, ErrHorizonTooLong) {
		t.Errorf("NewPortfolio() error = %v, expected ErrHorizonTooLong", err)
	}
}

func TestTryRefinance(t *testing.T) {
	tests := []struct {
		name       string
		cash       float64
		value      float64
		owing      float64
		listed     bool
		expectKind ActionKind
	}{
		{
			name:       "Home equity loan when released cash funds a purchase",
			cash:       100000,
			value:      300000,
			owing:      100000,
			expectKind: ActionHomeEquityLoan,
		},
		{
			name:       "Plain refinance when equity is too small",
			cash:       0,
			value:      200000,
			owing:      190000,
			expectKind: ActionRefinance,
		},
		{
			name:   "Listed properties are not refinanced",
			cash:   100000,
			value:  300000,
			owing:  100000,
			listed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPortfolio(t, defaultParameters())
			p.cash = tt.cash
			prop := p.addTestProperty(Property{
				Value:           tt.value,
				Owing:           tt.owing,
				Age:             60,
				Listed:          tt.listed,
				MonthlyMortgage: 813,
			})

			actions := p.tryRefinance()

			if tt.expectKind == "" {
				if len(actions) != 0 {
					t.Fatalf("expected no refinance, got %+v", actions)
				}
				if prop.Age != 60 {
					t.Errorf("Age = %d, expected unchanged", prop.Age)
				}
				return
			}

			if len(actions) != 1 || actions[0].Kind != tt.expectKind {
				t.Fatalf("expected a %s action, got %+v", tt.expectKind, actions)
			}
			if prop.Age != 0 {
				t.Errorf("Age = %d, expected reset to 0 after refinance", prop.Age)
			}
			if actions[0].Age != 60 {
				t.Errorf("reported age = %d, expected prior age 60", actions[0].Age)
			}
			if tt.expectKind == ActionHomeEquityLoan {
				released := (tt.value - tt.owing) * 0.8
				if math.Abs(p.Cash()-(tt.cash+released)) > 1e-6 {
					t.Errorf("Cash() = %.2f, expected %.2f", p.Cash(), tt.cash+released)
				}
			} else if p.Cash() != tt.cash {
				t.Errorf("Cash() = %.2f, expected unchanged %.2f", p.Cash(), tt.cash)
			}
		})
	}
}

func TestTickCashSettlementWithListedProperty(t *testing.T) {
	params := defaultParameters()
	params.Income = 0 // block purchases
	p := newTestPortfolio(t, params)
	p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 10, MonthlyMortgage: 800})
	p.addTestProperty(Property{Value: 250000, Owing: 150000, Age: 70, Listed: true, MonthlyMortgage: 800})

	p.Tick()

	// Both properties carry their costs but only the unlisted one earns rent.
	expected := (params.Additions - 2*params.ExpenseLoad(800) + params.ExpectedRent()) * (1 + p.rates.Growth)
	if math.Abs(p.Cash()-expected) > 1e-6 {
		t.Errorf("Cash() = %.2f, expected %.2f", p.Cash(), expected)
	}

	expectedDTI := 100 * (2*params.ExpenseLoad(800) + params.Expenses) / (2 * params.ExpectedRent())
	if math.Abs(p.DTI()-expectedDTI) > 1e-9 {
		t.Errorf("DTI() = %.4f, expected %.4f", p.DTI(), expectedDTI)
	}
}

func TestTickInvariantsOverLongRun(t *testing.T) {
	p := newTestPortfolio(t, defaultParameters())
	p.cash = 60000

	seen := map[ActionKind]bool{}
	for month := 0; month <= 300; month++ {
		result := p.Tick()
		for _, action := range result.Actions {
			seen[action.Kind] = true
		}
		for _, prop := range p.Properties() {
			if prop.Owing < 0 {
				t.Fatalf("month %d: property %d owing %.2f", month, prop.ID, prop.Owing)
			}
			if prop.Age < 0 {
				t.Fatalf("month %d: property %d age %d", month, prop.ID, prop.Age)
			}
		}
	}

	for _, kind := range []ActionKind{ActionPurchase, ActionList, ActionSell} {
		if !seen[kind] {
			t.Errorf("expected at least one %s action over 25 years", kind)
		}
	}

	outcome := p.Results()
	summary := p.Summary()
	if math.Abs(outcome.TotalAssets-summary.TotalAssets) > 1e-6 {
		t.Errorf("Results().TotalAssets = %.2f, Summary().TotalAssets = %.2f", outcome.TotalAssets, summary.TotalAssets)
	}
	if math.Abs(outcome.CashFlow-summary.CashFlow) > 1e-6 {
		t.Errorf("Results().CashFlow = %.2f, Summary().CashFlow = %.2f", outcome.CashFlow, summary.CashFlow)
	}
}

func TestResetClearsState(t *testing.T) {
	p := newTestPortfolio(t, defaultParameters())
	p.cash = 100000
	p.Tick()

	params := defaultParameters()
	params.Interest = 3
	if err := p.Reset(params); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if p.Cash() != 0 || p.EmergencyFund() != 0 || p.DTI() != 0 || p.Month() != 0 || len(p.Properties()) != 0 {
		t.Errorf("Reset() left state behind: %+v", p.Summary())
	}
	if p.Parameters().Interest != 3 {
		t.Errorf("Parameters().Interest = %v, expected 3", p.Parameters().Interest)
	}
	if p.Rates().Interest != mustMonthlyRate(t, 3) {
		t.Errorf("Rates().Interest was not recomputed")
	}
}
