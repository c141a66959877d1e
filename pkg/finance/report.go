package finance

// ActionKind identifies a portfolio decision.
type ActionKind string

const (
	ActionList           ActionKind = "list"
	ActionSell           ActionKind = "sell"
	ActionRefinance      ActionKind = "refinance"
	ActionHomeEquityLoan ActionKind = "home_equity_loan"
	ActionPurchase       ActionKind = "purchase"
)

// Action is a single decision taken during a month.
//
// Amount is the property value for list and sell, the purchase price for
// purchase and the released cash for a home equity loan. CashChange is the
// effect on liquid cash at the moment of the decision.
type Action struct {
	Kind          ActionKind `json:"kind"`
	Month         int        `json:"month"`
	PropertyID    int        `json:"propertyId"`
	Age           int        `json:"age"`
	Amount        float64    `json:"amount"`
	CashChange    float64    `json:"cashChange"`
	DownPercent   float64    `json:"downPercent,omitempty"`
	MortgageDelta float64    `json:"mortgageDelta,omitempty"`
}

// Summary is the state of a portfolio at a point in time.
type Summary struct {
	Month         int     `json:"month"`
	Date          string  `json:"date,omitempty"`
	Properties    int     `json:"properties"`
	Cash          float64 `json:"cash"`
	Equity        float64 `json:"equity"`
	EmergencyFund float64 `json:"emergencyFund"`
	TotalAssets   float64 `json:"totalAssets"`
	DTI           float64 `json:"dti"`
	Revenue       float64 `json:"revenue"`
	Debt          float64 `json:"debt"`
	CashFlow      float64 `json:"cashFlow"`
}

// TickResult holds the decisions of one month and the summary at its end.
type TickResult struct {
	Month   int
	Actions []Action
	Summary Summary
}

// Outcome is the pair of metrics a run is judged by.
type Outcome struct {
	TotalAssets float64 `json:"totalAssets"`
	CashFlow    float64 `json:"cashFlow"`
}
