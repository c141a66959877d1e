// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/rental-forecast/internal/forecast"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DescribeAction returns a one-line description of a portfolio decision.
func DescribeAction(action finance.Action) string {
	switch action.Kind {
	case finance.ActionList:
		return fmt.Sprintf("list #%d (%d months old) for %s", action.PropertyID, action.Age, format.Currency(action.Amount))
	case finance.ActionSell:
		return fmt.Sprintf("sell #%d for %s releasing %s", action.PropertyID, format.Currency(action.Amount), format.Currency(action.CashChange))
	case finance.ActionRefinance:
		return fmt.Sprintf("refinance #%d (%d months old), payment %+.2f", action.PropertyID, action.Age, action.MortgageDelta)
	case finance.ActionHomeEquityLoan:
		return fmt.Sprintf("home equity loan on #%d releasing %s, payment %+.2f", action.PropertyID, format.Currency(action.Amount), action.MortgageDelta)
	case finance.ActionPurchase:
		return fmt.Sprintf("purchase #%d for %s at %.0f%% down", action.PropertyID, format.Currency(action.Amount), action.DownPercent)
	default:
		return string(action.Kind)
	}
}

// actionNotes groups action descriptions by month.
func actionNotes(actions []finance.Action) map[int][]string {
	notes := make(map[int][]string)
	for _, action := range actions {
		notes[action.Month] = append(notes[action.Month], DescribeAction(action))
	}
	return notes
}

func label(summary finance.Summary) string {
	if summary.Date != "" {
		return summary.Date
	}
	return fmt.Sprintf("%d", summary.Month)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(result *forecast.Forecast) {
	WritePretty(os.Stdout, result)
}

// WritePretty writes the human-readable table to w.
func WritePretty(w io.Writer, result *forecast.Forecast) {
	p := message.NewPrinter(language.English)
	notes := actionNotes(result.Actions)

	_, _ = fmt.Fprintf(w, "--- Results for run %s ---\n", result.RunID)
	_, _ = fmt.Fprintf(w, "Month   | Properties | Cash | Equity | Emergency Fund | Total Assets | DTI | Cash Flow | Notes\n")
	_, _ = fmt.Fprintf(w, "_____   | __________ | ____ | ______ | ______________ | ____________ | ___ | _________ | _____\n")
	for _, summary := range result.Summaries {
		_, _ = p.Fprintf(w, "%s | %d | $%.2f | $%.2f | $%.2f | $%.2f | %s | $%.2f | %s\n",
			label(summary), summary.Properties, summary.Cash, summary.Equity, summary.EmergencyFund,
			summary.TotalAssets, format.Percent(summary.DTI), summary.CashFlow,
			strings.Join(notes[summary.Month], "; "))
	}
	_, _ = p.Fprintf(w, "\nFinal total assets: %s\n", format.Currency(result.Outcome.TotalAssets))
	_, _ = p.Fprintf(w, "Final monthly cash flow: %s\n", format.Currency(result.Outcome.CashFlow))
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(result *forecast.Forecast) {
	fmt.Print(CsvString(result))
}

// CsvString renders the CSV representation of a forecast.
func CsvString(result *forecast.Forecast) string {
	var b strings.Builder
	notes := actionNotes(result.Actions)

	b.WriteString(`"month","date","properties","cash","equity","emergency fund","total assets","dti","revenue","debt","cash flow","notes"`)
	b.WriteString("\n")
	for _, s := range result.Summaries {
		fmt.Fprintf(&b, `"%d","%s","%d","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%s"`,
			s.Month, s.Date, s.Properties, s.Cash, s.Equity, s.EmergencyFund, s.TotalAssets,
			s.DTI, s.Revenue, s.Debt, s.CashFlow, strings.Join(notes[s.Month], "; "))
		b.WriteString("\n")
	}
	return b.String()
}

// JSONFormat outputs any result as indented JSON.
func JSONFormat(v interface{}) error {
	return WriteJSON(os.Stdout, v)
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
