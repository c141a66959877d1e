package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ContinuousPrinter streams the reports of a continuous run to a writer in
// the pretty, csv or json (one object per line) format.
type ContinuousPrinter struct {
	w       io.Writer
	format  string
	printer *message.Printer
	header  bool
	pending []string
}

// NewContinuousPrinter creates a printer for the given output format.
func NewContinuousPrinter(w io.Writer, outputFormat string) *ContinuousPrinter {
	return &ContinuousPrinter{w: w, format: outputFormat, printer: message.NewPrinter(language.English)}
}

type continuousRecord struct {
	Run     int              `json:"run"`
	Summary *finance.Summary `json:"summary,omitempty"`
	Actions []finance.Action `json:"actions,omitempty"`
}

// ReportActions implements forecast.Reporter.
func (c *ContinuousPrinter) ReportActions(run int, actions []finance.Action) error {
	switch c.format {
	case constants.OutputFormatJSON:
		return c.writeRecord(continuousRecord{Run: run, Actions: actions})
	case constants.OutputFormatCSV:
		for _, action := range actions {
			c.pending = append(c.pending, DescribeAction(action))
		}
		return nil
	default:
		for _, action := range actions {
			if _, err := fmt.Fprintf(c.w, "run %d month %d: %s\n", run, action.Month, DescribeAction(action)); err != nil {
				return err
			}
		}
		return nil
	}
}

// ReportSummary implements forecast.Reporter.
func (c *ContinuousPrinter) ReportSummary(run int, summary finance.Summary) error {
	switch c.format {
	case constants.OutputFormatJSON:
		return c.writeRecord(continuousRecord{Run: run, Summary: &summary})
	case constants.OutputFormatCSV:
		if !c.header {
			if _, err := fmt.Fprintln(c.w, `"run","month","properties","cash","equity","emergency fund","total assets","dti","cash flow","notes"`); err != nil {
				return err
			}
			c.header = true
		}
		notes := strings.Join(c.pending, "; ")
		c.pending = c.pending[:0]
		_, err := fmt.Fprintf(c.w, `"%d","%d","%d","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%s"`+"\n",
			run, summary.Month, summary.Properties, summary.Cash, summary.Equity, summary.EmergencyFund,
			summary.TotalAssets, summary.DTI, summary.CashFlow, notes)
		return err
	default:
		_, err := c.printer.Fprintf(c.w,
			"run %d month %d: %d properties, cash $%.2f, equity $%.2f, emergency fund $%.2f, total $%.2f, DTI %s, cash flow %s\n",
			run, summary.Month, summary.Properties, summary.Cash, summary.Equity, summary.EmergencyFund,
			summary.TotalAssets, format.Percent(summary.DTI), format.Currency(summary.CashFlow))
		return err
	}
}

func (c *ContinuousPrinter) writeRecord(record continuousRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.w, "%s\n", data)
	return err
}
