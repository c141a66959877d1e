package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/rental-forecast/internal/sweep"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SweepPrettyFormat outputs a sweep as a table with one column per series.
func SweepPrettyFormat(result *sweep.Result) {
	WriteSweepPretty(os.Stdout, result)
}

// WriteSweepPretty writes the sweep table to w.
func WriteSweepPretty(w io.Writer, result *sweep.Result) {
	p := message.NewPrinter(language.English)

	_, _ = fmt.Fprintf(w, "--- Sweep %s of %s over %d runs ---\n", result.RunID, result.Metric, result.Runs)
	names := make([]string, len(result.Series))
	for i, series := range result.Series {
		names[i] = series.Name
	}
	_, _ = fmt.Fprintf(w, "Scale | %s\n", strings.Join(names, " | "))

	for i, scale := range scales(result) {
		_, _ = fmt.Fprintf(w, "%.2f", scale)
		for _, series := range result.Series {
			_, _ = p.Fprintf(w, " | $%.2f", series.Points[i].Value)
		}
		_, _ = fmt.Fprintln(w)
	}
}

// SweepCsvFormat outputs a sweep in comma-separated value format.
func SweepCsvFormat(result *sweep.Result) {
	fmt.Print(SweepCsvString(result))
}

// SweepCsvString renders the CSV representation of a sweep with one column
// per series.
func SweepCsvString(result *sweep.Result) string {
	var b strings.Builder
	b.WriteString(`"scale"`)
	for _, series := range result.Series {
		fmt.Fprintf(&b, `,"%s"`, series.Name)
	}
	b.WriteString("\n")

	for i, scale := range scales(result) {
		fmt.Fprintf(&b, `"%.2f"`, scale)
		for _, series := range result.Series {
			fmt.Fprintf(&b, `,"%.2f"`, series.Points[i].Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// scales returns the shared scale grid; every series has the same points.
func scales(result *sweep.Result) []float64 {
	if len(result.Series) == 0 {
		return nil
	}
	points := result.Series[0].Points
	out := make([]float64, len(points))
	for i, point := range points {
		out[i] = point.Scale
	}
	return out
}
