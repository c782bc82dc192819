// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/benchtune/benchtune/internal/engine"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// renderSummary prints one table row per benchmark followed by skipped
// suites, failures and where the reports go.
func renderSummary(w io.Writer, sum *engine.Summary, archive string) {
	if len(sum.Reports) > 0 {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(SubtitleStyle).
			Headers("Benchmark", "N", "ns/op", "median", "B/op", "allocs/op", "").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return tableCellStyle
			})
		for _, r := range sum.Reports {
			for _, res := range r.Results {
				t.Row(summaryRow(r, res)...)
			}
		}
		fmt.Fprintln(w, t.String())
	}

	for _, name := range sum.Skipped {
		fmt.Fprintf(w, "%s %s (report exists)\n", WarningStyle.Render("skipped"), name)
	}
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("failed"), f.Error())
	}
	fmt.Fprintf(w, "%s %d report file(s) in %s, %s\n",
		SuccessStyle.Render("✓"), len(sum.Files), archive, sum.Elapsed.Round(time.Millisecond))
}

func summaryRow(r *engine.Report, res engine.Result) []string {
	name := r.FullName() + "." + res.Method
	if res.Error != "" {
		return []string{name, "-", "-", "-", "-", "-", ErrorStyle.Render("✗ " + res.Error)}
	}
	return []string{
		name,
		strconv.Itoa(res.N),
		strconv.FormatFloat(res.NsPerOp, 'f', 1, 64),
		strconv.FormatFloat(res.MedianNs, 'f', 1, 64),
		strconv.FormatInt(res.BytesPerOp, 10),
		strconv.FormatInt(res.AllocsPerOp, 10),
		SuccessStyle.Render("✓"),
	}
}
