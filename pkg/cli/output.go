// Package cli holds the terminal output helpers shared by the
// command-line tools.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

// Color functions for terminal output
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Success prints a success message in green
func Success(format string, args ...interface{}) {
	successColor.Printf(format+"\n", args...)
}

// Error prints an error message in red
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
}

// Warning prints a warning message in yellow
func Warning(format string, args ...interface{}) {
	warningColor.Printf(format+"\n", args...)
}

// Info prints an info message in cyan
func Info(format string, args ...interface{}) {
	infoColor.Printf(format+"\n", args...)
}

// RenderVerdict prints the verdict headline, its reasoning, and a
// per-tier evidence table. The headline color follows the pattern:
// green for validated outcomes, red for a category error, yellow for
// everything ambiguous.
func RenderVerdict(w io.Writer, v *evidence.ValidationVerdict) {
	headline := patternColor(v.Pattern)
	headline.Fprintf(w, "%s  (confidence %.2f)\n", v.Pattern, v.Confidence)
	infoColor.Fprintln(w, v.Reasoning)
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tier", "Status", "Label", "Confidence", "Latency"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetBorder(false)

	for _, r := range v.Evidence.Results {
		table.Append([]string{
			string(r.Tier),
			string(r.Status),
			orDash(r.Label),
			confidenceCell(r),
			fmt.Sprintf("%dms", r.LatencyMs),
		})
	}
	table.Render()
}

func patternColor(pattern evidence.Pattern) *color.Color {
	switch pattern {
	case evidence.PatternCategoryValidated, evidence.PatternClearMatch:
		return successColor
	case evidence.PatternCategoryError:
		return errorColor
	default:
		return warningColor
	}
}

func confidenceCell(r evidence.TierResult) string {
	if c, ok := r.ConfidenceValue(); ok {
		return fmt.Sprintf("%.2f", c)
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
