// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/siteforge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintVerdict outputs one attempt's audit verdict.
func (p *Printer) PrintVerdict(attempt int, verdict *types.AuditVerdict) {
	if verdict == nil {
		return
	}

	var sb strings.Builder
	status := "❌ REJECTED"
	if verdict.Approved {
		status = "✅ APPROVED"
	}
	sb.WriteString(fmt.Sprintf("Status:  %s\n", status))
	sb.WriteString(fmt.Sprintf("Reason:  %s\n", verdict.Reason))
	if verdict.Hint != "" && verdict.Hint != types.HintNone {
		sb.WriteString(fmt.Sprintf("Hint:    %s\n", verdict.Hint))
	}

	if len(verdict.Issues) > 0 {
		sb.WriteString("\nIssues:\n")
		count := min(len(verdict.Issues), maxItemsToShow)
		for i := 0; i < count; i++ {
			issue := verdict.Issues[i]
			if len(issue) > 50 {
				issue = issue[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", issue))
		}
		if len(verdict.Issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(verdict.Issues)-maxItemsToShow))
		}
	}

	p.printBox(fmt.Sprintf("AUDIT VERDICT (attempt %d)", attempt), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRemediation outputs the healing step chosen after a rejection.
func (p *Printer) PrintRemediation(result *types.RemediationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Strategy: %s\n", result.Tier))
	sb.WriteString(fmt.Sprintf("Action:   %s\n", result.Description))
	if result.ContentReplaced {
		sb.WriteString("Content:  replaced with truncated copy\n")
	} else if result.StyleOverrides != nil && result.StyleOverrides.Len() > 0 {
		sb.WriteString("\nOverrides:\n")
		keys := result.StyleOverrides.Keys()
		count := min(len(keys), maxItemsToShow)
		for i := 0; i < count; i++ {
			classes, _ := result.StyleOverrides.Get(keys[i])
			if len(classes) > 35 {
				classes = classes[:32] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s: %s\n", keys[i], classes))
		}
	}

	p.printBox("REMEDIATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendation outputs the predictor's advisory before the first render.
func (p *Printer) PrintRecommendation(rec *types.StrategyRecommendation, applied bool) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	if !rec.ModelAvailable {
		sb.WriteString("No trained model available\n")
	} else {
		sb.WriteString(fmt.Sprintf("Predicted: %s\n", rec.TierID))
		sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", rec.Confidence))
		if applied {
			sb.WriteString("Applied as pre-seed\n")
		} else {
			sb.WriteString("Below confidence gate; ignored\n")
		}
	}

	p.printBox("STRATEGY PREDICTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBuildResult outputs the final build report.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintBuildResult(result *types.BuildResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:    %s\n", result.Status))
	sb.WriteString(fmt.Sprintf("Theme:     %s\n", result.Theme))
	sb.WriteString(fmt.Sprintf("Attempts:  %d\n", result.Attempts))
	if result.OutputPath != "" {
		sb.WriteString(fmt.Sprintf("Output:    %s\n", result.OutputPath))
	}

	if len(result.FixesApplied) > 0 {
		sb.WriteString("\nFixes applied:\n")
		count := min(len(result.FixesApplied), maxItemsToShow)
		for i := 0; i < count; i++ {
			fix := result.FixesApplied[i]
			if len(fix) > 50 {
				fix = fix[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", fix))
		}
		if len(result.FixesApplied) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.FixesApplied)-maxItemsToShow))
		}
	}

	if len(result.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		count := min(len(result.Errors), 3)
		for i := 0; i < count; i++ {
			e := result.Errors[i]
			if len(e) > 50 {
				e = e[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", e))
		}
	}

	p.printBox("BUILD REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTelemetrySummary outputs dataset statistics for the stats command.
func (p *Printer) PrintTelemetrySummary(byLabel map[string]int, total, valid int, meanPathScore float64) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Events:      %d\n", total))
	sb.WriteString(fmt.Sprintf("Approved:    %d\n", valid))
	if total > 0 {
		sb.WriteString(fmt.Sprintf("Valid rate:  %.1f%%\n", 100*float64(valid)/float64(total)))
	}
	sb.WriteString(fmt.Sprintf("Mean score:  %.3f\n", meanPathScore))

	if len(byLabel) > 0 {
		sb.WriteString("\nBy resolved strategy:\n")
		labels := make([]string, 0, len(byLabel))
		for label := range byLabel {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			sb.WriteString(fmt.Sprintf("  %-12s %d\n", label, byLabel[label]))
		}
	}

	p.printBox("TELEMETRY DATASET", strings.TrimSuffix(sb.String(), "\n"))
}
