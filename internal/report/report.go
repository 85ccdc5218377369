// Package report renders engine artifacts for terminals. Output here is
// purely presentational; the JSON artifacts are the machine contract.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simgate/simgate/internal/model"
	"github.com/simgate/simgate/internal/policy"
	"github.com/simgate/simgate/internal/rank"
	"github.com/simgate/simgate/internal/regression"
	"github.com/simgate/simgate/internal/repair"
)

var (
	passColor   = lipgloss.Color("42")  // Green
	reviewColor = lipgloss.Color("226") // Yellow
	failColor   = lipgloss.Color("196") // Red
	mutedColor  = lipgloss.Color("245") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	passStyle   = lipgloss.NewStyle().Foreground(passColor).Bold(true)
	reviewStyle = lipgloss.NewStyle().Foreground(reviewColor).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(failColor).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

func decisionStyle(decision string) lipgloss.Style {
	switch decision {
	case model.GatePass:
		return passStyle
	case model.GateNeedsReview:
		return reviewStyle
	default:
		return failStyle
	}
}

// Regression renders one comparison result.
func Regression(result *regression.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Regression comparison"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  baseline:  %s (%.4fs)\n", result.BaselineRunID, result.BaselineRuntimeSeconds)
	fmt.Fprintf(&b, "  candidate: %s (%.4fs)\n", result.CandidateRunID, result.CandidateRuntimeSeconds)
	fmt.Fprintf(&b, "  decision:  %s\n", decisionStyle(result.Decision).Render(result.Decision))

	if len(result.Reasons) > 0 {
		b.WriteString("  reasons:\n")
		for _, reason := range result.Reasons {
			fmt.Fprintf(&b, "    - %s\n", reason)
		}
	}
	for _, finding := range result.Findings {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("    [%s] %s", finding.Checker, finding.Message)))
		b.WriteString("\n")
	}

	return b.String()
}

// Classification renders one policy result.
func Classification(result *policy.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Policy classification"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  profile:  %s\n", result.Profile)
	fmt.Fprintf(&b, "  risk:     %s\n", result.RiskLevel)
	fmt.Fprintf(&b, "  decision: %s\n", decisionStyle(result.PolicyDecision).Render(result.PolicyDecision))

	writeBucket(&b, "critical", result.CriticalReasons)
	writeBucket(&b, "review", result.ReviewReasons)
	writeBucket(&b, "unknown", result.UnknownReasons)

	if len(result.HumanChecks) > 0 {
		b.WriteString("  human checks:\n")
		for _, check := range result.HumanChecks {
			fmt.Fprintf(&b, "    - %s\n", check)
		}
	}

	return b.String()
}

func writeBucket(b *strings.Builder, label string, reasons []string) {
	if len(reasons) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", label)
	for _, reason := range reasons {
		fmt.Fprintf(b, "    - %s\n", reason)
	}
}

// RepairSummary renders one repair-loop run.
func RepairSummary(summary *repair.Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Repair loop"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  before: %s (score %d)\n", decisionStyle(summary.Before.Decision).Render(summary.Before.Decision), summary.Before.Score)
	fmt.Fprintf(&b, "  after:  %s (score %d)\n", decisionStyle(summary.After.Decision).Render(summary.After.Decision), summary.After.Score)
	fmt.Fprintf(&b, "  delta:  %s\n", summary.Comparison.Delta)

	for _, attempt := range summary.Attempts {
		marker := " "
		if attempt.Attempt == summary.SelectedAttempt {
			marker = "*"
		}
		line := fmt.Sprintf("  %s attempt %d: backend=%s floor=%.2f exit=%d score=%d",
			marker, attempt.Attempt, attempt.PlannerBackend, attempt.ConfidenceFloor, attempt.ExitCode, attempt.Score)
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(summary.Comparison.FixedReasons) > 0 {
		fmt.Fprintf(&b, "  fixed: %s\n", strings.Join(summary.Comparison.FixedReasons, ", "))
	}
	if len(summary.Comparison.NewReasons) > 0 {
		fmt.Fprintf(&b, "  new:   %s\n", strings.Join(summary.Comparison.NewReasons, ", "))
	}

	return b.String()
}

// Ranking renders a profile comparison table.
func Ranking(ranking *rank.Ranking) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Profile ranking"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-4s %-20s %-14s %-8s %s\n", "rank", "profile", "decision", "exit", "total")
	b.WriteString(mutedStyle.Render("  " + strings.Repeat("-", 58)))
	b.WriteString("\n")

	for _, row := range ranking.Rows {
		fmt.Fprintf(&b, "  %-4d %-20s %-14s %-8d %.1f\n",
			row.Rank, row.Profile, decisionStyle(row.Decision).Render(row.Decision), row.ExitCode, row.TotalScore)
	}

	fmt.Fprintf(&b, "\n  best: %s (%s)\n", ranking.BestProfile, ranking.BestReason)
	fmt.Fprintf(&b, "  aggregate: %s\n", decisionStyle(ranking.AggregateStatus).Render(ranking.AggregateStatus))

	return b.String()
}
