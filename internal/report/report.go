// Package report renders pipeline outcomes as markdown for terminals
// and result sinks.
package report

import (
	"fmt"
	"strings"

	"refactory/internal/refactor"
	"refactory/internal/scoring"
)

// Format renders one outcome as a markdown quality report.
func Format(out *refactor.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## 📊 Quality Report: `%s`\n\n", out.Path)
	fmt.Fprintf(&b, "**State:** %s %s\n\n", stateEmoji(out.State), out.State)
	if out.Reason != "" {
		fmt.Fprintf(&b, "**Reason:** `%s`\n\n", out.Reason)
	}

	if out.Verdict != nil {
		b.WriteString(comparisonTable(out.Verdict))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "**Maintainability:** %.1f/100\n\n", out.Original.Maintainability)
	}

	if len(out.Findings) > 0 {
		b.WriteString("### Findings\n\n")
		for _, f := range out.Findings {
			fmt.Fprintf(&b, "- line %d `%s` (%s): %s\n", f.Line, f.RuleID, f.Severity, f.Message)
		}
		b.WriteString("\n")
	}

	if len(out.Attempts) > 0 {
		fmt.Fprintf(&b, "### Attempts: %d\n\n", len(out.Attempts))
		for _, a := range out.Attempts {
			fmt.Fprintf(&b, "- attempt %d: %s\n", a.Number, attemptSummary(a))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// comparisonTable renders the before/after metric table.
func comparisonTable(v *scoring.Verdict) string {
	var b strings.Builder

	b.WriteString("### Detailed Metrics\n\n")
	b.WriteString("| Metric | Before | After | Change |\n")
	b.WriteString("|--------|--------|-------|--------|\n")

	rows := []struct {
		name          string
		before, after float64
		lowerIsBetter bool
	}{
		{"Maintainability", v.Original.Maintainability, v.Candidate.Maintainability, false},
		{"Similarity", v.Original.Similarity, v.Candidate.Similarity, false},
		{"Perplexity", v.Original.Perplexity, v.Candidate.Perplexity, true},
	}
	for _, r := range rows {
		diff := r.after - r.before
		improved := diff > 0
		if r.lowerIsBetter {
			improved = diff < 0
		}
		var change string
		switch {
		case diff == 0:
			change = "0.0 ➖"
		case improved:
			change = fmt.Sprintf("%+.1f ✅", diff)
		default:
			change = fmt.Sprintf("%+.1f ⚠️", diff)
		}
		fmt.Fprintf(&b, "| %s | %.1f | %.1f | %s |\n", r.name, r.before, r.after, change)
	}
	return b.String()
}

// Summary renders the aggregate result of a multi-file run.
func Summary(outcomes []*refactor.Outcome) string {
	if len(outcomes) == 0 {
		return "No files processed.\n"
	}

	var b strings.Builder
	b.WriteString("## 📊 Refactoring Summary\n\n")

	accepted := 0
	totalImprovement := 0.0
	for _, out := range outcomes {
		if out.State == refactor.StateAccepted && out.Verdict != nil {
			accepted++
			totalImprovement += out.Verdict.Delta
		}
	}
	avg := 0.0
	if accepted > 0 {
		avg = totalImprovement / float64(accepted)
	}

	fmt.Fprintf(&b, "- **Files Processed:** %d\n", len(outcomes))
	fmt.Fprintf(&b, "- **Files Improved:** %d\n", accepted)
	fmt.Fprintf(&b, "- **Average Improvement:** %+.1f points\n\n", avg)

	b.WriteString("### Files\n\n")
	for _, out := range outcomes {
		fmt.Fprintf(&b, "- %s `%s`: %s", stateEmoji(out.State), out.Path, out.State)
		if out.Reason != "" {
			fmt.Fprintf(&b, " (%s)", out.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func stateEmoji(s refactor.State) string {
	switch s {
	case refactor.StateAccepted:
		return "✅"
	case refactor.StateRejected:
		return "❌"
	case refactor.StateExhausted:
		return "⚠️"
	default:
		return "➖"
	}
}

func attemptSummary(a refactor.Attempt) string {
	switch {
	case a.Err != "":
		return "request failed: " + a.Err
	case a.Verdict != nil && a.Verdict.Accepted:
		return fmt.Sprintf("accepted (%+.1f maintainability)", a.Verdict.Delta)
	case a.Verdict != nil:
		return "scored, " + a.Verdict.Reason
	case a.Status != "":
		return string(a.Status)
	default:
		return "no result"
	}
}
