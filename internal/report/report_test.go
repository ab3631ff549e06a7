package report

import (
	"strings"
	"testing"

	"refactory/internal/analysis"
	"refactory/internal/refactor"
	"refactory/internal/scoring"
)

func acceptedOutcome() *refactor.Outcome {
	return &refactor.Outcome{
		Path:     "calc.py",
		Language: "python",
		State:    refactor.StateAccepted,
		Verdict: &scoring.Verdict{
			Accepted:  true,
			Original:  scoring.QualityScore{Maintainability: 80, Similarity: 1.0, Perplexity: 30},
			Candidate: scoring.QualityScore{Maintainability: 92, Similarity: 0.9, Perplexity: 25},
			Delta:     12,
		},
		Attempts: []refactor.Attempt{
			{Number: 1, Status: refactor.ValidOK, Verdict: &scoring.Verdict{Accepted: true, Delta: 12}},
		},
	}
}

func TestFormatAcceptedOutcome(t *testing.T) {
	got := Format(acceptedOutcome())

	for _, want := range []string{
		"Quality Report: `calc.py`",
		"✅ accepted",
		"| Maintainability | 80.0 | 92.0 | +12.0 ✅ |",
		"| Perplexity | 30.0 | 25.0 | -5.0 ✅ |",
		"### Attempts: 1",
		"accepted (+12.0 maintainability)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestFormatRejectedOutcome(t *testing.T) {
	out := &refactor.Outcome{
		Path:   "calc.py",
		State:  refactor.StateRejected,
		Reason: scoring.ReasonBelowMargin,
		Original: scoring.QualityScore{Maintainability: 88},
		Findings: []analysis.Finding{
			{RuleID: "unused-variable", Severity: analysis.SeverityWarning, Line: 3, Message: "variable 'x' is never used"},
		},
	}
	got := Format(out)

	for _, want := range []string{
		"❌ rejected",
		"**Reason:** `below_improvement_margin`",
		"**Maintainability:** 88.0/100",
		"line 3 `unused-variable` (warning): variable 'x' is never used",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Detailed Metrics") {
		t.Error("rejected outcome without verdict must not render the comparison table")
	}
}

func TestSummaryAggregates(t *testing.T) {
	outcomes := []*refactor.Outcome{
		acceptedOutcome(),
		{Path: "other.py", State: refactor.StateExhausted, Reason: scoring.ReasonExhaustedRetries},
	}
	got := Summary(outcomes)

	for _, want := range []string{
		"**Files Processed:** 2",
		"**Files Improved:** 1",
		"**Average Improvement:** +12.0 points",
		"⚠️ `other.py`: exhausted (exhausted_retries)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummaryEmpty(t *testing.T) {
	if got := Summary(nil); got != "No files processed.\n" {
		t.Errorf("unexpected empty summary: %q", got)
	}
}

func TestAttemptSummaryBranches(t *testing.T) {
	cases := []struct {
		name    string
		attempt refactor.Attempt
		want    string
	}{
		{"error", refactor.Attempt{Err: "llm unavailable"}, "request failed: llm unavailable"},
		{"scored", refactor.Attempt{Status: refactor.ValidOK, Verdict: &scoring.Verdict{Reason: scoring.ReasonBelowMargin}}, "scored, below_improvement_margin"},
		{"invalid", refactor.Attempt{Status: refactor.InvalidSyntax}, "invalid_syntax"},
		{"empty", refactor.Attempt{}, "no result"},
	}
	for _, tc := range cases {
		if got := attemptSummary(tc.attempt); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
