package scoring

import (
	"math"

	"refactory/internal/analysis"
)

// Rejection reasons reported alongside every non-accepted outcome.
const (
	ReasonOriginalUnparseable = "original_unparseable"
	ReasonExhaustedRetries    = "exhausted_retries"
	ReasonRegressedFindings   = "regressed_findings"
	ReasonBelowMargin         = "below_improvement_margin"
	ReasonBelowSimilarity     = "below_similarity_floor"
)

// Verdict is the outcome of comparing a candidate against its original.
type Verdict struct {
	Accepted  bool         `json:"accepted"`
	Reason    string       `json:"reason,omitempty"`
	Original  QualityScore `json:"original"`
	Candidate QualityScore `json:"candidate"`
	Delta     float64      `json:"maintainability_delta"`
}

// Compare applies the acceptance rule: the candidate must clear the
// improvement margin on maintainability, stay above the similarity floor,
// and introduce no error-severity finding absent from the original.
// Perplexity breaks ties when the maintainability delta lands within
// TieEpsilon of the margin.
func (s *Scorer) Compare(orig, cand QualityScore, origFindings, candFindings []analysis.Finding) Verdict {
	v := Verdict{
		Original:  orig,
		Candidate: cand,
		Delta:     cand.Maintainability - orig.Maintainability,
	}

	if IntroducesNewErrors(origFindings, candFindings) {
		v.Reason = ReasonRegressedFindings
		return v
	}
	if cand.Similarity < s.w.SimilarityFloor {
		v.Reason = ReasonBelowSimilarity
		return v
	}

	improved := v.Delta > s.w.ImprovementMargin
	if !improved && v.Delta >= 0 &&
		math.Abs(v.Delta-s.w.ImprovementMargin) <= s.w.TieEpsilon &&
		cand.Perplexity < orig.Perplexity {
		improved = true
	}
	if !improved {
		v.Reason = ReasonBelowMargin
		return v
	}

	v.Accepted = true
	return v
}

// IntroducesNewErrors reports whether cand carries an error-severity
// finding absent from orig. Findings are matched as a multiset on rule
// id and message, so a carried-over error never counts as new.
func IntroducesNewErrors(orig, cand []analysis.Finding) bool {
	seen := make(map[string]int)
	for _, f := range orig {
		if f.Severity == analysis.SeverityError {
			seen[f.RuleID+"\x00"+f.Message]++
		}
	}
	for _, f := range cand {
		if f.Severity != analysis.SeverityError {
			continue
		}
		key := f.RuleID + "\x00" + f.Message
		if seen[key] == 0 {
			return true
		}
		seen[key]--
	}
	return false
}
