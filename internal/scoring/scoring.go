// Package scoring turns analysis results into comparable quality scores
// and decides whether a refactored candidate improves on its original.
package scoring

import (
	"refactory/internal/analysis"
)

// Weights are the tunable constants of the quality score. All penalties
// subtract from a base of 100; the result is clamped to [0, 100].
type Weights struct {
	// Per-finding penalties keyed by severity.
	ErrorPenalty   float64 `yaml:"error_penalty"`
	WarningPenalty float64 `yaml:"warning_penalty"`
	InfoPenalty    float64 `yaml:"info_penalty"`

	// Complexity above these thresholds is penalized per excess unit.
	ComplexityThreshold int     `yaml:"complexity_threshold"`
	NestingThreshold    int     `yaml:"nesting_threshold"`
	ComplexityPenalty   float64 `yaml:"complexity_penalty"`
	NestingPenalty      float64 `yaml:"nesting_penalty"`

	// Acceptance gates.
	ImprovementMargin float64 `yaml:"improvement_margin"`
	SimilarityFloor   float64 `yaml:"similarity_floor"`
	TieEpsilon        float64 `yaml:"tie_epsilon"`
}

// DefaultWeights returns the documented default scoring constants.
func DefaultWeights() Weights {
	return Weights{
		ErrorPenalty:        25,
		WarningPenalty:      10,
		InfoPenalty:         2,
		ComplexityThreshold: 10,
		NestingThreshold:    4,
		ComplexityPenalty:   2,
		NestingPenalty:      5,
		ImprovementMargin:   5,
		SimilarityFloor:     0.5,
		TieEpsilon:          0.5,
	}
}

// QualityScore is the derived quality of one source text. It is recomputed
// for every comparison and never mutated in place.
type QualityScore struct {
	Maintainability float64                   `json:"maintainability_index"`
	Similarity      float64                   `json:"similarity_score"`
	Perplexity      float64                   `json:"perplexity"`
	BySeverity      map[analysis.Severity]int `json:"finding_count_by_severity"`
}

// Scorer computes quality scores under a fixed set of weights.
type Scorer struct {
	w Weights
}

// NewScorer builds a Scorer over the given weights, taken as-is. Zero is
// a legitimate setting (a zero improvement margin accepts any measured
// gain); callers wanting the documented defaults start from
// DefaultWeights and override from there, the way config loading does.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Weights returns the scorer's effective weights.
func (s *Scorer) Weights() Weights { return s.w }

// Maintainability computes the 0-100 maintainability index from findings
// and complexity metrics.
func (s *Scorer) Maintainability(findings []analysis.Finding, cx analysis.ComplexityReport) float64 {
	mi := 100.0

	counts := analysis.CountBySeverity(findings)
	mi -= float64(counts[analysis.SeverityError]) * s.w.ErrorPenalty
	mi -= float64(counts[analysis.SeverityWarning]) * s.w.WarningPenalty
	mi -= float64(counts[analysis.SeverityInfo]) * s.w.InfoPenalty

	if excess := cx.AverageCyclo - float64(s.w.ComplexityThreshold); excess > 0 {
		mi -= excess * s.w.ComplexityPenalty
	}
	if excess := cx.DeepestNesting - s.w.NestingThreshold; excess > 0 {
		mi -= float64(excess) * s.w.NestingPenalty
	}

	if mi < 0 {
		return 0
	}
	if mi > 100 {
		return 100
	}
	return mi
}

// Score assembles the full quality score for one text. reference is the
// text the similarity score compares against; pass the text itself when
// scoring an original in isolation.
func (s *Scorer) Score(text, reference string, findings []analysis.Finding, cx analysis.ComplexityReport) QualityScore {
	return QualityScore{
		Maintainability: s.Maintainability(findings, cx),
		Similarity:      Similarity(reference, text),
		Perplexity:      Perplexity(text),
		BySeverity:      analysis.CountBySeverity(findings),
	}
}
