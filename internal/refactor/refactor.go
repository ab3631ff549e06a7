// Package refactor drives the analyze-request-validate-score loop that
// turns a source unit and an LLM collaborator into an accept/reject
// outcome.
package refactor

import (
	"context"
	"errors"

	"refactory/internal/analysis"
	"refactory/internal/ingest"
	"refactory/internal/scoring"
)

// State is a stop on a unit's pipeline. The terminal states are
// Accepted, Rejected and Exhausted.
type State string

const (
	StateAnalyzing  State = "analyzing"
	StateRequesting State = "requesting"
	StateValidating State = "validating"
	StateScoring    State = "scoring"
	StateAccepted   State = "accepted"
	StateRetrying   State = "retrying"
	StateRejected   State = "rejected"
	StateExhausted  State = "exhausted"
)

// Terminal reports whether the state ends a unit's pipeline.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected || s == StateExhausted
}

// ValidationStatus classifies a candidate at the validation gate.
type ValidationStatus string

const (
	// ValidOK passes both the syntax and the policy check.
	ValidOK ValidationStatus = "valid"
	// InvalidSyntax means the candidate did not re-parse cleanly.
	InvalidSyntax ValidationStatus = "invalid_syntax"
	// InvalidPolicy means the candidate introduced an error-severity
	// finding the original did not have.
	InvalidPolicy ValidationStatus = "invalid_policy"
)

// Attempt records one round trip through Requesting/Validating/Scoring.
type Attempt struct {
	Number    int              `json:"number"`
	Candidate string           `json:"candidate,omitempty"`
	Status    ValidationStatus `json:"status,omitempty"`
	Verdict   *scoring.Verdict `json:"verdict,omitempty"`
	Err       string           `json:"error,omitempty"`
}

// RefactorRequest carries everything the LLM collaborator needs to
// produce a candidate.
type RefactorRequest struct {
	Unit       *ingest.SourceUnit
	Findings   []analysis.Finding
	Complexity analysis.ComplexityReport
	Previous   *Attempt
}

// Outcome is the terminal result of one unit's pipeline.
type Outcome struct {
	Unit       *ingest.SourceUnit        `json:"-"`
	Path       string                    `json:"path"`
	Language   string                    `json:"language"`
	State      State                     `json:"state"`
	Reason     string                    `json:"reason,omitempty"`
	Candidate  string                    `json:"candidate,omitempty"`
	Original   scoring.QualityScore      `json:"original_score"`
	Verdict    *scoring.Verdict          `json:"verdict,omitempty"`
	Findings   []analysis.Finding        `json:"findings"`
	Complexity analysis.ComplexityReport `json:"complexity"`
	Attempts   []Attempt                 `json:"attempts"`
}

// RefactorClient is the LLM collaborator contract.
type RefactorClient interface {
	RequestRefactor(ctx context.Context, req *RefactorRequest) (string, error)
}

// SourceFetcher supplies the units a run operates on.
type SourceFetcher interface {
	Fetch(ctx context.Context) ([]*ingest.SourceUnit, error)
}

// ResultSink consumes terminal outcomes. The orchestrator performs no
// output of its own beyond logging.
type ResultSink interface {
	Publish(ctx context.Context, outcome *Outcome) error
}

// Cache stores LLM responses keyed by source hash and attempt number so
// a re-run over unchanged input replays the same candidates.
type Cache interface {
	Get(ctx context.Context, sourceHash string, attempt int) (string, bool, error)
	Put(ctx context.Context, sourceHash string, attempt int, response string) error
}

var (
	// ErrLLMUnavailable signals the collaborator could not be reached.
	ErrLLMUnavailable = errors.New("llm collaborator unavailable")
	// ErrLLMTimeout signals the request exceeded its deadline.
	ErrLLMTimeout = errors.New("llm request timed out")
)
