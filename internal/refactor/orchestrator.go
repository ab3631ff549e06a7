package refactor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"refactory/internal/analysis"
	"refactory/internal/ingest"
	"refactory/internal/parser"
	"refactory/internal/scoring"
)

// Options tune one Orchestrator instance.
type Options struct {
	// MaxRetryAttempts caps request attempts per unit. Default 3.
	MaxRetryAttempts int
	// RequestTimeout bounds a single LLM round trip. Default 60s.
	RequestTimeout time.Duration
	// MaxConcurrent caps units processed in parallel. Default 4.
	MaxConcurrent int
	// SkipMarker, when non-empty, skips units whose first line contains
	// it. Guards against re-refactoring already processed sources.
	SkipMarker string
}

func (o Options) withDefaults() Options {
	if o.MaxRetryAttempts <= 0 {
		o.MaxRetryAttempts = 3
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	return o
}

// Orchestrator runs the per-unit state machine. Units are processed in
// parallel; retries of one unit are strictly sequential.
type Orchestrator struct {
	parser *parser.Adapter
	engine *analysis.Engine
	scorer *scoring.Scorer
	client RefactorClient
	opts   Options
	log    *zap.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(p *parser.Adapter, e *analysis.Engine, s *scoring.Scorer, client RefactorClient, opts Options, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		parser: p,
		engine: e,
		scorer: s,
		client: client,
		opts:   opts.withDefaults(),
		log:    log.Named("orchestrator"),
	}
}

// Analyze runs parsing, linting and complexity analysis on a unit
// without requesting any refactor.
func (o *Orchestrator) Analyze(ctx context.Context, unit *ingest.SourceUnit) (*Outcome, error) {
	out := &Outcome{Unit: unit, Path: unit.Path, Language: unit.Language}

	tree, err := o.parser.Parse(ctx, unit)
	if err != nil {
		if errors.Is(err, parser.ErrParse) {
			out.State = StateRejected
			out.Reason = scoring.ReasonOriginalUnparseable
			return out, nil
		}
		return nil, err
	}
	if tree.HadErrors {
		// Syntax errors in the original mean nothing downstream can be
		// trusted; no refactor is attempted.
		out.State = StateRejected
		out.Reason = scoring.ReasonOriginalUnparseable
		return out, nil
	}

	findings, err := o.engine.Run(ctx, tree)
	if err != nil {
		return nil, err
	}
	out.Findings = findings
	out.Complexity = analysis.AnalyzeComplexity(tree)
	out.Original = o.scorer.Score(unit.Text, unit.Text, findings, out.Complexity)
	out.State = StateAnalyzing
	return out, nil
}

// Process takes one unit through the full state machine to a terminal
// state. All failures below the pipeline boundary are folded into the
// outcome; the returned error is reserved for unsupported languages and
// context cancellation.
func (o *Orchestrator) Process(ctx context.Context, unit *ingest.SourceUnit) (*Outcome, error) {
	log := o.log.With(zap.String("path", unit.Path), zap.String("unit", unit.ID))

	out, err := o.Analyze(ctx, unit)
	if err != nil {
		return nil, err
	}
	if out.State.Terminal() {
		log.Warn("original does not parse, rejecting", zap.String("reason", out.Reason))
		return out, nil
	}

	var prev *Attempt
	for attempt := 1; attempt <= o.opts.MaxRetryAttempts; attempt++ {
		last := attempt == o.opts.MaxRetryAttempts
		a := o.runAttempt(ctx, out, attempt, prev, log)
		out.Attempts = append(out.Attempts, a)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if a.Verdict != nil && a.Verdict.Accepted {
			out.State = StateAccepted
			out.Candidate = a.Candidate
			out.Verdict = a.Verdict
			log.Info("candidate accepted",
				zap.Int("attempt", attempt),
				zap.Float64("delta", a.Verdict.Delta))
			return out, nil
		}

		if last {
			break
		}
		out.State = StateRetrying
		prev = &out.Attempts[len(out.Attempts)-1]
		log.Debug("retrying", zap.Int("attempt", attempt))
	}

	// Budget spent. A scored-but-not-better last candidate is a
	// rejection; anything else never produced a valid candidate.
	lastAttempt := out.Attempts[len(out.Attempts)-1]
	if lastAttempt.Verdict != nil {
		out.State = StateRejected
		out.Reason = lastAttempt.Verdict.Reason
		out.Verdict = lastAttempt.Verdict
	} else {
		out.State = StateExhausted
		out.Reason = scoring.ReasonExhaustedRetries
	}
	log.Info("pipeline finished without acceptance",
		zap.String("state", string(out.State)),
		zap.String("reason", out.Reason))
	return out, nil
}

// runAttempt performs one Requesting → Validating → Scoring cycle.
func (o *Orchestrator) runAttempt(ctx context.Context, out *Outcome, number int, prev *Attempt, log *zap.Logger) Attempt {
	a := Attempt{Number: number}

	reqCtx, cancel := context.WithTimeout(ctx, o.opts.RequestTimeout)
	defer cancel()

	candidate, err := o.client.RequestRefactor(reqCtx, &RefactorRequest{
		Unit:       out.Unit,
		Findings:   out.Findings,
		Complexity: out.Complexity,
		Previous:   prev,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		a.Err = err.Error()
		log.Warn("refactor request failed", zap.Int("attempt", number), zap.Error(err))
		return a
	}
	a.Candidate = CleanOutput(candidate)

	// Validating: the candidate must re-parse without fatal errors.
	candUnit := out.Unit.WithText(a.Candidate)
	tree, err := o.parser.Parse(ctx, candUnit)
	if err != nil || tree.HadErrors {
		a.Status = InvalidSyntax
		log.Debug("candidate failed syntax gate", zap.Int("attempt", number))
		return a
	}

	candFindings, err := o.engine.Run(ctx, tree)
	if err != nil {
		a.Err = err.Error()
		return a
	}
	if scoring.IntroducesNewErrors(out.Findings, candFindings) {
		a.Status = InvalidPolicy
		log.Debug("candidate failed policy gate", zap.Int("attempt", number))
		return a
	}
	a.Status = ValidOK

	// Scoring.
	candComplexity := analysis.AnalyzeComplexity(tree)
	candScore := o.scorer.Score(a.Candidate, out.Unit.Text, candFindings, candComplexity)
	verdict := o.scorer.Compare(out.Original, candScore, out.Findings, candFindings)
	a.Verdict = &verdict
	return a
}

// ProcessAll runs the pipeline over every unit with bounded parallelism
// and publishes each terminal outcome to the sink. Unsupported units are
// logged and skipped; per-unit outcomes are never lost to another unit's
// failure.
func (o *Orchestrator) ProcessAll(ctx context.Context, units []*ingest.SourceUnit, sink ResultSink) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.MaxConcurrent)

	for i, unit := range units {
		if o.skip(unit) {
			o.log.Info("skipping already refactored unit", zap.String("path", unit.Path))
			continue
		}
		i, unit := i, unit
		g.Go(func() error {
			out, err := o.Process(gctx, unit)
			if err != nil {
				if errors.Is(err, parser.ErrUnsupportedLanguage) {
					o.log.Warn("skipping unsupported language",
						zap.String("path", unit.Path),
						zap.String("language", unit.Language))
					return nil
				}
				return err
			}
			outcomes[i] = out
			if sink != nil {
				if err := sink.Publish(gctx, out); err != nil {
					o.log.Error("sink publish failed",
						zap.String("path", unit.Path), zap.Error(err))
				}
			}
			return nil
		})
	}

	err := g.Wait()

	kept := outcomes[:0]
	for _, out := range outcomes {
		if out != nil {
			kept = append(kept, out)
		}
	}
	return kept, err
}

func (o *Orchestrator) skip(unit *ingest.SourceUnit) bool {
	if o.opts.SkipMarker == "" {
		return false
	}
	first, _, _ := strings.Cut(unit.Text, "\n")
	return strings.Contains(first, o.opts.SkipMarker)
}
