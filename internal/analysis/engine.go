package analysis

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"refactory/internal/parser"
)

// Thresholds configures the threshold-based rules. Zero values fall back to
// the documented defaults.
type Thresholds struct {
	MaxFunctionLines int // default 50
	MaxParams        int // default 5
	MaxNestingDepth  int // default 4
}

func (t Thresholds) withDefaults() Thresholds {
	if t.MaxFunctionLines <= 0 {
		t.MaxFunctionLines = 50
	}
	if t.MaxParams <= 0 {
		t.MaxParams = 5
	}
	if t.MaxNestingDepth <= 0 {
		t.MaxNestingDepth = 4
	}
	return t
}

// Rule is one lint check. Evaluate must be a pure read of the tree; a rule
// that panics is isolated by the engine and contributes zero findings.
type Rule interface {
	ID() string
	Evaluate(tree *parser.SyntaxTree) []Finding
}

// Engine evaluates the rule registry against a syntax tree.
type Engine struct {
	rules []Rule
	log   *zap.Logger
}

// NewEngine builds the engine with the full fixed rule registry.
func NewEngine(t Thresholds, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	t = t.withDefaults()
	return &Engine{
		log: log,
		rules: []Rule{
			&unusedVariableRule{},
			&unusedImportRule{},
			&securityRule{},
			&longFunctionRule{maxLines: t.MaxFunctionLines},
			&tooManyParamsRule{maxParams: t.MaxParams},
			&deepNestingRule{maxDepth: t.MaxNestingDepth},
		},
	}
}

// RuleIDs returns the registry's rule identifiers.
func (e *Engine) RuleIDs() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.ID()
	}
	return ids
}

// Run evaluates the enabled rules concurrently and returns findings sorted
// by (line, column, rule id). Passing no ruleIDs enables every rule.
// Duplicate findings from the same rule at the same span are collapsed;
// identical spans reported by different rules are all retained.
func (e *Engine) Run(ctx context.Context, tree *parser.SyntaxTree, ruleIDs ...string) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enabled := e.rules
	if len(ruleIDs) > 0 {
		want := make(map[string]bool, len(ruleIDs))
		for _, id := range ruleIDs {
			want[id] = true
		}
		enabled = nil
		for _, r := range e.rules {
			if want[r.ID()] {
				enabled = append(enabled, r)
			}
		}
	}

	results := make([][]Finding, len(enabled))
	var wg sync.WaitGroup
	for i, rule := range enabled {
		wg.Add(1)
		go func(i int, rule Rule) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Fault isolation: a broken rule must not abort
					// its siblings.
					e.log.Error("rule fault",
						zap.String("rule", rule.ID()),
						zap.String("path", tree.Unit.Path),
						zap.Any("panic", r))
					results[i] = nil
				}
			}()
			results[i] = dedupe(rule.ID(), rule.Evaluate(tree))
		}(i, rule)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []Finding
	for _, rs := range results {
		findings = append(findings, rs...)
	}
	sort.SliceStable(findings, func(a, b int) bool {
		if findings[a].Line != findings[b].Line {
			return findings[a].Line < findings[b].Line
		}
		if findings[a].Column != findings[b].Column {
			return findings[a].Column < findings[b].Column
		}
		return findings[a].RuleID < findings[b].RuleID
	})
	return findings, nil
}

// dedupe collapses same-rule findings at identical spans.
func dedupe(ruleID string, findings []Finding) []Finding {
	type spanKey struct{ l, c, el, ec int }
	seen := make(map[spanKey]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		f.RuleID = ruleID
		k := spanKey{f.Line, f.Column, f.EndLine, f.EndColumn}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}
