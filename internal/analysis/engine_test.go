package analysis

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"refactory/internal/ingest"
	"refactory/internal/parser"
)

const messySource = `import os
import sys

def process(a, b, c, d, e, f, g):
    unused = 1
    result = eval("a")
    return result
`

func parseFixture(t *testing.T) *parser.SyntaxTree {
	t.Helper()
	tree, err := parser.NewAdapter(nil).Parse(context.Background(), ingest.NewSourceUnit("messy.py", messySource))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return tree
}

func TestRunDeterminism(t *testing.T) {
	tree := parseFixture(t)
	engine := NewEngine(Thresholds{}, nil)

	first, err := engine.Run(context.Background(), tree)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := engine.Run(context.Background(), tree)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestRunSortedByPosition(t *testing.T) {
	tree := parseFixture(t)
	findings, err := NewEngine(Thresholds{}, nil).Run(context.Background(), tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) < 3 {
		t.Fatalf("expected several findings, got %d", len(findings))
	}
	sorted := sort.SliceIsSorted(findings, func(a, b int) bool {
		if findings[a].Line != findings[b].Line {
			return findings[a].Line < findings[b].Line
		}
		if findings[a].Column != findings[b].Column {
			return findings[a].Column < findings[b].Column
		}
		return findings[a].RuleID < findings[b].RuleID
	})
	if !sorted {
		t.Errorf("findings not sorted: %+v", findings)
	}
}

func TestRunRuleFilter(t *testing.T) {
	tree := parseFixture(t)
	findings, err := NewEngine(Thresholds{}, nil).Run(context.Background(), tree, "security")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range findings {
		if f.RuleID != "security" {
			t.Errorf("unexpected rule %s in filtered run", f.RuleID)
		}
	}
	if len(findings) == 0 {
		t.Error("expected security findings")
	}
}

type panickyRule struct{}

func (panickyRule) ID() string { return "panicky" }
func (panickyRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	panic("boom")
}

type constantRule struct{}

func (constantRule) ID() string { return "constant" }
func (constantRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	return []Finding{{Severity: SeverityInfo, Message: "hello", Line: 1, Column: 1}}
}

func TestRuleFaultIsolation(t *testing.T) {
	tree := parseFixture(t)
	engine := &Engine{rules: []Rule{panickyRule{}, constantRule{}}, log: zap.NewNop()}

	findings, err := engine.Run(context.Background(), tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 || findings[0].RuleID != "constant" {
		t.Fatalf("expected only the healthy rule's finding, got %+v", findings)
	}
}

func TestDedupeSameRuleSameSpan(t *testing.T) {
	in := []Finding{
		{Line: 3, Column: 1, EndLine: 3, EndColumn: 10, Message: "a"},
		{Line: 3, Column: 1, EndLine: 3, EndColumn: 10, Message: "b"},
		{Line: 4, Column: 1, EndLine: 4, EndColumn: 2, Message: "c"},
	}
	out := dedupe("r", in)
	if len(out) != 2 {
		t.Fatalf("expected 2 findings after dedupe, got %d", len(out))
	}
	for _, f := range out {
		if f.RuleID != "r" {
			t.Errorf("dedupe must stamp the rule id, got %q", f.RuleID)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	tree := parseFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine(Thresholds{}, nil).Run(ctx, tree); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity([]Finding{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
	})
	if counts[SeverityError] != 1 || counts[SeverityWarning] != 2 || counts[SeverityInfo] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}
