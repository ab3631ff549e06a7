package analysis

import (
	"fmt"

	"refactory/internal/parser"
)

// FunctionComplexity holds the complexity metrics of a single function.
type FunctionComplexity struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	Cyclomatic int    `json:"cyclomatic"`
	MaxNesting int    `json:"max_nesting"`
	Lines      int    `json:"lines"`
}

// ComplexityReport aggregates per-function metrics for one source unit.
type ComplexityReport struct {
	Functions      []FunctionComplexity `json:"functions"`
	TotalCyclo     int                  `json:"total_cyclomatic"`
	MaxCyclo       int                  `json:"max_cyclomatic"`
	AverageCyclo   float64              `json:"average_cyclomatic"`
	DeepestNesting int                  `json:"deepest_nesting"`
}

// decisionKinds are the node kinds that add a decision point.
var decisionKinds = map[parser.Kind]bool{
	parser.KindConditional: true,
	parser.KindLoop:        true,
	parser.KindCaseArm:     true,
	parser.KindCatch:       true,
	parser.KindBoolOp:      true,
}

// AnalyzeComplexity computes cyclomatic complexity and nesting depth for
// every function in the tree. Nested functions are excluded from their
// parent's score and reported independently. A file with no functions
// gets a single "(file)" pseudo-entry covering the whole unit.
func AnalyzeComplexity(tree *parser.SyntaxTree) ComplexityReport {
	var report ComplexityReport

	for _, fn := range tree.Functions() {
		name := fn.Name
		if name == "" {
			name = fmt.Sprintf("fn@%d", fn.Span.StartLine)
		}
		report.Functions = append(report.Functions, FunctionComplexity{
			Name:       name,
			Line:       fn.Span.StartLine,
			Cyclomatic: cyclomatic(fn),
			MaxNesting: maxNesting(fn),
			Lines:      fn.Span.EndLine - fn.Span.StartLine + 1,
		})
	}

	if len(report.Functions) == 0 {
		report.Functions = append(report.Functions, FunctionComplexity{
			Name:       "(file)",
			Line:       1,
			Cyclomatic: cyclomatic(tree.Root),
			MaxNesting: maxNesting(tree.Root),
			Lines:      tree.Root.Span.EndLine - tree.Root.Span.StartLine + 1,
		})
	}

	for _, fc := range report.Functions {
		report.TotalCyclo += fc.Cyclomatic
		if fc.Cyclomatic > report.MaxCyclo {
			report.MaxCyclo = fc.Cyclomatic
		}
		if fc.MaxNesting > report.DeepestNesting {
			report.DeepestNesting = fc.MaxNesting
		}
	}
	report.AverageCyclo = float64(report.TotalCyclo) / float64(len(report.Functions))
	return report
}

// cyclomatic is 1 plus the number of decision points in the scope,
// excluding nested function bodies.
func cyclomatic(scope *parser.Node) int {
	count := 1
	var walk func(n *parser.Node)
	walk = func(n *parser.Node) {
		if n != scope && n.Kind == parser.KindFunction {
			return
		}
		if decisionKinds[n.Kind] {
			count++
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(scope)
	return count
}

// maxNesting is the deepest chain of nesting constructs inside the scope,
// excluding nested function bodies. The scope itself does not count.
func maxNesting(scope *parser.Node) int {
	deepest := 0
	var walk func(n *parser.Node, depth int)
	walk = func(n *parser.Node, depth int) {
		if n != scope && n.Kind == parser.KindFunction {
			return
		}
		if n != scope && nestingKinds[n.Kind] {
			depth++
			if depth > deepest {
				deepest = depth
			}
		}
		for _, c := range n.Children {
			walk(c, depth)
		}
	}
	walk(scope, 0)
	return deepest
}
