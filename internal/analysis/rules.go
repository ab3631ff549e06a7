package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"refactory/internal/parser"
)

// unusedVariableRule reports bindings introduced and never referenced in
// their enclosing scope. Scopes are the file root and each function body;
// usages inside nested functions count for the enclosing scope (closures).
type unusedVariableRule struct{}

func (r *unusedVariableRule) ID() string { return "unused-variable" }

func (r *unusedVariableRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	var findings []Finding

	scopes := append([]*parser.Node{tree.Root}, tree.Functions()...)
	for _, scope := range scopes {
		if scope.Err {
			// Error regions are opaque: no semantic judgment.
			continue
		}
		findings = append(findings, r.checkScope(scope)...)
	}
	return findings
}

type binding struct {
	name string
	node *parser.Node
}

func (r *unusedVariableRule) checkScope(scope *parser.Node) []Finding {
	var bindings []binding
	collectBindings(scope, scope, &bindings)
	if len(bindings) == 0 {
		return nil
	}

	used := make(map[string]bool)
	scope.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.KindIdentifier && !n.DefSite {
			used[n.Text] = true
		}
		return true
	})

	var findings []Finding
	for _, b := range bindings {
		if used[b.name] || b.name == "_" || strings.HasPrefix(b.name, "__") {
			continue
		}
		findings = append(findings, Finding{
			Severity:     SeverityWarning,
			Message:      fmt.Sprintf("variable %q assigned but never used", b.name),
			Line:         b.node.Span.StartLine,
			Column:       b.node.Span.StartCol,
			EndLine:      b.node.Span.EndLine,
			EndColumn:    b.node.Span.EndCol,
			SuggestedFix: fmt.Sprintf("remove the unused binding %q", b.name),
		})
	}
	return findings
}

// collectBindings gathers def-site identifiers in a scope, not descending
// into nested functions (those are their own scopes).
func collectBindings(n, scope *parser.Node, out *[]binding) {
	if n != scope && n.Kind == parser.KindFunction {
		return
	}
	if n.Kind == parser.KindIdentifier && n.DefSite && !n.ParamSite {
		*out = append(*out, binding{name: n.Text, node: n})
	}
	for _, c := range n.Children {
		collectBindings(c, scope, out)
	}
}

// unusedImportRule reports imports whose bindings are never referenced.
type unusedImportRule struct{}

func (r *unusedImportRule) ID() string { return "unused-import" }

func (r *unusedImportRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	imports := tree.Imports()
	if len(imports) == 0 {
		return nil
	}

	importSpans := make(map[*parser.Node]bool, len(imports))
	for _, imp := range imports {
		importSpans[imp] = true
	}

	used := make(map[string]bool)
	var walk func(n *parser.Node)
	walk = func(n *parser.Node) {
		if importSpans[n] {
			return
		}
		if n.Kind == parser.KindIdentifier && !n.DefSite {
			used[n.Text] = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree.Root)

	var findings []Finding
	for _, imp := range imports {
		if imp.Err {
			continue
		}
		for _, name := range imp.Names {
			if used[name] {
				continue
			}
			findings = append(findings, Finding{
				Severity:     SeverityWarning,
				Message:      fmt.Sprintf("%q imported but not used", name),
				Line:         imp.Span.StartLine,
				Column:       imp.Span.StartCol,
				EndLine:      imp.Span.EndLine,
				EndColumn:    imp.Span.EndCol,
				SuggestedFix: fmt.Sprintf("remove the unused import %q", name),
			})
		}
	}
	return findings
}

// securityRule flags dangerous call shapes and hardcoded secrets.
type securityRule struct{}

func (r *securityRule) ID() string { return "security" }

// dangerousCalls lists eval-like call targets per language.
var dangerousCalls = map[string]map[string]bool{
	"python":     {"eval": true, "exec": true, "os.system": true},
	"javascript": {"eval": true, "Function": true},
	"typescript": {"eval": true, "Function": true},
	"ruby":       {"eval": true, "system": true, "exec": true},
	"c":          {"system": true, "gets": true},
	"cpp":        {"system": true, "gets": true},
}

var secretPattern = regexp.MustCompile(
	`(?i)(api[_-]?key|secret|passwd|password|token)\s*[:=]\s*["'][^"']{8,}["']`)

func (r *securityRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	var findings []Finding

	if danger := dangerousCalls[tree.Language]; danger != nil {
		tree.Root.Walk(func(n *parser.Node) bool {
			if n.Kind == parser.KindCall && danger[n.Name] {
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Message:   fmt.Sprintf("use of dangerous function %q", n.Name),
					Line:      n.Span.StartLine,
					Column:    n.Span.StartCol,
					EndLine:   n.Span.EndLine,
					EndColumn: n.Span.EndCol,
				})
			}
			return true
		})
	}

	for i, line := range strings.Split(tree.Unit.Text, "\n") {
		loc := secretPattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		findings = append(findings, Finding{
			Severity:     SeverityError,
			Message:      "possible hardcoded secret",
			Line:         i + 1,
			Column:       loc[0] + 1,
			EndLine:      i + 1,
			EndColumn:    loc[1] + 1,
			SuggestedFix: "move the credential into configuration or the environment",
		})
	}
	return findings
}

// longFunctionRule reports functions longer than the configured limit.
type longFunctionRule struct {
	maxLines int
}

func (r *longFunctionRule) ID() string { return "long-function" }

func (r *longFunctionRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	var findings []Finding
	for _, fn := range tree.Functions() {
		length := fn.Span.EndLine - fn.Span.StartLine + 1
		if length <= r.maxLines {
			continue
		}
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("function %s spans %d lines, exceeding the maximum of %d",
				functionLabel(fn), length, r.maxLines),
			Line:      fn.Span.StartLine,
			Column:    fn.Span.StartCol,
			EndLine:   fn.Span.EndLine,
			EndColumn: fn.Span.EndCol,
		})
	}
	return findings
}

// tooManyParamsRule reports functions with more parameters than allowed.
type tooManyParamsRule struct {
	maxParams int
}

func (r *tooManyParamsRule) ID() string { return "too-many-params" }

func (r *tooManyParamsRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	var findings []Finding
	for _, fn := range tree.Functions() {
		if fn.Params <= r.maxParams {
			continue
		}
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("function %s has %d parameters, exceeding the maximum of %d",
				functionLabel(fn), fn.Params, r.maxParams),
			Line:      fn.Span.StartLine,
			Column:    fn.Span.StartCol,
			EndLine:   fn.Span.EndLine,
			EndColumn: fn.Span.EndCol,
		})
	}
	return findings
}

// deepNestingRule reports blocks nested deeper than the configured limit.
type deepNestingRule struct {
	maxDepth int
}

func (r *deepNestingRule) ID() string { return "deep-nesting" }

var nestingKinds = map[parser.Kind]bool{
	parser.KindConditional: true,
	parser.KindLoop:        true,
	parser.KindSwitch:      true,
	parser.KindTry:         true,
	parser.KindFunction:    true,
	parser.KindClass:       true,
}

func (r *deepNestingRule) Evaluate(tree *parser.SyntaxTree) []Finding {
	var findings []Finding
	var walk func(n *parser.Node, depth int)
	walk = func(n *parser.Node, depth int) {
		if nestingKinds[n.Kind] {
			depth++
			if depth > r.maxDepth {
				findings = append(findings, Finding{
					Severity: SeverityWarning,
					Message: fmt.Sprintf("nesting depth %d exceeds the maximum of %d",
						depth, r.maxDepth),
					Line:      n.Span.StartLine,
					Column:    n.Span.StartCol,
					EndLine:   n.Span.EndLine,
					EndColumn: n.Span.EndCol,
				})
			}
		}
		for _, c := range n.Children {
			walk(c, depth)
		}
	}
	walk(tree.Root, 0)
	return findings
}

func functionLabel(fn *parser.Node) string {
	if fn.Name != "" {
		return fmt.Sprintf("%q", fn.Name)
	}
	return fmt.Sprintf("at line %d", fn.Span.StartLine)
}
