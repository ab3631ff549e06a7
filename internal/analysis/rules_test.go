package analysis

import (
	"context"
	"strings"
	"testing"

	"refactory/internal/ingest"
	"refactory/internal/parser"
)

func analyzeText(t *testing.T, path, text string, ruleIDs ...string) []Finding {
	t.Helper()
	tree, err := parser.NewAdapter(nil).Parse(context.Background(), ingest.NewSourceUnit(path, text))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	findings, err := NewEngine(Thresholds{}, nil).Run(context.Background(), tree, ruleIDs...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return findings
}

func findRule(findings []Finding, ruleID string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

func TestUnusedVariable(t *testing.T) {
	findings := analyzeText(t, "a.py", `def f():
    unused = 42
    kept = 1
    return kept
`, "unused-variable")

	got := findRule(findings, "unused-variable")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "unused") {
		t.Errorf("unexpected message %q", got[0].Message)
	}
	if got[0].Line != 2 {
		t.Errorf("expected line 2, got %d", got[0].Line)
	}
	if got[0].Severity != SeverityWarning {
		t.Errorf("expected warning, got %s", got[0].Severity)
	}
}

func TestUnusedVariableIgnoresUnderscore(t *testing.T) {
	findings := analyzeText(t, "a.py", `def f(items):
    _ = items
    __cache = 1
    return None
`, "unused-variable")

	if got := findRule(findings, "unused-variable"); len(got) != 0 {
		t.Errorf("underscore bindings must be ignored, got %v", got)
	}
}

func TestUnusedVariableClosureUse(t *testing.T) {
	// A binding referenced only inside a nested function still counts
	// as used.
	findings := analyzeText(t, "a.py", `def outer():
    captured = 1
    def inner():
        return captured
    return inner
`, "unused-variable")

	if got := findRule(findings, "unused-variable"); len(got) != 0 {
		t.Errorf("closure capture must count as use, got %v", got)
	}
}

func TestUnusedParameterNotReported(t *testing.T) {
	findings := analyzeText(t, "a.py", `def f(used, ignored):
    return used
`, "unused-variable")

	if got := findRule(findings, "unused-variable"); len(got) != 0 {
		t.Errorf("parameters must not be reported, got %v", got)
	}
}

func TestUnusedImport(t *testing.T) {
	findings := analyzeText(t, "a.py", `import os
import json

print(json.dumps({}))
`, "unused-import")

	got := findRule(findings, "unused-import")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "os") {
		t.Errorf("expected os flagged, got %q", got[0].Message)
	}
}

func TestUnusedImportGo(t *testing.T) {
	findings := analyzeText(t, "a.go", `package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("hi")
}
`, "unused-import")

	got := findRule(findings, "unused-import")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "os") {
		t.Errorf("expected os flagged, got %q", got[0].Message)
	}
}

func TestUnusedImportJavaTypeUse(t *testing.T) {
	// A type used by reference alone must count: the name never appears
	// outside type positions and the constructor call.
	findings := analyzeText(t, "A.java", `import java.util.ArrayList;

class A {
    void run() {
        ArrayList list = new ArrayList();
        list.add(1);
    }
}
`, "unused-import")

	if got := findRule(findings, "unused-import"); len(got) != 0 {
		t.Errorf("used type must not be flagged, got %v", got)
	}
}

func TestUnusedImportJavaFlagsUnused(t *testing.T) {
	findings := analyzeText(t, "A.java", `import java.util.Scanner;

class A {
    int twice(int x) {
        return x * 2;
    }
}
`, "unused-import")

	got := findRule(findings, "unused-import")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "Scanner") {
		t.Errorf("expected Scanner flagged, got %q", got[0].Message)
	}
}

func TestUnusedImportRustTypePosition(t *testing.T) {
	findings := analyzeText(t, "m.rs", `use std::collections::HashMap;

fn count_of(map: &HashMap<String, usize>) -> usize {
    map.len()
}
`, "unused-import")

	if got := findRule(findings, "unused-import"); len(got) != 0 {
		t.Errorf("type-position use must count, got %v", got)
	}
}

func TestUnusedImportTypeScript(t *testing.T) {
	findings := analyzeText(t, "m.ts", `import { join } from "path";

export function combine(parts: string[]): string {
  return join(...parts);
}
`, "unused-import")

	if got := findRule(findings, "unused-import"); len(got) != 0 {
		t.Errorf("used import must not be flagged, got %v", got)
	}
}

func TestUnusedImportGoTypeOnlyUse(t *testing.T) {
	findings := analyzeText(t, "m.go", `package main

import "net/http"

var client http.Client
`, "unused-import")

	if got := findRule(findings, "unused-import"); len(got) != 0 {
		t.Errorf("package referenced in a type must count, got %v", got)
	}
}

func TestUnusedImportSkipsBindinglessLanguages(t *testing.T) {
	cases := []struct{ path, text string }{
		{"m.c", "#include <stdio.h>\n\nint main(void) {\n    printf(\"hi\\n\");\n    return 0;\n}\n"},
		{"m.rb", "require \"json\"\n\nputs JSON.generate({})\n"},
	}
	for _, tc := range cases {
		findings := analyzeText(t, tc.path, tc.text, "unused-import")
		if got := findRule(findings, "unused-import"); len(got) != 0 {
			t.Errorf("%s: expected no findings, got %v", tc.path, got)
		}
	}
}

func TestSecurityDangerousCall(t *testing.T) {
	findings := analyzeText(t, "a.py", `user_input = "2+2"
result = eval(user_input)
print(result)
`, "security")

	got := findRule(findings, "security")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(got), got)
	}
	if got[0].Severity != SeverityError {
		t.Errorf("expected error severity, got %s", got[0].Severity)
	}
}

func TestSecurityHardcodedSecret(t *testing.T) {
	findings := analyzeText(t, "a.py", `API_KEY = "sk-1234567890abcdef"
`, "security")

	got := findRule(findings, "security")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "secret") {
		t.Errorf("unexpected message %q", got[0].Message)
	}
}

func TestLongFunction(t *testing.T) {
	var b strings.Builder
	b.WriteString("def f():\n")
	for i := 0; i < 8; i++ {
		b.WriteString("    print(1)\n")
	}

	tree, err := parser.NewAdapter(nil).Parse(context.Background(), ingest.NewSourceUnit("a.py", b.String()))
	if err != nil {
		t.Fatal(err)
	}
	findings, err := NewEngine(Thresholds{MaxFunctionLines: 5}, nil).Run(context.Background(), tree, "long-function")
	if err != nil {
		t.Fatal(err)
	}

	got := findRule(findings, "long-function")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
}

func TestTooManyParams(t *testing.T) {
	findings := analyzeText(t, "a.py", `def f(a, b, c, d, e, f2, g):
    return a
`, "too-many-params")

	got := findRule(findings, "too-many-params")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
	if !strings.Contains(got[0].Message, "7 parameters") {
		t.Errorf("unexpected message %q", got[0].Message)
	}
}

func TestDeepNesting(t *testing.T) {
	findings := analyzeText(t, "a.py", `def f(xs):
    for a in xs:
        if a:
            for b in a:
                if b:
                    print(b)
`, "deep-nesting")

	got := findRule(findings, "deep-nesting")
	if len(got) == 0 {
		t.Fatal("expected deep nesting finding")
	}
}

func TestShallowNestingClean(t *testing.T) {
	findings := analyzeText(t, "a.py", `def f(xs):
    for a in xs:
        if a:
            print(a)
`, "deep-nesting")

	if got := findRule(findings, "deep-nesting"); len(got) != 0 {
		t.Errorf("expected no findings, got %v", got)
	}
}
