package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"script.py", "python"},
		{"app.jsx", "javascript"},
		{"app.tsx", "typescript"},
		{"Main.java", "java"},
		{"mod.rs", "rust"},
		{"util.HPP", "cpp"},
		{"README.md", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewSourceUnit(t *testing.T) {
	unit := NewSourceUnit("pkg/main.go", "package main\n")
	if unit.ID == "" {
		t.Error("expected non-empty ID")
	}
	if unit.Language != "go" {
		t.Errorf("expected language go, got %s", unit.Language)
	}
	if unit.Size != len("package main\n") {
		t.Errorf("unexpected size %d", unit.Size)
	}
}

func TestWithTextPreservesIdentity(t *testing.T) {
	orig := NewSourceUnit("a.py", "x = 1\n")
	cand := orig.WithText("y = 2\n")

	if cand.ID == orig.ID {
		t.Error("candidate must get a fresh ID")
	}
	if cand.Language != orig.Language || cand.Path != orig.Path {
		t.Error("candidate must keep path and language")
	}
	if orig.Text != "x = 1\n" {
		t.Error("original text must not change")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.py")
	if err := os.WriteFile(path, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	unit, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if unit.Language != "python" {
		t.Errorf("expected python, got %s", unit.Language)
	}
	if !strings.Contains(unit.Text, "print") {
		t.Error("text not loaded")
	}
}

func TestLoadRejectsBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.py")
	if err := os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for binary file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.go")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
