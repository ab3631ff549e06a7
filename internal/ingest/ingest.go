// Package ingest loads source files and produces immutable SourceUnit values
// for the analysis pipeline. Language detection is extension-based.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize is the largest file the pipeline will accept (5 MB).
const MaxFileSize = 5 * 1024 * 1024

var (
	// ErrFileTooLarge marks files over MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds size limit")
	// ErrBinaryFile marks files that look binary.
	ErrBinaryFile = errors.New("binary file")
)

// extensionLanguages maps file extensions to language identifiers understood
// by the parser's grammar table.
var extensionLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".rb":   "ruby",
	".go":   "go",
	".rs":   "rust",
}

// SourceUnit is one file under analysis. It is created once and never mutated.
type SourceUnit struct {
	ID       string
	Language string
	Path     string
	Text     string
	Size     int
}

// NewSourceUnit builds a SourceUnit from in-memory text. The language is
// detected from the path extension; unknown extensions yield Language "".
func NewSourceUnit(path, text string) *SourceUnit {
	return &SourceUnit{
		ID:       uuid.NewString(),
		Language: DetectLanguage(path),
		Path:     path,
		Text:     text,
		Size:     len(text),
	}
}

// WithText returns a copy of u carrying different text, preserving path and
// language. Used to wrap LLM candidates so they flow through the same
// pipeline as originals.
func (u *SourceUnit) WithText(text string) *SourceUnit {
	return &SourceUnit{
		ID:       uuid.NewString(),
		Language: u.Language,
		Path:     u.Path,
		Text:     text,
		Size:     len(text),
	}
}

// DetectLanguage returns the language identifier for a file path, or "" when
// the extension is not recognized.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return extensionLanguages[ext]
}

// Supported reports whether the path maps to a known language.
func Supported(path string) bool {
	return DetectLanguage(path) != ""
}

// Load reads a file from disk into a SourceUnit. Binary files and files over
// MaxFileSize are rejected.
func Load(path string) (*SourceUnit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrFileTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if isBinary(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}

	return NewSourceUnit(path, string(data)), nil
}

// isBinary checks the first kilobyte for NUL bytes.
func isBinary(data []byte) bool {
	if len(data) > 1024 {
		data = data[:1024]
	}
	return bytes.IndexByte(data, 0) >= 0
}
