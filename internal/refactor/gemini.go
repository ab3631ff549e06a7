package refactor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const refactorSystemPrompt = `You are a professional code-refactoring assistant.

Given the following code and its issues, produce a refactored version.

Rules:
- Return ONLY the refactored code, no explanation
- Preserve functionality and public API
- Fix all mentioned issues
- Use idiomatic, clean code
- Do not add comments explaining changes
- Do not use markdown fences`

// GeminiClient implements RefactorClient on the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClient creates a Gemini-backed refactor collaborator.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// RequestRefactor asks the model for a refactored candidate. The raw
// response comes back untrimmed; callers clean it.
func (c *GeminiClient) RequestRefactor(ctx context.Context, req *RefactorRequest) (string, error) {
	prompt := buildPrompt(req)

	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(refactorSystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(c.temperature),
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrLLMUnavailable)
	}
	return text, nil
}

// buildPrompt renders the original text, its findings and complexity
// metrics, and any prior failed attempt into one request.
func buildPrompt(req *RefactorRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Language: %s\n\nOriginal Code:\n%s\n\n", req.Unit.Language, req.Unit.Text)

	b.WriteString("Issues Found:\n")
	if len(req.Findings) == 0 {
		b.WriteString("- none\n")
	}
	for _, f := range req.Findings {
		fmt.Fprintf(&b, "- line %d [%s/%s]: %s\n", f.Line, f.Severity, f.RuleID, f.Message)
	}

	b.WriteString("\nComplexity:\n")
	for _, fn := range req.Complexity.Functions {
		fmt.Fprintf(&b, "- %s (line %d): cyclomatic %d, nesting %d, %d lines\n",
			fn.Name, fn.Line, fn.Cyclomatic, fn.MaxNesting, fn.Lines)
	}

	if req.Previous != nil {
		b.WriteString("\nA previous attempt was not acceptable")
		switch {
		case req.Previous.Status == InvalidSyntax:
			b.WriteString(" because it did not parse. Produce syntactically valid code.\n")
		case req.Previous.Status == InvalidPolicy:
			b.WriteString(" because it introduced new errors. Do not add new issues.\n")
		case req.Previous.Verdict != nil:
			fmt.Fprintf(&b, " (%s). Improve further while keeping the structure close to the original.\n",
				req.Previous.Verdict.Reason)
		default:
			b.WriteString(". Try again.\n")
		}
	}

	b.WriteString("\nRefactored Code:")
	return b.String()
}

// Close releases the underlying API client. The genai HTTP client holds no
// resources that need explicit release.
func (c *GeminiClient) Close() error {
	return nil
}
