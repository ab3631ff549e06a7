package refactor

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*)\n(.*?)```")

var chatterPrefixes = []string{
	"here's the refactored code",
	"here is the refactored code",
	"refactored code:",
	"the refactored code is",
	"here's the improved version",
	"improved code:",
	"here's the code",
	"this code",
	"the code",
	"i've refactored",
	"i refactored",
	"the refactored",
	"note:",
	"explanation:",
}

// CleanOutput strips markdown fences and conversational filler from raw
// LLM output, leaving only the code.
func CleanOutput(raw string) string {
	code := strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(code); m != nil {
		code = m[1]
	} else {
		code = strings.TrimPrefix(code, "```")
		code = strings.TrimSuffix(code, "```")
	}

	var kept []string
	for _, line := range strings.Split(code, "\n") {
		stripped := strings.ToLower(strings.TrimSpace(line))
		if len(kept) == 0 && stripped == "" {
			continue
		}
		if isChatter(stripped) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isChatter(line string) bool {
	for _, prefix := range chatterPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
