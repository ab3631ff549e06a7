package scoring

import "strings"

// Perplexity is a cheap fluency proxy: long lines and low token diversity
// both push the value up. It never gates acceptance on its own and only
// breaks ties between otherwise equivalent maintainability deltas. The
// result is clamped to [10, 100]; lower reads as more fluent.
func Perplexity(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 10
	}

	lines := strings.Split(text, "\n")
	totalLen := 0
	counted := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		totalLen += len(trimmed)
		counted++
	}
	if counted == 0 {
		return 10
	}
	avgLineLen := float64(totalLen) / float64(counted)

	unique := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		unique[t] = true
	}
	diversity := float64(len(unique)) / float64(len(tokens))

	p := (avgLineLen / 2) * (1 / diversity)
	if p < 10 {
		return 10
	}
	if p > 100 {
		return 100
	}
	return p
}
