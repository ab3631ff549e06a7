package scoring

import (
	"math"
	"regexp"
	"strings"
)

const maxNGram = 4

var (
	tokenPattern        = regexp.MustCompile(`\w+|[^\s\w]`)
	lineCommentPattern  = regexp.MustCompile(`(?m)(//|#).*$`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Similarity is a BLEU-like clipped n-gram precision between reference
// and candidate code, in [0, 1]. Comments are stripped before tokenizing
// so reworded documentation does not count as a rewrite. Identical texts
// score exactly 1.0.
func Similarity(reference, candidate string) float64 {
	ref := tokenize(reference)
	cand := tokenize(candidate)

	if len(ref) == 0 && len(cand) == 0 {
		return 1.0
	}
	if len(ref) == 0 || len(cand) == 0 {
		return 0.0
	}

	limit := maxNGram
	if len(ref) < limit {
		limit = len(ref)
	}
	if len(cand) < limit {
		limit = len(cand)
	}

	logSum := 0.0
	for n := 1; n <= limit; n++ {
		p, total := clippedPrecision(ref, cand, n)
		if p == 0 {
			if n == 1 {
				// No shared tokens at all.
				return 0.0
			}
			// Smooth higher-order zeros so one missing n-gram does not
			// wipe out the whole score.
			p = 1 / (2 * float64(total))
		}
		logSum += math.Log(p)
	}
	score := math.Exp(logSum / float64(limit))

	// Brevity penalty: a candidate much shorter than the reference cannot
	// claim high overlap just by keeping a prefix.
	if len(cand) < len(ref) {
		score *= math.Exp(1 - float64(len(ref))/float64(len(cand)))
	}
	if score > 1 {
		score = 1
	}
	return score
}

func tokenize(text string) []string {
	text = blockCommentPattern.ReplaceAllString(text, " ")
	text = lineCommentPattern.ReplaceAllString(text, "")
	raw := tokenPattern.FindAllString(text, -1)
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}

// clippedPrecision counts candidate n-grams that appear in the reference,
// each reference n-gram usable at most as often as it occurs there. It
// returns the precision and the candidate n-gram total.
func clippedPrecision(ref, cand []string, n int) (float64, int) {
	refCounts := ngramCounts(ref, n)
	candCounts := ngramCounts(cand, n)

	matched, total := 0, 0
	for gram, count := range candCounts {
		total += count
		if rc := refCounts[gram]; rc < count {
			matched += rc
		} else {
			matched += count
		}
	}
	if total == 0 {
		return 0, 1
	}
	return float64(matched) / float64(total), total
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}
