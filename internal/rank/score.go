package rank

import "strings"

// Score weights; additive and order-independent.
const (
	corePhraseWeight     = 100
	coreTokenWeight      = 15
	relatedKeywordWeight = 8
	domainSignalWeight   = 6
)

// Terms that signal the housing-sale problem domain regardless of the
// configured keyword set.
var domainSignalTerms = []string{"분양", "청약", "공고", "입주자모집"}

// ScoreRelevance computes the integer relevance of a candidate against the
// keyword set. It is invoked twice per candidate: a cheap pre-pass with an
// empty body, and a final pass after full-text extraction. Keeping the two
// passes separate is what bounds the number of expensive extraction calls.
func ScoreRelevance(coreKeyword string, relatedKeywords []string, title, snippet, body string) int {
	merged := strings.ToLower(title + " " + snippet + " " + body)
	score := 0

	core := strings.TrimSpace(strings.ToLower(coreKeyword))
	if core != "" && strings.Contains(merged, core) {
		score += corePhraseWeight
	}

	seen := map[string]struct{}{}
	for _, token := range strings.Fields(core) {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if strings.Contains(merged, token) {
			score += coreTokenWeight
		}
	}

	for _, keyword := range relatedKeywords {
		lowered := strings.TrimSpace(strings.ToLower(keyword))
		if lowered != "" && strings.Contains(merged, lowered) {
			score += relatedKeywordWeight
		}
	}

	for _, term := range domainSignalTerms {
		if strings.Contains(merged, term) {
			score += domainSignalWeight
		}
	}

	return score
}
