package rank

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// SimilarityThreshold is the default cutoff on the 0-100 ratio scale for
// treating two headlines as the same story.
const SimilarityThreshold = 90

// IsSimilarTitle reports whether the candidate title's normalized Levenshtein
// ratio against any existing title meets or exceeds threshold. It catches
// near-duplicate stories with differently phrased headlines that slip past
// exact-URL dedupe. An empty candidate title is never similar to anything.
func IsSimilarTitle(title string, existingTitles []string, threshold int) bool {
	source := strings.ToLower(strings.TrimSpace(title))
	if source == "" {
		return false
	}

	lev := metrics.NewLevenshtein()
	for _, current := range existingTitles {
		target := strings.ToLower(strings.TrimSpace(current))
		if target == "" {
			continue
		}
		if strutil.Similarity(source, target, lev)*100 >= float64(threshold) {
			return true
		}
	}

	return false
}
