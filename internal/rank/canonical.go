// Package rank holds the pure candidate-selection heuristics: URL
// canonicalization for dedupe identity, two-pass keyword relevance scoring,
// and fuzzy title comparison.
package rank

import (
	"net/url"
	"strings"
)

// Non-utm tracking parameters stripped during canonicalization.
var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"mc_cid": {},
	"mc_eid": {},
}

// CanonicalURL normalizes a raw URL into a stable dedupe key: the fragment is
// dropped and utm_*/tracking query parameters are removed while the remaining
// parameters keep their order and multiplicity. A string that does not parse
// into a URL with both scheme and host is returned trimmed and otherwise
// untouched; that fallback is deliberate, not a failure.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.RawQuery = cleanQuery(parsed.RawQuery)

	return parsed.String()
}

// cleanQuery filters tracking parameters out of a raw query string. Kept
// segments are carried over verbatim so encoding, order, and multiplicity
// survive, which also makes canonicalization idempotent.
func cleanQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	segments := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		key := segment
		if idx := strings.Index(segment, "="); idx >= 0 {
			key = segment[:idx]
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		key = strings.ToLower(key)
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		if _, tracked := trackingParams[key]; tracked {
			continue
		}
		kept = append(kept, segment)
	}

	return strings.Join(kept, "&")
}
