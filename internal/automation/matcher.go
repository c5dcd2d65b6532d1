package automation

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultSimilarityThreshold is the minimum fuzzy score for a keyword
// segment to match when no threshold is configured.
const DefaultSimilarityThreshold = 0.7

// MatchKeyword reports whether keyword matches text. The keyword may carry
// several comma-separated alternatives; each segment is evaluated on its
// own and the first hit wins. A segment matches on case-insensitive
// substring containment, or when its Sørensen–Dice similarity against the
// whole text reaches threshold. Empty text and empty keywords never match.
func MatchKeyword(text, keyword string, threshold float64) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	dice := metrics.NewSorensenDice()
	for _, segment := range strings.Split(keyword, ",") {
		segment = strings.ToLower(strings.TrimSpace(segment))
		if segment == "" {
			continue
		}
		if strings.Contains(text, segment) {
			return true
		}
		if strutil.Similarity(text, segment, dice) >= threshold {
			return true
		}
	}
	return false
}

// Similarity exposes the raw score used by MatchKeyword, for the rule
// dry-run endpoint.
func Similarity(text, keyword string) float64 {
	return strutil.Similarity(strings.ToLower(text), strings.ToLower(keyword), metrics.NewSorensenDice())
}
