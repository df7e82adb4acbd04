package quiz

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sujith0466/Smart-Study-Buddy/internal/nlp"
)

// DefaultThreshold is the minimum similarity ratio for an answer to count.
const DefaultThreshold = 0.7

// Ratio returns the character level similarity of a and b in [0, 1].
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Scorer decides whether an answer matches a question's keywords.
type Scorer struct {
	Threshold float64
}

// Correct reports whether the whole answer, or any single word of it, is at
// least Threshold similar to one of the keywords. Comparison ignores case.
func (s Scorer) Correct(answer string, keywords []string) bool {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	full := strings.ToLower(strings.TrimSpace(answer))
	if full == "" {
		return false
	}
	candidates := append([]string{full}, nlp.Tokenize(full)...)

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for _, c := range candidates {
			if Ratio(c, kw) >= threshold {
				return true
			}
		}
	}
	return false
}
