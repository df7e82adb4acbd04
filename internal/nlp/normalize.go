// Package nlp provides the lexical normalization and term weighting shared by
// the intent classifier and the similarity fallback matcher.
package nlp

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/blevesearch/segment"
)

// maxStemPasses bounds the fixpoint iteration in Lemma.
const maxStemPasses = 8

// Normalize lowercases text, splits it on Unicode word boundaries, keeps only
// alphanumeric tokens, drops stop words and reduces every survivor to its lemma.
// The result is deterministic and Normalize never fails: tokens that cannot be
// reduced pass through unchanged, tokens with punctuation are dropped.
func Normalize(text string) []string {
	words := Tokenize(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopWord(w) {
			continue
		}
		lemma := Lemma(w)
		if lemma == "" || IsStopWord(lemma) {
			continue
		}
		out = append(out, lemma)
	}
	return out
}

// Tokenize returns the lowercased alphanumeric words of text in order.
func Tokenize(text string) []string {
	seg := segment.NewWordSegmenter(strings.NewReader(strings.ToLower(text)))
	var words []string
	for seg.Segment() {
		tok := string(seg.Bytes())
		if isAlphanumeric(tok) {
			words = append(words, tok)
		}
	}
	// Segmenter errors only surface for reader failures, which a strings.Reader
	// never produces; whatever was segmented so far is the best effort result.
	return words
}

// Lemma reduces a lowercase word to its canonical form. The Porter stemmer is
// applied until the word stops changing so that Lemma(Lemma(w)) == Lemma(w).
func Lemma(word string) string {
	cur := word
	for i := 0; i < maxStemPasses; i++ {
		next := porterstemmer.StemString(cur)
		if next == cur || next == "" {
			return cur
		}
		cur = next
	}
	return cur
}

// Text joins normalized tokens back into a single string.
func Text(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Terms expands tokens into the unigram..maxN n-gram terms used for feature
// extraction. Multi-word terms are joined with a single space.
func Terms(tokens []string, maxN int) []string {
	if maxN < 1 {
		maxN = 1
	}
	terms := make([]string, 0, len(tokens)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func isAlphanumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
