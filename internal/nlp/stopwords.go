package nlp

// stopWords are the function words ignored during normalization. Question words
// and most pronouns are kept: "how are you" and "quiz me" must not collapse to
// nothing.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {},
	"is": {}, "are": {}, "be": {}, "was": {}, "were": {},
	"to": {}, "in": {}, "for": {}, "on": {}, "of": {},
	"that": {}, "it": {}, "this": {}, "with": {}, "as": {},
	"at": {}, "by": {}, "not": {}, "you": {}, "so": {},
}

// IsStopWord reports whether a lowercase token is ignored during normalization.
func IsStopWord(tok string) bool {
	_, ok := stopWords[tok]
	return ok
}
