package nlp

import (
	"math"
	"sort"
)

// Vectorizer maps token sequences to L2-normalized TF-IDF vectors over a fixed
// vocabulary learned from a document collection. It is immutable after
// construction and safe for concurrent use.
type Vectorizer struct {
	vocab map[string]int
	terms []string
	idf   []float64
	ngram int
}

// VectorizerState is the serializable form of a Vectorizer.
type VectorizerState struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`
	NGram int       `json:"ngram"`
}

// FitVectorizer learns the vocabulary and smoothed inverse document frequencies
// of docs, where every document is an already normalized token sequence:
// idf(t) = ln((1+n)/(1+df(t))) + 1.
func FitVectorizer(docs [][]string, ngram int) *Vectorizer {
	if ngram < 1 {
		ngram = 1
	}
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, t := range Terms(doc, ngram) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	return newVectorizer(terms, idf, ngram)
}

// NewVectorizerFromState rebuilds a Vectorizer from its serialized state.
func NewVectorizerFromState(st VectorizerState) *Vectorizer {
	terms := append([]string(nil), st.Terms...)
	idf := append([]float64(nil), st.IDF...)
	return newVectorizer(terms, idf, st.NGram)
}

func newVectorizer(terms []string, idf []float64, ngram int) *Vectorizer {
	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	if ngram < 1 {
		ngram = 1
	}
	return &Vectorizer{vocab: vocab, terms: terms, idf: idf, ngram: ngram}
}

// State returns the serializable form of v.
func (v *Vectorizer) State() VectorizerState {
	return VectorizerState{
		Terms: append([]string(nil), v.terms...),
		IDF:   append([]float64(nil), v.idf...),
		NGram: v.ngram,
	}
}

// Dimensions is the vocabulary size.
func (v *Vectorizer) Dimensions() int {
	return len(v.terms)
}

// Transform returns the TF-IDF vector of a normalized token sequence. Terms
// outside the vocabulary are ignored; an input without known terms yields the
// zero vector.
func (v *Vectorizer) Transform(tokens []string) []float64 {
	vec := make([]float64, len(v.terms))
	for _, t := range Terms(tokens, v.ngram) {
		if i, ok := v.vocab[t]; ok {
			vec[i]++
		}
	}
	var norm float64
	for i := range vec {
		if vec[i] == 0 {
			continue
		}
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// IsZero reports whether every component of vec is zero.
func IsZero(vec []float64) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of two equally sized vectors, or 0 when
// either is the zero vector.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
