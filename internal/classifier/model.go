package classifier

import (
	"errors"
	"math"
	"sort"

	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
	"github.com/sujith0466/Smart-Study-Buddy/internal/nlp"
)

// DefaultAlpha is the additive smoothing used when TrainOptions leaves it unset.
const DefaultAlpha = 0.1

// ErrNoTrainingData is returned when the catalog has no patterns to learn from.
var ErrNoTrainingData = errors.New("catalog has no training patterns")

// TrainOptions tunes model training.
type TrainOptions struct {
	Alpha float64
	// NGram is the largest n-gram used as a feature. Zero means bigrams.
	NGram int
}

// Model is a trained multinomial naive Bayes classifier. It is immutable and
// safe for concurrent use.
type Model struct {
	vec            *nlp.Vectorizer
	classes        []string
	classLogPrior  []float64
	featureLogProb [][]float64
}

// Train fits a model on every pattern of the catalog.
func Train(catalog *intent.Catalog, opts TrainOptions) (*Model, error) {
	if opts.Alpha <= 0 {
		opts.Alpha = DefaultAlpha
	}
	if opts.NGram <= 0 {
		opts.NGram = 2
	}

	patterns := catalog.Patterns()
	if len(patterns) == 0 {
		return nil, ErrNoTrainingData
	}

	docs := make([][]string, len(patterns))
	classCount := make(map[string]int)
	for i, p := range patterns {
		docs[i] = nlp.Normalize(p.Text)
		classCount[p.Tag]++
	}

	classes := make([]string, 0, len(classCount))
	for tag := range classCount {
		classes = append(classes, tag)
	}
	sort.Strings(classes)
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	vec := nlp.FitVectorizer(docs, opts.NGram)
	dims := vec.Dimensions()

	counts := make([][]float64, len(classes))
	for i := range counts {
		counts[i] = make([]float64, dims)
	}
	for i, p := range patterns {
		row := counts[classIdx[p.Tag]]
		for j, x := range vec.Transform(docs[i]) {
			row[j] += x
		}
	}

	m := &Model{
		vec:            vec,
		classes:        classes,
		classLogPrior:  make([]float64, len(classes)),
		featureLogProb: make([][]float64, len(classes)),
	}
	total := float64(len(patterns))
	for i, c := range classes {
		m.classLogPrior[i] = math.Log(float64(classCount[c]) / total)

		var sum float64
		for _, x := range counts[i] {
			sum += x
		}
		denom := math.Log(sum + opts.Alpha*float64(dims))
		m.featureLogProb[i] = make([]float64, dims)
		for j, x := range counts[i] {
			m.featureLogProb[i][j] = math.Log(x+opts.Alpha) - denom
		}
	}
	return m, nil
}

// Classes returns the labels the model can predict, sorted.
func (m *Model) Classes() []string {
	return append([]string(nil), m.classes...)
}

// Features returns the size of the model's vocabulary.
func (m *Model) Features() int {
	return m.vec.Dimensions()
}

// Classify returns the most probable tag and its posterior probability.
// Input without known terms yields the prior arg-max.
func (m *Model) Classify(raw string) (Result, bool) {
	x := m.vec.Transform(nlp.Normalize(raw))

	jll := make([]float64, len(m.classes))
	for i := range m.classes {
		score := m.classLogPrior[i]
		for j, v := range x {
			if v != 0 {
				score += v * m.featureLogProb[i][j]
			}
		}
		jll[i] = score
	}

	best := 0
	for i := 1; i < len(jll); i++ {
		if jll[i] > jll[best] {
			best = i
		}
	}

	var z float64
	for _, s := range jll {
		z += math.Exp(s - jll[best])
	}
	return Result{Tag: m.classes[best], Confidence: 1 / z}, true
}
