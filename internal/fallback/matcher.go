// Package fallback implements the similarity matcher consulted when the
// primary classifier is absent or not confident enough.
package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
	"github.com/sujith0466/Smart-Study-Buddy/internal/nlp"
)

// DefaultThreshold is the minimum cosine similarity accepted as a match.
const DefaultThreshold = 0.3

// tieEpsilon treats float32 similarities this close as equal.
const tieEpsilon = 1e-6

const collectionName = "patterns"

// Match is the best pattern found for an input.
type Match struct {
	Tag        string
	Pattern    int
	Similarity float64
}

// Options configures a Matcher.
type Options struct {
	Threshold float64
	Logger    *slog.Logger
}

// Matcher finds the catalog pattern most similar to an input by cosine
// similarity of TF-IDF vectors. It holds no per-call state and is safe for
// concurrent use.
type Matcher struct {
	vec        *nlp.Vectorizer
	collection *chromem.Collection
	threshold  float64
	logger     *slog.Logger
}

// New indexes every pattern of the catalog.
func New(ctx context.Context, catalog *intent.Catalog, opts Options) (*Matcher, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	patterns := catalog.Patterns()
	docs := make([][]string, len(patterns))
	for i, p := range patterns {
		docs[i] = nlp.Normalize(p.Text)
	}
	vec := nlp.FitVectorizer(docs, 1)

	m := &Matcher{vec: vec, threshold: opts.Threshold, logger: opts.Logger}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(collectionName, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("create pattern collection: %w", err)
	}

	entries := make([]chromem.Document, 0, len(patterns))
	for i, p := range patterns {
		emb := vec.Transform(docs[i])
		// Patterns made only of stop words carry no signal.
		if nlp.IsZero(emb) {
			continue
		}
		entries = append(entries, chromem.Document{
			ID:        strconv.Itoa(p.Index),
			Metadata:  map[string]string{"tag": p.Tag},
			Embedding: toFloat32(emb),
			Content:   p.Text,
		})
	}
	if len(entries) > 0 {
		if err := coll.AddDocuments(ctx, entries, 1); err != nil {
			return nil, fmt.Errorf("index patterns: %w", err)
		}
	}
	m.collection = coll

	opts.Logger.Info("Fallback matcher ready", "patterns", len(entries), "features", vec.Dimensions())
	return m, nil
}

// Threshold returns the configured rejection threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the tag of the most similar pattern, or false when the best
// similarity is below the threshold.
func (m *Matcher) Match(ctx context.Context, raw string) (string, bool) {
	best, ok := m.Best(ctx, raw)
	if !ok || best.Similarity < m.threshold {
		return "", false
	}
	return best.Tag, true
}

// Best returns the most similar pattern regardless of the threshold. Ties go
// to the pattern that appears first in the catalog.
func (m *Matcher) Best(ctx context.Context, raw string) (Match, bool) {
	n := m.collection.Count()
	if n == 0 {
		return Match{}, false
	}
	q := m.vec.Transform(nlp.Normalize(raw))
	if nlp.IsZero(q) {
		return Match{}, false
	}

	results, err := m.collection.QueryEmbedding(ctx, toFloat32(q), n, nil, nil)
	if err != nil {
		m.logger.Warn("Pattern similarity query failed", "error", err)
		return Match{}, false
	}

	var best Match
	found := false
	for _, r := range results {
		idx, err := strconv.Atoi(r.ID)
		if err != nil {
			continue
		}
		sim := float64(r.Similarity)
		switch {
		case !found, sim > best.Similarity+tieEpsilon:
		case sim >= best.Similarity-tieEpsilon && idx < best.Pattern:
		default:
			continue
		}
		best = Match{Tag: r.Metadata["tag"], Pattern: idx, Similarity: sim}
		found = true
	}
	return best, found
}

func (m *Matcher) embed(_ context.Context, text string) ([]float32, error) {
	return toFloat32(m.vec.Transform(nlp.Normalize(text))), nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
