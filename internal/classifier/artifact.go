package classifier

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sujith0466/Smart-Study-Buddy/internal/nlp"
)

const artifactVersion = 1

// ErrCorruptArtifact is returned when an artifact decodes but is inconsistent.
var ErrCorruptArtifact = errors.New("corrupt classifier artifact")

type artifact struct {
	Version        int                 `json:"version"`
	Fingerprint    string              `json:"fingerprint"`
	Vectorizer     nlp.VectorizerState `json:"vectorizer"`
	Classes        []string            `json:"classes"`
	ClassLogPrior  []float64           `json:"class_log_prior"`
	FeatureLogProb [][]float64         `json:"feature_log_prob"`
}

// Save writes the model as gzip-compressed JSON tagged with the fingerprint
// of the catalog it was trained on.
func (m *Model) Save(w io.Writer, fingerprint string) error {
	zw := gzip.NewWriter(w)
	a := artifact{
		Version:        artifactVersion,
		Fingerprint:    fingerprint,
		Vectorizer:     m.vec.State(),
		Classes:        m.classes,
		ClassLogPrior:  m.classLogPrior,
		FeatureLogProb: m.featureLogProb,
	}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	return nil
}

// SaveFile writes the artifact atomically to path.
func (m *Model) SaveFile(path, fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := m.Save(tmp, fingerprint); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Load reads an artifact written by Save and returns the model with the
// fingerprint it was trained on.
func Load(r io.Reader) (*Model, string, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var a artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, "", fmt.Errorf("decode artifact: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, "", fmt.Errorf("%w: version %d, want %d", ErrCorruptArtifact, a.Version, artifactVersion)
	}

	dims := len(a.Vectorizer.Terms)
	if len(a.Vectorizer.IDF) != dims {
		return nil, "", fmt.Errorf("%w: %d terms but %d idf weights", ErrCorruptArtifact, dims, len(a.Vectorizer.IDF))
	}
	if len(a.Classes) == 0 || len(a.ClassLogPrior) != len(a.Classes) || len(a.FeatureLogProb) != len(a.Classes) {
		return nil, "", fmt.Errorf("%w: class tables disagree", ErrCorruptArtifact)
	}
	for i, row := range a.FeatureLogProb {
		if len(row) != dims {
			return nil, "", fmt.Errorf("%w: class %q has %d features, want %d", ErrCorruptArtifact, a.Classes[i], len(row), dims)
		}
	}

	return &Model{
		vec:            nlp.NewVectorizerFromState(a.Vectorizer),
		classes:        a.Classes,
		classLogPrior:  a.ClassLogPrior,
		featureLogProb: a.FeatureLogProb,
	}, a.Fingerprint, nil
}

// LoadFile opens path and reads the artifact. A missing file is reported
// with an error wrapping fs.ErrNotExist.
func LoadFile(path string) (*Model, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}
