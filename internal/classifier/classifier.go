// Package classifier implements the primary intent classifier: a multinomial
// naive Bayes model over TF-IDF features trained from the intent catalog.
package classifier

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
)

// Result is the outcome of a single classification.
type Result struct {
	Tag        string
	Confidence float64
}

// Backend classifies raw user text. The boolean is false when no trained
// model is available and the caller must fall back to other strategies.
type Backend interface {
	Classify(raw string) (Result, bool)
}

// Absent is the Backend used when no model could be loaded.
type Absent struct{}

// Classify always abstains.
func (Absent) Classify(string) (Result, bool) {
	return Result{}, false
}

// LoadBackend selects the classifier backend once at startup. A missing,
// unreadable or stale artifact disables the primary classifier; it is never
// fatal.
func LoadBackend(path string, catalog *intent.Catalog, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		logger.Warn("No classifier artifact configured, primary classifier disabled")
		return Absent{}
	}

	m, fingerprint, err := LoadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("Classifier artifact not found, primary classifier disabled", "path", path)
		return Absent{}
	case err != nil:
		logger.Error("Failed to load classifier artifact, primary classifier disabled", "path", path, "error", err)
		return Absent{}
	}

	if catalog != nil && fingerprint != catalog.Fingerprint() {
		logger.Warn("Classifier artifact was trained on a different catalog, primary classifier disabled",
			"path", path,
			"artifact_fingerprint", fingerprint,
			"catalog_fingerprint", catalog.Fingerprint(),
		)
		return Absent{}
	}

	logger.Info("Primary classifier loaded", "path", path, "classes", len(m.classes), "features", m.Features())
	return m
}
