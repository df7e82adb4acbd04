// Package api provides HTTP handlers for the Smart Study Buddy API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/store"
)

// defaultLinkTimeout bounds each study-material lookup.
const defaultLinkTimeout = 5 * time.Second

// Handler provides common handler utilities.
type Handler struct {
	repo        store.Repository
	links       content.Fetcher
	linkTimeout time.Duration
}

// NewHandler creates a new Handler with common dependencies. A nil fetcher
// falls back to search links.
func NewHandler(repo store.Repository, links content.Fetcher, linkTimeout time.Duration) *Handler {
	if links == nil {
		links = content.StaticFetcher{}
	}
	if linkTimeout <= 0 {
		linkTimeout = defaultLinkTimeout
	}
	return &Handler{
		repo:        repo,
		links:       links,
		linkTimeout: linkTimeout,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
