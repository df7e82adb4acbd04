// Package content looks up study material links for a subject.
package content

import (
	"context"
	"errors"
	"strings"
)

// Link is one suggested resource.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Fetcher returns study material for a subject. The method is a learning
// style hint such as "video" or "reading"; empty means video.
type Fetcher interface {
	FetchLinks(ctx context.Context, subject, method string) ([]Link, error)
}

// Learning methods understood by the fetchers.
const (
	MethodVideo    = "video"
	MethodReading  = "reading"
	MethodVisual   = "visual"
	MethodAuditory = "auditory"
)

// ErrEmptySubject is returned when no subject is given.
var ErrEmptySubject = errors.New("subject is empty")

// Query builds the search query for a subject and learning method.
func Query(subject, method string) string {
	subject = strings.TrimSpace(subject)
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodReading:
		return subject + " lecture notes"
	case MethodVisual:
		return subject + " explained animation"
	case MethodAuditory:
		return subject + " podcast"
	default:
		return subject + " tutorial"
	}
}
