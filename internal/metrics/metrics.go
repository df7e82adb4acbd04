// Package metrics exposes Prometheus instrumentation for dialogue turns and
// study-material lookups.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/dialogue"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	turns        *prometheus.CounterVec
	confidence   prometheus.Histogram
	linkLookups  *prometheus.CounterVec
	linkDuration prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		turns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studybuddy_turns_total",
				Help: "Dialogue turns by resolved intent and resolution source",
			},
			[]string{"intent", "source"},
		),
		confidence: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studybuddy_classifier_confidence",
				Help:    "Confidence of turns resolved by the primary classifier",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		linkLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studybuddy_link_lookups_total",
				Help: "Study material lookups by outcome",
			},
			[]string{"outcome"},
		),
		linkDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studybuddy_link_lookup_duration_seconds",
				Help:    "Time spent looking up study material",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveTurn records one completed dialogue turn.
func (m *Metrics) ObserveTurn(intent, source string, confidence float64) {
	m.turns.WithLabelValues(intent, source).Inc()
	if source == dialogue.SourceClassifier {
		m.confidence.Observe(confidence)
	}
}

// InstrumentFetcher counts and times every lookup made through next.
func (m *Metrics) InstrumentFetcher(next content.Fetcher) content.Fetcher {
	return &instrumentedFetcher{next: next, m: m}
}

type instrumentedFetcher struct {
	next content.Fetcher
	m    *Metrics
}

func (f *instrumentedFetcher) FetchLinks(ctx context.Context, subject, method string) ([]content.Link, error) {
	start := time.Now()
	links, err := f.next.FetchLinks(ctx, subject, method)
	f.m.linkDuration.Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case len(links) == 0:
		outcome = "empty"
	}
	f.m.linkLookups.WithLabelValues(outcome).Inc()
	return links, err
}

// Handler serves the collectors gathered from g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
