package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujith0466/Smart-Study-Buddy/internal/chat"
	"github.com/sujith0466/Smart-Study-Buddy/internal/classifier"
	"github.com/sujith0466/Smart-Study-Buddy/internal/config"
	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/metrics"
	"github.com/sujith0466/Smart-Study-Buddy/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "studybuddy.db")
	cfg.ModelPath = filepath.Join(dir, "classifier.json.gz")
	cfg.ConversationLog.Enabled = false
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunTrainWritesLoadableArtifact(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	var out bytes.Buffer
	require.NoError(t, runTrain(&out, cfg, classifier.TrainOptions{}))
	assert.Contains(t, out.String(), "written:   "+cfg.ModelPath)

	catalog, err := loadCatalog(cfg)
	require.NoError(t, err)
	backend := classifier.LoadBackend(cfg.ModelPath, catalog, nil)
	_, absent := backend.(classifier.Absent)
	assert.False(t, absent, "trained artifact should load against the same catalog")
}

func TestBuildAssistantWithoutArtifact(t *testing.T) {
	t.Parallel()

	a, err := buildAssistant(context.Background(), testConfig(t), assistantDeps{})
	require.NoError(t, err)
	assert.False(t, a.classifierTrained())

	turn := a.engine.HandleTurn(context.Background(), "u1", "")
	assert.NotEmpty(t, turn.Response)
}

func TestBuildAssistantTrainOnStart(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.TrainOnStart = true
	a, err := buildAssistant(context.Background(), cfg, assistantDeps{})
	require.NoError(t, err)
	require.True(t, a.classifierTrained())

	turn := a.engine.HandleTurn(context.Background(), "u1", "Hello")
	assert.Equal(t, "greeting", turn.Intent)
}

func TestNewFetcherChain(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	f := newFetcher(context.Background(), cfg, metrics.New(prometheus.NewRegistry()), discardLogger())
	_, cached := f.(*content.CachedFetcher)
	assert.True(t, cached)

	cfg.LinkCacheSize = 0
	links, err := newFetcher(context.Background(), cfg, nil, discardLogger()).FetchLinks(context.Background(), "algebra", "")
	require.NoError(t, err)
	assert.NotEmpty(t, links)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.TrainOnStart = true
	repo, err := store.NewSQLite(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	a, err := buildAssistant(context.Background(), cfg, assistantDeps{repo: repo, metrics: m})
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(cfg, routerDeps{
		repo:       repo,
		assistant:  a,
		convLogger: chat.NopConversationLogger(),
		registry:   reg,
	}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"Hello"}`))
	require.NoError(t, err)
	var body chat.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "greeting", body.Intent)
	assert.NotEmpty(t, resp.Header.Get("X-Study-Session-ID"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, buf.String(), "greeting")
}
