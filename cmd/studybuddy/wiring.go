package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sujith0466/Smart-Study-Buddy/internal/classifier"
	"github.com/sujith0466/Smart-Study-Buddy/internal/config"
	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/dialogue"
	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
	"github.com/sujith0466/Smart-Study-Buddy/internal/fallback"
	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
	"github.com/sujith0466/Smart-Study-Buddy/internal/metrics"
	"github.com/sujith0466/Smart-Study-Buddy/internal/quiz"
	"github.com/sujith0466/Smart-Study-Buddy/internal/store"
)

// assistant bundles the dialogue engine with what it was built from.
type assistant struct {
	engine  *dialogue.Engine
	catalog *intent.Catalog
	bank    *quiz.Bank
	backend classifier.Backend
	links   content.Fetcher
}

func loadCatalog(cfg *config.Config) (*intent.Catalog, error) {
	if cfg.CatalogPath == "" {
		return intent.Default()
	}
	return intent.LoadFile(cfg.CatalogPath)
}

func loadBank(cfg *config.Config) (*quiz.Bank, error) {
	if cfg.QuizPath == "" {
		return quiz.Default(cfg.DefaultQuizTopic)
	}
	return quiz.LoadFile(cfg.QuizPath, cfg.DefaultQuizTopic)
}

// loadBackend trains in memory when asked to, otherwise loads the artifact.
func loadBackend(cfg *config.Config, catalog *intent.Catalog, logger *slog.Logger) classifier.Backend {
	if !cfg.TrainOnStart {
		return classifier.LoadBackend(cfg.ModelPath, catalog, logger)
	}
	m, err := classifier.Train(catalog, classifier.TrainOptions{})
	if err != nil {
		logger.Error("Failed to train classifier, primary classifier disabled", "error", err)
		return classifier.Absent{}
	}
	logger.Info("Primary classifier trained at startup", "classes", len(m.Classes()), "features", m.Features())
	return m
}

// newFetcher builds the study-material lookup chain: YouTube when a key is
// configured, search links otherwise, instrumented and cached.
func newFetcher(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) content.Fetcher {
	var f content.Fetcher = content.StaticFetcher{}
	if cfg.YouTubeAPIKey == "" {
		logger.Warn("No YouTube API key configured, serving search links only")
	} else if yt, err := content.NewYouTubeFetcher(ctx, cfg.YouTubeAPIKey, cfg.YouTubeTimeout); err != nil {
		logger.Error("Failed to create YouTube client, serving search links only", "error", err)
	} else {
		f = yt
		logger.Info("YouTube study material enabled")
	}
	if m != nil {
		f = m.InstrumentFetcher(f)
	}
	if cfg.LinkCacheSize > 0 {
		f = content.NewCachedFetcher(f, cfg.LinkCacheSize, cfg.LinkCacheTTL)
	}
	return f
}

// reminderSink persists reminders set in conversation.
func reminderSink(repo store.Repository) dialogue.ReminderSink {
	return dialogue.ReminderSinkFunc(func(ctx context.Context, userID, at string) error {
		return repo.CreateReminder(ctx, &domain.Reminder{UserID: userID, At: at})
	})
}

type assistantDeps struct {
	repo    store.Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func buildAssistant(ctx context.Context, cfg *config.Config, deps assistantDeps) (*assistant, error) {
	logger := deps.logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load intent catalog: %w", err)
	}
	bank, err := loadBank(cfg)
	if err != nil {
		return nil, fmt.Errorf("load quiz bank: %w", err)
	}
	matcher, err := fallback.New(ctx, catalog, fallback.Options{
		Threshold: cfg.SimilarityThreshold,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build similarity matcher: %w", err)
	}

	a := &assistant{
		catalog: catalog,
		bank:    bank,
		backend: loadBackend(cfg, catalog, logger),
		links:   newFetcher(ctx, cfg, deps.metrics, logger),
	}

	engineDeps := dialogue.Deps{
		Catalog:    catalog,
		Classifier: a.backend,
		Matcher:    matcher,
		Store:      dialogue.NewStore(),
		Bank:       bank,
		Links:      a.links,
		Logger:     logger,
	}
	if deps.repo != nil {
		engineDeps.Reminders = reminderSink(deps.repo)
	}
	if deps.metrics != nil {
		engineDeps.Observer = deps.metrics
	}

	a.engine, err = dialogue.New(engineDeps, dialogue.Config{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		AnswerThreshold:     cfg.AnswerThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("build dialogue engine: %w", err)
	}

	logger.Info("Assistant ready",
		"intents", catalog.Len(),
		"quiz_topics", len(bank.Topics()),
		"classifier_trained", a.classifierTrained(),
	)
	return a, nil
}

func (a *assistant) classifierTrained() bool {
	_, absent := a.backend.(classifier.Absent)
	return !absent
}
