package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sujith0466/Smart-Study-Buddy/internal/api"
	"github.com/sujith0466/Smart-Study-Buddy/internal/chat"
	"github.com/sujith0466/Smart-Study-Buddy/internal/config"
	"github.com/sujith0466/Smart-Study-Buddy/internal/dialogue"
	"github.com/sujith0466/Smart-Study-Buddy/internal/identity"
	"github.com/sujith0466/Smart-Study-Buddy/internal/metrics"
	"github.com/sujith0466/Smart-Study-Buddy/internal/middleware"
	"github.com/sujith0466/Smart-Study-Buddy/internal/store"
	"github.com/sujith0466/Smart-Study-Buddy/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()
	logger.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("Failed to close repository", "error", closeErr)
		}
	}()
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	logger.Info("Database connected", "path", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	a, err := buildAssistant(ctx, cfg, assistantDeps{repo: repo, metrics: m, logger: logger})
	if err != nil {
		return err
	}

	convLogger, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize conversation logger: %w", err)
	}
	defer func() {
		if closeErr := convLogger.Close(); closeErr != nil {
			logger.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	r := newRouter(cfg, routerDeps{
		repo:       repo,
		assistant:  a,
		convLogger: convLogger,
		registry:   reg,
		logger:     logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket chats are long lived
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	if cfg.ContextIdleTTL > 0 {
		done := dialogue.StartReaper(gctx, a.engine.Store(), cfg.ContextIdleTTL, cfg.ReaperInterval)
		g.Go(func() error {
			<-done
			return nil
		})
	}
	if cfg.UserTTL > 0 {
		done := store.StartTTLWorker(gctx, repo, cfg.UserTTL, store.DefaultTTLWorkerInterval)
		g.Go(func() error {
			<-done
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

type routerDeps struct {
	repo       store.Repository
	assistant  *assistant
	convLogger chat.ConversationLogger
	registry   *prometheus.Registry
	logger     *slog.Logger
}

func newRouter(cfg *config.Config, deps routerDeps) http.Handler {
	origins := []string{"*"}
	var wsOrigins []string
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
		wsOrigins = []string{originHost(cfg.FrontendURL)}
	}

	base := api.NewHandler(deps.repo, deps.assistant.links, cfg.YouTubeTimeout)
	study := api.NewStudyHandler(base, api.FrontendConfig{
		ClassifierTrained: deps.assistant.classifierTrained(),
		LiveResources:     cfg.YouTubeAPIKey != "",
		QuizTopics:        deps.assistant.bank.Topics(),
	})

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, chat.UserKey)
	}
	chatHandler := chat.NewHandler(deps.assistant.engine, deps.convLogger, chat.Options{
		RateLimiter:    limiter,
		OriginPatterns: wsOrigins,
		IsDev:          cfg.IsDevelopment(),
		Logger:         deps.logger,
	})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(origins))

	// Public routes.
	r.Get("/health", base.Health)
	r.Handle("/metrics", metrics.Handler(deps.registry))

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(deps.repo, cfg.IsDevelopment()))
		study.RegisterRoutes(r)
		chatHandler.RegisterRoutes(r)
	})

	// Chat page and its assets.
	r.Handle("/*", web.ChatPage())
	return r
}

// originHost turns a frontend URL into a WebSocket origin pattern.
func originHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
