// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variable overrides.
// STUDYBUDDY_DB_PATH overrides db_path, STUDYBUDDY_CONVERSATION_LOG__DIR
// overrides conversation_log.dir.
const EnvPrefix = "STUDYBUDDY_"

// Config holds all application configuration.
type Config struct {
	Port        string        `koanf:"port"`
	FrontendURL string        `koanf:"frontend_url"`
	DBPath      string        `koanf:"db_path"`
	UserTTL     time.Duration `koanf:"user_ttl"`

	// Empty paths select the embedded defaults.
	CatalogPath      string `koanf:"catalog_path"`
	QuizPath         string `koanf:"quiz_path"`
	DefaultQuizTopic string `koanf:"default_quiz_topic"`

	ModelPath    string `koanf:"model_path"`
	TrainOnStart bool   `koanf:"train_on_start"`

	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	AnswerThreshold     float64 `koanf:"answer_threshold"`

	ContextIdleTTL time.Duration `koanf:"context_idle_ttl"`
	ReaperInterval time.Duration `koanf:"reaper_interval"`

	YouTubeAPIKey  string        `koanf:"youtube_api_key"`
	YouTubeTimeout time.Duration `koanf:"youtube_timeout"`
	LinkCacheSize  int           `koanf:"link_cache_size"`
	LinkCacheTTL   time.Duration `koanf:"link_cache_ttl"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	ConversationLog ConversationLogConfig `koanf:"conversation_log"`
}

// RateLimitConfig bounds chat requests per user.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Dir           string `koanf:"dir"`
	GlobalEnabled bool   `koanf:"global_enabled"`
	GlobalPath    string `koanf:"global_path"`
	QueueSize     int    `koanf:"queue_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                "8080",
		DBPath:              "./data/studybuddy.db",
		UserTTL:             30 * 24 * time.Hour,
		ModelPath:           "./data/classifier.json.gz",
		ConfidenceThreshold: 0.4,
		SimilarityThreshold: 0.3,
		AnswerThreshold:     0.7,
		ContextIdleTTL:      60 * time.Minute,
		ReaperInterval:      time.Minute,
		YouTubeTimeout:      5 * time.Second,
		LinkCacheSize:       256,
		LinkCacheTTL:        time.Hour,
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
		ConversationLog: ConversationLogConfig{
			Enabled:       true,
			Dir:           "./data/logs/conversations",
			GlobalEnabled: false,
			GlobalPath:    "./data/logs/conversations/all.ndjson",
			QueueSize:     1000,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and STUDYBUDDY_* environment variables, in that order. A .env file in
// the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("access config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	// PORT is honored for platforms that inject it.
	if port, ok := os.LookupEnv("PORT"); ok && !k.Exists("port") {
		cfg.Port = port
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envKey maps STUDYBUDDY_RATE_LIMIT__WINDOW to rate_limit.window.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}
	if err := checkUnit("confidence_threshold", c.ConfidenceThreshold); err != nil {
		return err
	}
	if err := checkUnit("similarity_threshold", c.SimilarityThreshold); err != nil {
		return err
	}
	if err := checkUnit("answer_threshold", c.AnswerThreshold); err != nil {
		return err
	}
	if c.ContextIdleTTL < 0 {
		return fmt.Errorf("context_idle_ttl must be >= 0")
	}
	if c.ContextIdleTTL > 0 && c.ReaperInterval <= 0 {
		return fmt.Errorf("reaper_interval must be > 0 when context_idle_ttl is set")
	}
	if c.UserTTL < 0 {
		return fmt.Errorf("user_ttl must be >= 0")
	}
	if c.YouTubeTimeout <= 0 {
		return fmt.Errorf("youtube_timeout must be > 0")
	}
	if c.LinkCacheSize < 0 {
		return fmt.Errorf("link_cache_size must be >= 0")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must be >= 0")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("conversation_log.dir cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("conversation_log.global_path cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("conversation_log.queue_size must be > 0")
	}
	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
