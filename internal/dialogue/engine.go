// Package dialogue implements the multi-turn conversation engine: per-user
// context, intent resolution and the scripted follow-up flows.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/sujith0466/Smart-Study-Buddy/internal/classifier"
	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
	"github.com/sujith0466/Smart-Study-Buddy/internal/quiz"
)

// Default thresholds.
const (
	DefaultConfidenceThreshold = 0.4
	DefaultAnswerThreshold     = quiz.DefaultThreshold
)

// Pseudo intents reported for turns that never reach classification.
const (
	IntentEmpty      = "empty"
	IntentQuizAnswer = "quiz_answer"
)

// Turn sources.
const (
	SourceEmpty      = "empty"
	SourceSlot       = "slot"
	SourceQuiz       = "quiz"
	SourceClassifier = "classifier"
	SourceSimilarity = "similarity"
	SourceNone       = "none"
)

// PromptEmpty is the reply to blank input.
const PromptEmpty = "Please enter a message."

var (
	// ErrNoCatalog is returned by New without an intent catalog.
	ErrNoCatalog = errors.New("dialogue: intent catalog is required")
	// ErrNoFallbackIntent is returned when the catalog lacks the fallback intent.
	ErrNoFallbackIntent = errors.New("dialogue: catalog has no fallback intent")
	// ErrNoQuizBank is returned when a quiz intent exists but no bank was given.
	ErrNoQuizBank = errors.New("dialogue: quiz intent requires a question bank")
)

// Matcher is the similarity fallback consulted when the classifier abstains.
type Matcher interface {
	Match(ctx context.Context, raw string) (string, bool)
}

// LinkFetcher looks up study material for a subject. The engine passes the
// turn's context through unchanged; fetchers bound their own latency.
type LinkFetcher interface {
	FetchLinks(ctx context.Context, subject, method string) ([]content.Link, error)
}

// ReminderSink is notified when a user sets a reminder.
type ReminderSink interface {
	RecordReminder(ctx context.Context, userID, at string) error
}

// ReminderSinkFunc adapts a function to ReminderSink.
type ReminderSinkFunc func(ctx context.Context, userID, at string) error

// RecordReminder calls f.
func (f ReminderSinkFunc) RecordReminder(ctx context.Context, userID, at string) error {
	return f(ctx, userID, at)
}

// Observer receives one call per completed turn.
type Observer interface {
	ObserveTurn(intent, source string, confidence float64)
}

// Turn is the engine's reply to one user message.
type Turn struct {
	Response string `json:"response"`
	Intent   string `json:"intent"`
	Source   string `json:"source"`
}

// Config tunes engine thresholds.
type Config struct {
	ConfidenceThreshold float64
	AnswerThreshold     float64
}

// Deps are the engine's collaborators. Catalog and Store are required; a nil
// Classifier or Matcher is treated as always abstaining.
type Deps struct {
	Catalog    *intent.Catalog
	Classifier classifier.Backend
	Matcher    Matcher
	Store      *Store
	Bank       *quiz.Bank
	Links      LinkFetcher
	Reminders  ReminderSink
	Observer   Observer
	Rand       *rand.Rand
	Now        func() time.Time
	Logger     *slog.Logger
}

// Engine resolves user messages into replies. It is safe for concurrent use;
// turns of the same user are serialized.
type Engine struct {
	catalog    *intent.Catalog
	classifier classifier.Backend
	matcher    Matcher
	store      *Store
	bank       *quiz.Bank
	links      LinkFetcher
	reminders  ReminderSink
	observer   Observer
	now        func() time.Time
	logger     *slog.Logger
	cfg        Config
	scorer     quiz.Scorer

	randMu sync.Mutex
	rand   *rand.Rand

	fallback intent.Intent
	policies map[string]resolved
}

type resolved struct {
	intent intent.Intent
	policy policy
}

// New wires an engine and resolves the response policy of every intent.
func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if deps.Store == nil {
		deps.Store = NewStore()
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.Absent{}
	}
	if deps.Rand == nil {
		now := uint64(time.Now().UnixNano())
		deps.Rand = rand.New(rand.NewPCG(now, now>>1))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.AnswerThreshold <= 0 {
		cfg.AnswerThreshold = DefaultAnswerThreshold
	}

	fb, ok := deps.Catalog.Lookup(intent.TagFallback)
	if !ok {
		return nil, ErrNoFallbackIntent
	}

	e := &Engine{
		catalog:    deps.Catalog,
		classifier: deps.Classifier,
		matcher:    deps.Matcher,
		store:      deps.Store,
		bank:       deps.Bank,
		links:      deps.Links,
		reminders:  deps.Reminders,
		observer:   deps.Observer,
		now:        deps.Now,
		logger:     deps.Logger,
		cfg:        cfg,
		scorer:     quiz.Scorer{Threshold: cfg.AnswerThreshold},
		rand:       deps.Rand,
		fallback:   fb,
	}
	if err := e.resolvePolicies(); err != nil {
		return nil, err
	}
	return e, nil
}

// Store returns the engine's context store.
func (e *Engine) Store() *Store {
	return e.store
}

// HandleTurn processes one message from userID and returns the reply. It
// never fails: problems surface as scripted responses.
func (e *Engine) HandleTurn(ctx context.Context, userID, raw string) Turn {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Turn{Response: PromptEmpty, Intent: IntentEmpty, Source: SourceEmpty}
	}

	var (
		turn       Turn
		confidence float64
	)
	err := e.store.Update(userID, func(c *Context) {
		turn, confidence = e.step(ctx, userID, c, text)
	})
	if err != nil {
		e.logger.Error("Dialogue turn aborted, replying with fallback", "user_id", userID, "error", err)
		turn = Turn{Response: e.pick(e.fallback.Responses), Intent: intent.TagFallback, Source: SourceNone}
		confidence = 0
	}

	if e.observer != nil {
		e.observer.ObserveTurn(turn.Intent, turn.Source, confidence)
	}
	return turn
}

// ResetContext forgets everything the engine knows about userID's
// conversation.
func (e *Engine) ResetContext(userID string) {
	e.store.Clear(userID)
}

func (e *Engine) step(ctx context.Context, userID string, c *Context, text string) (Turn, float64) {
	switch {
	case c.Bool(KeyAwaitingSubject):
		return e.consumeSubject(c, text), 1
	case c.Bool(KeyInQuiz):
		if t, ok := e.answerQuiz(c, text); ok {
			return t, 1
		}
	case c.Bool(KeyAwaitingTime):
		return e.consumeTimes(c, text), 1
	}

	tag, source, confidence := e.classify(ctx, text)
	r, ok := e.policies[tag]
	if !ok {
		e.logger.Warn("Resolved intent missing from catalog", "tag", tag, "user_id", userID)
		r = e.policies[intent.TagFallback]
	}

	reply, ok := r.policy(ctx, &turnState{userID: userID, ctx: c, text: text, intent: r.intent})
	if ok {
		c.Set(KeyLastIntent, r.intent.Tag)
		if r.intent.Action == intent.ActionSchedule {
			c.Set(KeyAwaitingSubject, true)
		}
	}
	return Turn{Response: reply, Intent: r.intent.Tag, Source: source}, confidence
}

// classify consults the primary classifier and, when it abstains or is not
// confident enough, the similarity matcher.
func (e *Engine) classify(ctx context.Context, text string) (string, string, float64) {
	if res, ok := e.classifier.Classify(text); ok && res.Confidence >= e.cfg.ConfidenceThreshold {
		return res.Tag, SourceClassifier, res.Confidence
	}
	if e.matcher != nil {
		if tag, ok := e.matcher.Match(ctx, text); ok {
			return tag, SourceSimilarity, 0
		}
	}
	return intent.TagFallback, SourceNone, 0
}

func (e *Engine) consumeSubject(c *Context, text string) Turn {
	c.Set(KeyStudySubject, text)
	c.Delete(KeyAwaitingSubject)
	c.Set(KeyAwaitingTime, true)
	return Turn{
		Response: "Okay, for studying " + text + ", what time(s) are you planning? Please specify.",
		Intent:   c.String(KeyLastIntent),
		Source:   SourceSlot,
	}
}

func (e *Engine) consumeTimes(c *Context, text string) Turn {
	c.Delete(KeyAwaitingTime)
	subject := c.String(KeyStudySubject)
	if subject == "" {
		subject = "your subject"
	}
	return Turn{
		Response: "Acknowledged. You plan to study " + subject + " at " + text + ". I will keep this in mind.",
		Intent:   c.String(KeyLastIntent),
		Source:   SourceSlot,
	}
}

func (e *Engine) pick(options []string) string {
	switch len(options) {
	case 0:
		return ""
	case 1:
		return options[0]
	}
	e.randMu.Lock()
	i := e.rand.IntN(len(options))
	e.randMu.Unlock()
	return options[i]
}
