package dialogue

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/sujith0466/Smart-Study-Buddy/internal/quiz"
)

// Context keys.
const (
	KeyAwaitingSubject = "awaiting_subject"
	KeyInQuiz          = "in_quiz"
	KeyAwaitingTime    = "awaiting_time"
	KeyStudySubject    = "study_subject"
	KeyLastIntent      = "last_intent"
	KeyReminderTime    = "reminder_time"
	KeyQuiz            = "quiz"
)

// ErrUpdateAborted is returned by Store.Update when the update function
// panicked. Nothing it wrote is kept.
var ErrUpdateAborted = errors.New("context update aborted")

// QuizState tracks a quiz in progress. While stored, Index is in
// [0, len(Questions)) and Score is in [0, Index].
type QuizState struct {
	Topic     string
	Questions []quiz.Question
	Index     int
	Score     int
}

// Context is one user's conversational state as seen inside Store.Update.
type Context struct {
	values map[string]any
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key, leaving other keys untouched.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Delete removes key.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Bool returns the boolean stored under key, false when absent.
func (c *Context) Bool(key string) bool {
	b, _ := c.values[key].(bool)
	return b
}

// String returns the string stored under key, "" when absent.
func (c *Context) String(key string) string {
	s, _ := c.values[key].(string)
	return s
}

// Quiz returns the quiz in progress.
func (c *Context) Quiz() (QuizState, bool) {
	q, ok := c.values[KeyQuiz].(QuizState)
	return q, ok
}

type entry struct {
	mu       sync.Mutex
	values   map[string]any
	lastSeen time.Time
}

// Store keeps per-user dialogue context in memory. Each user has a private
// lock so different users never contend; the outer lock only guards the
// user index.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (s *Store) entry(userID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[userID]; ok {
		return e
	}
	e = &entry{values: make(map[string]any), lastSeen: s.now()}
	s.entries[userID] = e
	return e
}

// Get returns the value stored under key for userID.
func (s *Store) Get(userID, key string) (any, bool) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[key]
	return v, ok
}

// Set stores value under key for userID without touching other keys.
func (s *Store) Set(userID, key string, value any) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = value
	e.lastSeen = s.now()
}

// Clear removes every key for userID. The user stays known to Seen.
func (s *Store) Clear(userID string) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = make(map[string]any)
	e.lastSeen = s.now()
}

// Seen reports whether userID has ever been referenced.
func (s *Store) Seen(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[userID]
	return ok
}

// Update runs fn with exclusive access to userID's context. Changes made by
// fn are committed only when it returns normally; if fn panics the context is
// left exactly as it was and ErrUpdateAborted is returned.
func (s *Store) Update(userID string, fn func(*Context)) (err error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	c := &Context{values: maps.Clone(e.values)}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUpdateAborted, r)
		}
	}()

	fn(c)
	e.values = c.values
	e.lastSeen = s.now()
	return nil
}

// ClearIdle clears every context untouched since before cutoff and returns
// the affected user ids. Empty contexts are skipped.
func (s *Store) ClearIdle(cutoff time.Time) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	entries := make([]*entry, 0, len(s.entries))
	for id, e := range s.entries {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var cleared []string
	for i, e := range entries {
		e.mu.Lock()
		if len(e.values) > 0 && e.lastSeen.Before(cutoff) {
			e.values = make(map[string]any)
			cleared = append(cleared, ids[i])
		}
		e.mu.Unlock()
	}
	return cleared
}
