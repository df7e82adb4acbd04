package dialogue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStoreSetIsAdditive(t *testing.T) {
	t.Parallel()

	s := NewStore()
	assert.False(t, s.Seen("u1"))

	s.Set("u1", KeyStudySubject, "physics")
	s.Set("u1", KeyAwaitingTime, true)

	v, ok := s.Get("u1", KeyStudySubject)
	require.True(t, ok)
	assert.Equal(t, "physics", v)
	v, ok = s.Get("u1", KeyAwaitingTime)
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.True(t, s.Seen("u1"))
	assert.False(t, s.Seen("u2"))
}

func TestStoreClearKeepsUserKnown(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Set("u1", KeyLastIntent, "greeting")
	s.Clear("u1")

	_, ok := s.Get("u1", KeyLastIntent)
	assert.False(t, ok)
	assert.True(t, s.Seen("u1"))
}

func TestStoreUpdateCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	s := NewStore()
	err := s.Update("u1", func(c *Context) {
		c.Set(KeyInQuiz, true)
		c.Set(KeyQuiz, QuizState{Topic: "math", Index: 1})
	})
	require.NoError(t, err)

	v, ok := s.Get("u1", KeyQuiz)
	require.True(t, ok)
	assert.Equal(t, 1, v.(QuizState).Index)
}

func TestStoreUpdatePanicLeavesContextUntouched(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Set("u1", KeyStudySubject, "history")

	err := s.Update("u1", func(c *Context) {
		c.Set(KeyStudySubject, "overwritten")
		c.Delete(KeyStudySubject)
		c.Set(KeyAwaitingTime, true)
		panic("boom")
	})
	require.ErrorIs(t, err, ErrUpdateAborted)

	v, ok := s.Get("u1", KeyStudySubject)
	require.True(t, ok)
	assert.Equal(t, "history", v)
	_, ok = s.Get("u1", KeyAwaitingTime)
	assert.False(t, ok)

	// The user lock was released.
	require.NoError(t, s.Update("u1", func(*Context) {}))
}

func TestStoreConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Set("u1", KeyQuiz, QuizState{Index: 0})

	const workers = 2
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = s.Update("u1", func(c *Context) {
				q, _ := c.Quiz()
				time.Sleep(5 * time.Millisecond)
				q.Index++
				c.Set(KeyQuiz, q)
			})
		}()
	}
	close(start)
	wg.Wait()

	v, _ := s.Get("u1", KeyQuiz)
	assert.Equal(t, 2, v.(QuizState).Index)
}

func TestStoreUsersDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	s := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Update("slow", func(*Context) {
			close(entered)
			<-release
		})
	}()
	<-entered
	defer close(release)

	done := make(chan struct{})
	go func() {
		s.Set("fast", KeyLastIntent, "greeting")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("update for one user blocked another user")
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStoreClearIdle(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewStore()
	s.now = clock.Now

	s.Set("idle", KeyStudySubject, "math")
	clock.Advance(30 * time.Minute)
	s.Set("active", KeyStudySubject, "art")

	cleared := s.ClearIdle(clock.Now().Add(-10 * time.Minute))
	assert.Equal(t, []string{"idle"}, cleared)

	_, ok := s.Get("idle", KeyStudySubject)
	assert.False(t, ok)
	assert.True(t, s.Seen("idle"))
	_, ok = s.Get("active", KeyStudySubject)
	assert.True(t, ok)
}

func TestReaperStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewStore()
	s.now = clock.Now
	s.Set("u1", KeyAwaitingTime, true)
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := StartReaper(ctx, s, time.Minute, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := s.Get("u1", KeyAwaitingTime)
		return !ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
