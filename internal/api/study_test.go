package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
	"github.com/sujith0466/Smart-Study-Buddy/internal/identity"
)

type fakeRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	reminders []domain.Reminder
	plans     []domain.StudyPlan
	pingErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*domain.User)}
}

func (f *fakeRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.users[userID]
	if user == nil {
		return nil, nil
	}
	copy := *user
	return &copy, nil
}

func (f *fakeRepo) UpsertUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *user
	f.users[user.UserID] = &copy
	return nil
}

func (f *fakeRepo) UpdateLastSeen(_ context.Context, _ string, _ time.Time) error { return nil }

func (f *fakeRepo) CreateReminder(_ context.Context, r *domain.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.reminders) + 1)
	f.reminders = append(f.reminders, *r)
	return nil
}

func (f *fakeRepo) ListReminders(_ context.Context, userID string) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Reminder{}
	for _, r := range f.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveStudyPlan(_ context.Context, p *domain.StudyPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = int64(len(f.plans) + 1)
	f.plans = append(f.plans, *p)
	return nil
}

func (f *fakeRepo) LatestStudyPlan(_ context.Context, userID string) (*domain.StudyPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.plans) - 1; i >= 0; i-- {
		if f.plans[i].UserID == userID {
			p := f.plans[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) DeleteInactiveUsers(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeRepo) Close() error                 { return nil }

type fakeFetcher struct {
	err error
}

func (f fakeFetcher) FetchLinks(_ context.Context, subject, method string) ([]content.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []content.Link{{Label: subject + " " + method, URL: "https://example.com/" + subject}}, nil
}

func newTestRouter(repo *fakeRepo, links content.Fetcher) http.Handler {
	base := NewHandler(repo, links, time.Second)
	study := NewStudyHandler(base, FrontendConfig{QuizTopics: []string{"math"}})

	r := chi.NewRouter()
	r.Get("/health", base.Health)
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, true))
		study.RegisterRoutes(r)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: identity.AnonCookieName, Value: "anon_0123456789abcdef0123456789abcdef"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreatePlan(t *testing.T) {
	repo := newFakeRepo()
	h := newTestRouter(repo, fakeFetcher{})

	rr := do(t, h, http.MethodPost, "/api/plan",
		`{"subjects": ["Math", "Physics"], "scores": [45, 98], "method": "Reading"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var got PlanResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Plan.ID != 1 || got.Plan.Method != "reading" {
		t.Fatalf("unexpected plan %+v", got.Plan)
	}
	if got.Plan.Items[0].Hours != 5.5 || got.Plan.Items[1].Hours != 1 {
		t.Fatalf("unexpected hours %+v", got.Plan.Items)
	}
	if got.TotalHours != 6.5 {
		t.Fatalf("expected 6.5 total hours, got %v", got.TotalHours)
	}
	if len(got.Plan.Schedule) != 2 || got.Plan.Schedule[0].Day != "Monday" {
		t.Fatalf("unexpected schedule %+v", got.Plan.Schedule)
	}
	if links := got.Resources["Physics"]; len(links) != 1 || links[0].Label != "Physics reading" {
		t.Fatalf("unexpected resources %+v", got.Resources)
	}

	rr = do(t, h, http.MethodGet, "/api/plan", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected latest plan, got %d", rr.Code)
	}
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	h := newTestRouter(newFakeRepo(), fakeFetcher{})

	tests := map[string]string{
		"score out of range": `{"subjects": ["Math"], "scores": [120]}`,
		"length mismatch":    `{"subjects": ["Math", "Art"], "scores": [50]}`,
		"no subjects":        `{"subjects": [], "scores": []}`,
		"not json":           `subjects=math`,
	}
	for name, body := range tests {
		rr := do(t, h, http.MethodPost, "/api/plan", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", name, rr.Code)
		}
	}
}

func TestGetLatestPlanNotFound(t *testing.T) {
	h := newTestRouter(newFakeRepo(), fakeFetcher{})

	rr := do(t, h, http.MethodGet, "/api/plan", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestGetResources(t *testing.T) {
	h := newTestRouter(newFakeRepo(), fakeFetcher{})

	rr := do(t, h, http.MethodGet, "/api/resources?subject=chemistry&method=video", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var got struct {
		Links []content.Link `json:"links"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Links) != 1 || got.Links[0].URL != "https://example.com/chemistry" {
		t.Fatalf("unexpected links %+v", got.Links)
	}

	rr = do(t, h, http.MethodGet, "/api/resources", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without subject, got %d", rr.Code)
	}
}

func TestGetResourcesDegradesToEmpty(t *testing.T) {
	h := newTestRouter(newFakeRepo(), fakeFetcher{err: errors.New("quota exceeded")})

	rr := do(t, h, http.MethodGet, "/api/resources?subject=chemistry", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"links":[]`) {
		t.Fatalf("expected empty links, got %s", rr.Body.String())
	}
}

func TestListRemindersAndMe(t *testing.T) {
	repo := newFakeRepo()
	h := newTestRouter(repo, fakeFetcher{})
	userID := "anon_0123456789abcdef0123456789abcdef"
	_ = repo.CreateReminder(context.Background(), &domain.Reminder{UserID: userID, At: "09:00 AM"})
	_ = repo.CreateReminder(context.Background(), &domain.Reminder{UserID: "someone-else", At: "10:00 AM"})

	rr := do(t, h, http.MethodGet, "/api/reminders", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var got struct {
		Reminders []domain.Reminder `json:"reminders"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Reminders) != 1 || got.Reminders[0].At != "09:00 AM" {
		t.Fatalf("unexpected reminders %+v", got.Reminders)
	}

	rr = do(t, h, http.MethodGet, "/api/me", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), userID) {
		t.Fatalf("unexpected /api/me response %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetConfig(t *testing.T) {
	h := newTestRouter(newFakeRepo(), fakeFetcher{})

	rr := do(t, h, http.MethodGet, "/api/config", "")
	var got FrontendConfig
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.QuizTopics) != 1 || got.QuizTopics[0] != "math" {
		t.Fatalf("unexpected config %+v", got)
	}
}

func TestHealth(t *testing.T) {
	repo := newFakeRepo()
	h := newTestRouter(repo, fakeFetcher{})

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	repo.pingErr = errors.New("disk gone")
	rr = do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
