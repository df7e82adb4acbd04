package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/sujith0466/Smart-Study-Buddy/internal/content"
	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
	"github.com/sujith0466/Smart-Study-Buddy/internal/identity"
	"github.com/sujith0466/Smart-Study-Buddy/internal/planner"
)

// planLocks prevents concurrent plan generation for the same user.
var planLocks sync.Map

const maxPlanBodySize = 64 << 10

// FrontendConfig describes server capabilities to the chat page.
type FrontendConfig struct {
	ClassifierTrained bool     `json:"classifier_trained"`
	LiveResources     bool     `json:"live_resources"`
	QuizTopics        []string `json:"quiz_topics"`
}

// StudyHandler handles user, plan, resource and reminder endpoints.
type StudyHandler struct {
	*Handler
	frontend FrontendConfig
}

// NewStudyHandler creates a study handler.
func NewStudyHandler(base *Handler, frontend FrontendConfig) *StudyHandler {
	if frontend.QuizTopics == nil {
		frontend.QuizTopics = []string{}
	}
	return &StudyHandler{Handler: base, frontend: frontend}
}

// RegisterRoutes registers study routes.
func (h *StudyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Get("/resources", h.GetResources)
		r.Post("/plan", h.CreatePlan)
		r.Get("/plan", h.GetLatestPlan)
		r.Get("/reminders", h.ListReminders)
	})
}

// GetMe returns the current user's information.
func (h *StudyHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      user.UserID,
		"username":     user.Username,
		"created_at":   user.CreatedAt,
		"last_seen_at": user.LastSeenAt,
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *StudyHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.frontend)
}

// GetResources handles GET /api/resources?subject=&method=.
func (h *StudyHandler) GetResources(w http.ResponseWriter, r *http.Request) {
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))
	if subject == "" {
		Error(w, http.StatusBadRequest, "subject is required")
		return
	}
	method := r.URL.Query().Get("method")

	links := h.lookup(r.Context(), subject, method)
	JSON(w, http.StatusOK, map[string]interface{}{
		"subject": subject,
		"method":  method,
		"links":   links,
	})
}

// PlanRequest is the body of POST /api/plan.
type PlanRequest struct {
	Subjects []string `json:"subjects"`
	Scores   []int    `json:"scores"`
	Method   string   `json:"method"`
}

// PlanResponse is a stored plan with study material per subject.
type PlanResponse struct {
	Plan       *domain.StudyPlan         `json:"plan"`
	TotalHours float64                   `json:"total_hours"`
	Resources  map[string][]content.Link `json:"resources"`
}

// CreatePlan generates, stores and returns a study plan.
func (h *StudyHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lock, _ := planLocks.LoadOrStore(userID, &sync.Mutex{})
	mutex := lock.(*sync.Mutex)
	if !mutex.TryLock() {
		slog.Warn("Plan generation already in progress", "user_id", userID)
		Error(w, http.StatusConflict, "plan_in_progress")
		return
	}
	defer func() {
		mutex.Unlock()
		planLocks.Delete(userID)
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxPlanBodySize)
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := planner.Generate(req.Subjects, req.Scores)
	if err != nil {
		if errors.Is(err, planner.ErrNoSubjects) || errors.Is(err, planner.ErrLengthMismatch) ||
			errors.Is(err, planner.ErrScoreOutOfRange) || errors.Is(err, planner.ErrEmptySubject) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to generate plan", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to generate plan")
		return
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = content.MethodVideo
	}
	plan := &domain.StudyPlan{
		UserID:   userID,
		Method:   method,
		Items:    items,
		Schedule: planner.Schedule(items),
	}
	if err := h.repo.SaveStudyPlan(r.Context(), plan); err != nil {
		slog.Error("Failed to save plan", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to save plan")
		return
	}

	resources := make(map[string][]content.Link, len(items))
	for _, it := range items {
		resources[it.Subject] = h.lookup(r.Context(), it.Subject, method)
	}

	slog.Info("Study plan created", "user_id", userID, "plan_id", plan.ID, "subjects", len(items))
	JSON(w, http.StatusCreated, PlanResponse{
		Plan:       plan,
		TotalHours: plan.TotalHours(),
		Resources:  resources,
	})
}

// GetLatestPlan returns the user's most recent plan.
func (h *StudyHandler) GetLatestPlan(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	plan, err := h.repo.LatestStudyPlan(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load plan", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	if plan == nil {
		Error(w, http.StatusNotFound, "no plan yet")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"plan":        plan,
		"total_hours": plan.TotalHours(),
	})
}

// ListReminders returns the reminders set through the assistant.
func (h *StudyHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reminders, err := h.repo.ListReminders(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list reminders", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"reminders": reminders})
}

// lookup fetches links, treating any failure as none available.
func (h *StudyHandler) lookup(ctx context.Context, subject, method string) []content.Link {
	ctx, cancel := context.WithTimeout(ctx, h.linkTimeout)
	defer cancel()

	links, err := h.links.FetchLinks(ctx, subject, method)
	if err != nil {
		slog.Warn("Study material lookup failed", "subject", subject, "error", err)
		return []content.Link{}
	}
	if links == nil {
		links = []content.Link{}
	}
	return links
}
