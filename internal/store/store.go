// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
)

// Repository defines the interface for persisting users, reminders and plans.
type Repository interface {
	// GetUser retrieves a user by their user ID. A missing user is (nil, nil).
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// CreateReminder stores a reminder and fills in its ID.
	CreateReminder(ctx context.Context, reminder *domain.Reminder) error

	// ListReminders returns a user's reminders, newest first.
	ListReminders(ctx context.Context, userID string) ([]domain.Reminder, error)

	// SaveStudyPlan stores a generated plan and fills in its ID.
	SaveStudyPlan(ctx context.Context, plan *domain.StudyPlan) error

	// LatestStudyPlan returns the most recent plan for a user, or (nil, nil).
	LatestStudyPlan(ctx context.Context, userID string) (*domain.StudyPlan, error)

	// DeleteInactiveUsers removes users (and their data) idle longer than ttl.
	DeleteInactiveUsers(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
