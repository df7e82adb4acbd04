package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
	"github.com/sujith0466/Smart-Study-Buddy/internal/shared"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection. Write
	// transactions take the lock up front so they queue on busy_timeout
	// instead of failing on upgrade.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users(last_seen_at);

	CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		at TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id, created_at);

	CREATE TABLE IF NOT EXISTS study_plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		method TEXT NOT NULL,
		items_json TEXT NOT NULL,
		schedule_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_study_plans_user ON study_plans(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// withRetry runs a statement, retrying with exponential backoff while SQLite
// reports lock contention that outlasted busy_timeout.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < writeRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == writeRetries-1 {
			break
		}
		delay := writeBaseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite write conflict, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	var found bool
	err := withRetry(ctx, "scan user row", func() error {
		err := s.db.QueryRowContext(ctx, query, userID).Scan(
			&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	return withRetry(ctx, "upsert user", func() error {
		_, err := s.db.ExecContext(ctx, query,
			user.UserID, user.Username, user.LastSeenAt.Unix(),
			user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
		)
		return err
	})
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`

	var rows int64
	err := withRetry(ctx, "update last_seen", func() error {
		result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// CreateReminder stores a reminder.
func (s *SQLiteStore) CreateReminder(ctx context.Context, reminder *domain.Reminder) error {
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now()
	}
	query := `INSERT INTO reminders (user_id, at, created_at) VALUES (?, ?, ?)`

	return withRetry(ctx, "create reminder", func() error {
		result, err := s.db.ExecContext(ctx, query, reminder.UserID, reminder.At, reminder.CreatedAt.Unix())
		if err != nil {
			return err
		}
		reminder.ID, err = result.LastInsertId()
		return err
	})
}

// ListReminders returns a user's reminders, newest first.
func (s *SQLiteStore) ListReminders(ctx context.Context, userID string) ([]domain.Reminder, error) {
	query := `
		SELECT id, user_id, at, created_at
		FROM reminders WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close reminder rows", "error", closeErr)
		}
	}()

	reminders := []domain.Reminder{}
	for rows.Next() {
		var r domain.Reminder
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.At, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return reminders, nil
}

// SaveStudyPlan stores a generated plan.
func (s *SQLiteStore) SaveStudyPlan(ctx context.Context, plan *domain.StudyPlan) error {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	items, err := json.Marshal(plan.Items)
	if err != nil {
		return fmt.Errorf("marshal plan items: %w", err)
	}
	schedule, err := json.Marshal(plan.Schedule)
	if err != nil {
		return fmt.Errorf("marshal plan schedule: %w", err)
	}

	query := `
		INSERT INTO study_plans (user_id, method, items_json, schedule_json, created_at)
		VALUES (?, ?, ?, ?, ?)`

	return withRetry(ctx, "save study plan", func() error {
		result, err := s.db.ExecContext(ctx, query,
			plan.UserID, plan.Method, string(items), string(schedule), plan.CreatedAt.Unix())
		if err != nil {
			return err
		}
		plan.ID, err = result.LastInsertId()
		return err
	})
}

// LatestStudyPlan returns the most recent plan for a user.
func (s *SQLiteStore) LatestStudyPlan(ctx context.Context, userID string) (*domain.StudyPlan, error) {
	query := `
		SELECT id, user_id, method, items_json, schedule_json, created_at
		FROM study_plans WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`

	var plan domain.StudyPlan
	var items, schedule string
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&plan.ID, &plan.UserID, &plan.Method, &items, &schedule, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan study plan: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &plan.Items); err != nil {
		return nil, fmt.Errorf("decode plan items: %w", err)
	}
	if err := json.Unmarshal([]byte(schedule), &plan.Schedule); err != nil {
		return nil, fmt.Errorf("decode plan schedule: %w", err)
	}
	plan.CreatedAt = time.Unix(createdAt, 0)
	return &plan, nil
}

// DeleteInactiveUsers removes users idle longer than ttl together with their
// reminders and plans.
func (s *SQLiteStore) DeleteInactiveUsers(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	var deleted int64
	err := withRetry(ctx, "delete inactive users", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stale := `SELECT user_id FROM users WHERE last_seen_at < ?`
		if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE user_id IN (`+stale+`)`, threshold); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM study_plans WHERE user_id IN (`+stale+`)`, threshold); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE last_seen_at < ?`, threshold)
		if err != nil {
			return err
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	return deleted, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
