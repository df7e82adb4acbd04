package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

// busyError provokes a real SQLITE_BUSY: one connection holds an exclusive
// transaction while another, with no busy timeout, tries to write.
func busyError(t *testing.T) error {
	t.Helper()
	path := filepath.Join(t.TempDir(), "busy.db")

	holder, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = holder.Close() })
	holder.SetMaxOpenConns(1)
	if _, err := holder.Exec(`CREATE TABLE t (v INTEGER)`); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	conn, err := holder.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if _, err := conn.ExecContext(ctx, `BEGIN EXCLUSIVE`); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _, _ = conn.ExecContext(ctx, `ROLLBACK`) })

	other, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(0)")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = other.Close() })

	_, err = other.Exec(`INSERT INTO t (v) VALUES (1)`)
	if err == nil {
		t.Fatal("write under an exclusive lock succeeded")
	}
	return err
}

func TestSQLiteErrorClassification(t *testing.T) {
	t.Parallel()

	busy := busyError(t)
	wrapped := fmt.Errorf("upsert user: %w", busy)

	tests := []struct {
		name     string
		err      error
		busy     bool
		locked   bool
		conflict bool
	}{
		{"nil", nil, false, false, false},
		{"busy", busy, true, false, true},
		{"wrapped busy", wrapped, true, false, true},
		// Only driver errors count, not look-alike messages.
		{"plain text", errors.New("database is locked (5) (SQLITE_BUSY)"), false, false, false},
		{"other", sql.ErrNoRows, false, false, false},
	}
	for _, tt := range tests {
		if got := IsSQLiteBusyError(tt.err); got != tt.busy {
			t.Errorf("%s: IsSQLiteBusyError = %v, want %v (err %v)", tt.name, got, tt.busy, tt.err)
		}
		if got := IsSQLiteLockedError(tt.err); got != tt.locked {
			t.Errorf("%s: IsSQLiteLockedError = %v, want %v", tt.name, got, tt.locked)
		}
		if got := IsSQLiteConflictError(tt.err); got != tt.conflict {
			t.Errorf("%s: IsSQLiteConflictError = %v, want %v", tt.name, got, tt.conflict)
		}
	}
}
