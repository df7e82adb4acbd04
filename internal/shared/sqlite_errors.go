// Package shared provides helpers used by more than one package.
package shared

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteCode returns the primary result code of a driver error, or false if
// err does not come from the SQLite driver.
func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	// Extended codes such as SQLITE_BUSY_SNAPSHOT keep the primary code in
	// the low byte.
	return se.Code() & 0xff, true
}

// IsSQLiteBusyError reports whether err is SQLITE_BUSY: another connection
// holds a conflicting lock on the database file.
func IsSQLiteBusyError(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_BUSY
}

// IsSQLiteLockedError reports whether err is SQLITE_LOCKED: a conflict
// inside the same connection or shared cache.
func IsSQLiteLockedError(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_LOCKED
}

// IsSQLiteConflictError reports whether err is a lock conflict worth retrying.
func IsSQLiteConflictError(err error) bool {
	return IsSQLiteBusyError(err) || IsSQLiteLockedError(err)
}
