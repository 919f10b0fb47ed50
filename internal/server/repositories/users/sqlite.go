package users

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	sqlRepository
}

// NewSQLiteRepository binds a repository to a SQLite handle.
func NewSQLiteRepository(db dbx.DBTX, timeout time.Duration) *SQLiteRepository {
	return &SQLiteRepository{sqlRepository{
		db:      db,
		timeout: timeout,
		dialect: dialect{
			insertUser: `INSERT INTO users (email, password_hash)
		 VALUES (?, ?)
		 RETURNING id`,
			selectUserByEmail: `SELECT id, email, password_hash FROM users
		 WHERE email = ?`,
			isUniqueViolation: isSQLiteUniqueViolation,
		},
	}}
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}

	// primary result code only, when extended codes are off
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(sqliteErr.Error(), "UNIQUE")
}
