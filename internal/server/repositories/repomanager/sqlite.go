package repomanager

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/migrations"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/users"
)

// SQLiteRepositoryManager is the embedded-database variant, used for local
// runs and for tests that need a real uniqueness constraint.
type SQLiteRepositoryManager struct {
	QueryTimeout time.Duration
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db, m.QueryTimeout)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runGoose(ctx, db, "sqlite3", migrations.SQLiteDir)
}
