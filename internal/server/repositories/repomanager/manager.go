package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and owns the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// NewRepositoryManager picks the implementation matching a database/sql
// driver name. queryTimeout bounds every repository query.
func NewRepositoryManager(driver string, queryTimeout time.Duration) (RepositoryManager, error) {
	switch driver {
	case dbx.DriverPostgres:
		return &PostgresRepositoryManager{QueryTimeout: queryTimeout}, nil
	case dbx.DriverSQLite:
		return &SQLiteRepositoryManager{QueryTimeout: queryTimeout}, nil
	default:
		return nil, fmt.Errorf("no repository manager for driver %q", driver)
	}
}
