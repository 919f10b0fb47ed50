package users

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	sqlRepository
}

// NewPostgresRepository binds a repository to db. Each query is bounded by
// timeout; zero disables the per-query deadline.
func NewPostgresRepository(db dbx.DBTX, timeout time.Duration) *PostgresRepository {
	return &PostgresRepository{sqlRepository{
		db:      db,
		timeout: timeout,
		dialect: dialect{
			insertUser: `INSERT INTO users (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`,
			selectUserByEmail: `SELECT id, email, password_hash FROM users
		 WHERE email = $1`,
			isUniqueViolation: isPgUniqueViolation,
		},
	}}
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation
}
