package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// dialect captures what differs between SQL backends.
type dialect struct {
	insertUser        string
	selectUserByEmail string
	isUniqueViolation func(error) bool
}

// sqlRepository implements Repository over dbx.DBTX for a given dialect.
type sqlRepository struct {
	db      dbx.DBTX
	timeout time.Duration
	dialect dialect
}

func (r *sqlRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *sqlRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx, r.dialect.insertUser, user.Email, user.PasswordHash).Scan(&user.ID)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return nil, fmt.Errorf("db error: %w", common.ErrDuplicateIdentity)
		}
		return nil, storageError(err)
	}

	return user, nil
}

func (r *sqlRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, r.dialect.selectUserByEmail, email).Scan(&user.ID, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, storageError(err)
	}

	return user, nil
}

// storageError marks err as an infrastructure fault while keeping the cause
// in the chain for logs.
func storageError(err error) error {
	return fmt.Errorf("db error: %w: %w", common.ErrStorageUnavailable, err)
}
