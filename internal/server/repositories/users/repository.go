// Package users is the credential store: persistence of (email, password
// hash) pairs behind a small Repository interface, with PostgreSQL and
// SQLite implementations.
//
// Email uniqueness is owned by the storage layer. Create never pre-checks
// for an existing row; it relies on the UNIQUE constraint and maps the
// violation to common.ErrDuplicateIdentity, so two concurrent registrations
// of the same email cannot both succeed.
package users

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in the store-assigned ID.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail is an exact, case-sensitive lookup.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
