// Package services contains server-side business logic. UserService is the
// boundary the transport layer calls into: registration, login and token
// authorization.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/metrics"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: hash a password and persist the credential
// - Login: verify credentials and mint an access token
// - Authorize: turn a presented token into an identity
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenManager
	logger      logging.Logger
	metrics     *metrics.Metrics

	// verified when the email is unknown so that a miss costs the same as
	// a wrong password
	dummyHash string
}

// NewUserService wires the service. m may be nil.
func NewUserService(
	db dbx.DBTX,
	rm repomanager.RepositoryManager,
	hasher auth.PasswordHasher,
	tokens *auth.TokenManager,
	logger logging.Logger,
	m *metrics.Metrics,
) (*UserService, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy hash seed: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &UserService{
		db:          db,
		repomanager: rm,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("component", "user_service"),
		metrics:     m,
		dummyHash:   dummy,
	}, nil
}

// TokenValidity is the lifetime of tokens returned by Login.
func (s *UserService) TokenValidity() time.Duration {
	return s.tokens.Validity()
}

// Register creates a new user. Errors match common.ErrorValidation,
// common.ErrDuplicateIdentity or common.ErrStorageUnavailable.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		s.metrics.Registration(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.Registration(metrics.OutcomeInvalid)
		s.logger.Warn(ctx, "password rejected", "email", email, "error", err)
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateIdentity):
			s.metrics.Registration(metrics.OutcomeDuplicate)
			s.logger.Info(ctx, "registration conflict", "email", email)
		case errors.Is(err, common.ErrStorageUnavailable):
			s.metrics.Registration(metrics.OutcomeUnavailable)
			s.logger.Error(ctx, "registration failed", "email", email, "error", err)
		default:
			s.metrics.Registration(metrics.OutcomeError)
			s.logger.Error(ctx, "registration failed", "email", email, "error", err)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.metrics.Registration(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// Login checks the password and returns a signed access token. Both failure
// reasons match common.ErrorUnauthorized; errors.Is against
// common.ErrorNotFound or common.ErrBadPassword tells them apart.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.metrics.Login(metrics.OutcomeNotFound)
			s.logger.Info(ctx, "login rejected", "email", email, "reason", "unknown email")
			return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrorNotFound)
		}
		s.metrics.Login(metrics.OutcomeUnavailable)
		s.logger.Error(ctx, "login lookup failed", "email", email, "error", err)
		return "", fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.Login(metrics.OutcomeBadPassword)
		s.logger.Info(ctx, "login rejected", "email", email, "reason", "bad password")
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrBadPassword)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// Authorize verifies token. Every failure matches common.ErrInvalidToken.
func (s *UserService) Authorize(ctx context.Context, token string) (*auth.Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			s.metrics.Authorization(metrics.OutcomeExpired)
		} else {
			s.metrics.Authorization(metrics.OutcomeInvalid)
		}
		s.logger.Debug(ctx, "token rejected", "error", err)
		return nil, err
	}

	s.metrics.Authorization(metrics.OutcomeSuccess)
	return id, nil
}
