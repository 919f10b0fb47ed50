// Package common defines shared constants and sentinel errors used across
// the authgate server layers. Callers should use errors.Is to match these
// values, since most of them travel wrapped.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrDuplicateIdentity  = errors.New("identity already registered")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrBadPassword    = errors.New("bad password")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (missing, invalid, malformed or forged token).
	ErrMissingToken = errors.New("token required")
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors. Always reported together with ErrInvalidToken.
	ErrTokenExpired = errors.New("token expired")
)
