// Package middleware holds the authorization guard for protected routes.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/metrics"
)

// TokenSource extracts a bearer token from a request. ok is false when the
// source has nothing to offer, so the next source is tried.
type TokenSource interface {
	Token(r *http.Request) (token string, ok bool)
}

// QueryTokenSource reads the token from a URL query parameter.
type QueryTokenSource struct {
	Param string
}

func (s QueryTokenSource) Token(r *http.Request) (string, bool) {
	param := s.Param
	if param == "" {
		param = common.TokenQueryParam
	}
	t := r.URL.Query().Get(param)
	return t, t != ""
}

// BearerHeaderSource reads "Authorization: Bearer <token>". Other schemes
// are ignored.
type BearerHeaderSource struct{}

func (BearerHeaderSource) Token(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// DefaultTokenSources returns the lookup order used when none is given:
// query parameter first, then the Authorization header.
func DefaultTokenSources(allowQuery bool) []TokenSource {
	if !allowQuery {
		return []TokenSource{BearerHeaderSource{}}
	}
	return []TokenSource{QueryTokenSource{Param: common.TokenQueryParam}, BearerHeaderSource{}}
}

// Authorizer turns a token into an identity. services.UserService
// implements it.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*auth.Identity, error)
}

type AuthGuard struct {
	authorizer Authorizer
	sources    []TokenSource
	logger     logging.Logger
	metrics    *metrics.Metrics
}

// NewAuthGuard builds a guard trying sources in order. With no sources the
// defaults (query, then header) apply.
func NewAuthGuard(a Authorizer, logger logging.Logger, m *metrics.Metrics, sources ...TokenSource) *AuthGuard {
	if len(sources) == 0 {
		sources = DefaultTokenSources(true)
	}
	return &AuthGuard{
		authorizer: a,
		sources:    sources,
		logger:     logger.With("component", "auth_guard"),
		metrics:    m,
	}
}

// Authorize resolves the caller's identity. A request carrying no token
// yields common.ErrMissingToken; a rejected one common.ErrInvalidToken.
func (g *AuthGuard) Authorize(r *http.Request) (*auth.Identity, error) {
	for _, src := range g.sources {
		if token, ok := src.Token(r); ok {
			return g.authorizer.Authorize(r.Context(), token)
		}
	}
	return nil, common.ErrMissingToken
}

// RequireAuth answers 401 when no token is presented and 403 when it is
// rejected. Otherwise the identity is attached to the request context.
func (g *AuthGuard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authorize(r)
		if err != nil {
			if errors.Is(err, common.ErrMissingToken) {
				g.metrics.Authorization(metrics.OutcomeMissing)
				g.logger.Debug(r.Context(), "request without token", "path", r.URL.Path)
				http.Error(w, common.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}
			g.logger.Info(r.Context(), "request with rejected token", "path", r.URL.Path)
			http.Error(w, common.ErrInvalidToken.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
