// Package httpserver exposes the user service over HTTP with gin.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/metrics"
	"github.com/dmitrijs2005/authgate/internal/server/middleware"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// UserService is the part of services.UserService the handlers need.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	TokenValidity() time.Duration
}

type HTTPServer struct {
	address      string
	logger       logging.Logger
	users        UserService
	guard        *middleware.AuthGuard
	db           dbx.DBTX
	dbTimeout    time.Duration
	metrics      *metrics.Metrics
	routerEngine *gin.Engine
}

func NewHTTPServer(
	address string,
	l logging.Logger,
	us UserService,
	guard *middleware.AuthGuard,
	db dbx.DBTX,
	dbTimeout time.Duration,
	m *metrics.Metrics,
) *HTTPServer {
	s := &HTTPServer{
		address:   address,
		logger:    l.With("module", "http_server"),
		users:     us,
		guard:     guard,
		db:        db,
		dbTimeout: dbTimeout,
		metrics:   m,
	}
	s.routerEngine = s.newRouter()
	return s
}

// Handler returns the configured router.
func (s *HTTPServer) Handler() http.Handler {
	return s.routerEngine
}

func (s *HTTPServer) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.health)
	router.GET("/test-db", s.testDB)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	router.POST("/register", s.register)
	router.POST("/login", s.login)

	private := router.Group("/")
	private.Use(middleware.GinRequireAuth(s.guard))
	private.GET("/private", s.private)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routerEngine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
