// Package server initializes and runs the authgate server: it opens the
// database, applies migrations, wires the user service and the HTTP
// transport, and shuts everything down on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/httpserver"
	"github.com/dmitrijs2005/authgate/internal/server/metrics"
	"github.com/dmitrijs2005/authgate/internal/server/middleware"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	httpServer  *httpserver.HTTPServer
}

// NewApp connects to the database, runs migrations and builds the object
// graph. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(w, c.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, dbx.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm, err := repomanager.NewRepositoryManager(c.DatabaseDriver, c.QueryTimeout)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(c.PasswordAlgorithm, c.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	us, err := services.NewUserService(db, rm, hasher, tokens, logger, m)
	if err != nil {
		return nil, err
	}

	guard := middleware.NewAuthGuard(us, logger, m, middleware.DefaultTokenSources(c.AllowQueryToken)...)
	hs := httpserver.NewHTTPServer(c.HTTPAddress, logger, us, guard, db, c.QueryTimeout, m)

	return &App{config: c, logger: logger, db: db, userService: us, httpServer: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"driver", app.config.DatabaseDriver,
		"query_token", app.config.AllowQueryToken,
	)

	app.initSignalHandler(cancelFunc)

	err := app.httpServer.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close failed", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")

	return err
}
