package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/metrics"
	"github.com/dmitrijs2005/authgate/internal/server/middleware"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- helpers ---

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "http.db")
	db, err := dbx.Open(ctx, dbx.DriverSQLite, dsn, dbx.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewRepositoryManager(dbx.DriverSQLite, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	hasher, err := auth.NewPasswordHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	us, err := services.NewUserService(db, rm, hasher, tokens, logging.NopLogger{}, m)
	require.NoError(t, err)

	guard := middleware.NewAuthGuard(us, logging.NopLogger{}, m)
	return NewHTTPServer(":0", logging.NopLogger{}, us, guard, db, time.Second, m)
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- flows ---

func TestRegisterLoginPrivate(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := postForm(t, h, "/register", url.Values{"email": {"alice@example.com"}, "password": {"secret123"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[registerResponse](t, rec)
	assert.Equal(t, "alice@example.com", reg.Email)
	assert.NotEmpty(t, reg.ID)
	assert.NotContains(t, rec.Body.String(), "secret123")

	rec = postJSON(t, h, "/login", `{"email":"alice@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[loginResponse](t, rec)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, int64(3600), login.ExpiresIn)
	require.NotEmpty(t, login.Token)

	rec = get(t, h, "/private", http.Header{"Authorization": {"Bearer " + login.Token}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, reg.ID, body["id"])

	rec = get(t, h, "/private?token="+url.QueryEscape(login.Token), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := postForm(t, h, "/register", url.Values{"email": {"alice@example.com"}, "password": {"secret123"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postForm(t, h, "/register", url.Values{"email": {"alice@example.com"}, "password": {"other"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postForm(t, h, "/register", url.Values{"email": {""}, "password": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/register", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Collapsed(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := postForm(t, h, "/register", url.Values{"email": {"alice@example.com"}, "password": {"secret123"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrong := postForm(t, h, "/login", url.Values{"email": {"alice@example.com"}, "password": {"nope"}})
	unknown := postForm(t, h, "/login", url.Values{"email": {"bob@example.com"}, "password": {"secret123"}})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.NotContains(t, wrong.Body.String(), "token\"")
}

func TestPrivate_Rejections(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token required")

	rec = get(t, h, "/private?token=garbage", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")

	rec = get(t, h, "/private", http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "OK"}, decode[map[string]string](t, rec))
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))

	rec = get(t, h, "/health", http.Header{common.RequestIDHeaderName: {"abc123"}})
	assert.Equal(t, "abc123", rec.Header().Get(common.RequestIDHeaderName))

	rec = get(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `authgate_http_requests_total{method="GET",route="/health",status="200"} 2`)
}

func TestRequestID_EchoesIncoming(t *testing.T) {
	h := newTestServer(t).Handler()

	for _, key := range []string{common.RequestIDHeaderName, "x-request-id", "X-Request-Id"} {
		rec := get(t, h, "/health", http.Header{key: {"req-" + key}})
		assert.Equal(t, "req-"+key, rec.Header().Get(common.RequestIDHeaderName), key)
	}
}

func TestTestDB(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/test-db", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestTestDB_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT CURRENT_TIMESTAMP`).WillReturnError(fmt.Errorf("connection refused"))

	s := NewHTTPServer(":0", logging.NopLogger{}, nil, middleware.NewAuthGuard(nil, logging.NopLogger{}, nil), db, time.Second, nil)

	rec := get(t, s.Handler(), "/test-db", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- service fault mapping ---

type stubUsers struct {
	err error
}

func (s stubUsers) Register(context.Context, string, string) (*models.User, error) {
	return nil, s.err
}
func (s stubUsers) Login(context.Context, string, string) (string, error) { return "", s.err }
func (s stubUsers) TokenValidity() time.Duration                          { return time.Hour }

func TestServiceFaults(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unavailable", fmt.Errorf("db error: %w: %w", common.ErrStorageUnavailable, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHTTPServer(":0", logging.NopLogger{}, stubUsers{err: tt.err}, middleware.NewAuthGuard(nil, logging.NopLogger{}, nil), nil, 0, nil)
			form := url.Values{"email": {"a@example.com"}, "password": {"pw"}}

			rec := postForm(t, s.Handler(), "/register", form)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotContains(t, rec.Body.String(), "deadline")

			rec = postForm(t, s.Handler(), "/login", form)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRun_Shutdown(t *testing.T) {
	s := NewHTTPServer("127.0.0.1:0", logging.NopLogger{}, stubUsers{}, middleware.NewAuthGuard(nil, logging.NopLogger{}, nil), nil, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
