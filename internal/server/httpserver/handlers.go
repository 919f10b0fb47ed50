package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// credentials accepts both HTML form posts and JSON bodies.
type credentials struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *HTTPServer) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request"})
		return
	}

	u, err := s.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.Is(err, common.ErrDuplicateIdentity):
			c.JSON(http.StatusConflict, errorResponse{Error: "email already registered"})
		case errors.Is(err, common.ErrStorageUnavailable):
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusCreated, registerResponse{ID: u.ID, Email: u.Email})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request"})
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			// unknown email and wrong password look the same to the client
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
		case errors.Is(err, common.ErrStorageUnavailable):
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		TokenType: common.BearerScheme,
		ExpiresIn: int64(s.users.TokenValidity().Seconds()),
	})
}

func (s *HTTPServer) private(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id.ID,
		"email":   id.Email,
		"message": fmt.Sprintf("Hello, %s. This is a protected route.", id.Email),
	})
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *HTTPServer) testDB(c *gin.Context) {
	ctx := c.Request.Context()
	if s.dbTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.dbTimeout)
		defer cancel()
	}

	now, err := dbx.ServerTime(ctx, s.db)
	if err != nil {
		s.logger.Error(ctx, "database probe failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "database connection ok",
		"timestamp": now,
	})
}
