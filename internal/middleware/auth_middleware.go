package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/callable"
	"github.com/tripzi/tripzi-backend/internal/core"
	"github.com/tripzi/tripzi-backend/internal/firebase"
)

// Context keys set by the auth middleware.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

// AuthMiddleware verifies Firebase ID tokens.
type AuthMiddleware struct {
	verifier firebase.TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier firebase.TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("token verifier is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// OptionalAuth lets anonymous requests through but rejects a present,
// invalid token.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		m.verify(c)
	}
}

// RequireAuth rejects requests without a valid token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			callable.WriteError(c, core.ErrUnauthenticated())
			return
		}
		m.verify(c)
	}
}

func (m *AuthMiddleware) verify(c *gin.Context) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		callable.WriteError(c, core.ErrUnauthenticated())
		return
	}

	token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
	if err != nil {
		m.logger.Info("rejected ID token", zap.String("requestId", RequestID(c)), zap.Error(err))
		callable.WriteError(c, core.ErrUnauthenticated())
		return
	}

	c.Set(ContextUserID, token.UID)
	if token.Email != "" {
		c.Set(ContextUserEmail, token.Email)
	}
	c.Next()
}

// Caller builds the core caller from what the middleware chain stored.
func Caller(c *gin.Context) core.Caller {
	return core.Caller{
		UID:       c.GetString(ContextUserID),
		Email:     c.GetString(ContextUserEmail),
		RequestID: RequestID(c),
	}
}
