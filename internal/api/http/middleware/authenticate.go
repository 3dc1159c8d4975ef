package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/model"
)

// SessionVerifier resolves account IDs from session tokens.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (uuid.UUID, error)
}

// Authenticate validates session tokens and injects the account ID into the
// request context. Tokens are read from the session cookie or, failing that,
// the Authorization bearer header.
type Authenticate struct {
	verifier       SessionVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier SessionVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// Handler aborts unauthenticated requests with 401.
func (m *Authenticate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := m.extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "please login to access this resource",
			})
			return
		}

		accountID, err := m.verifier.VerifySession(c.Request.Context(), tokenString)
		if err != nil || accountID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid token, please login again",
			})
			return
		}

		ctx := m.contextManager.SetAccountIDToContext(c.Request.Context(), accountID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (m *Authenticate) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("token"); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
