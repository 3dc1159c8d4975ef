package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/model"
)

// Claims represents session token claims with the account ID.
type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"account_id"`
	TokenType string    `json:"typ"`
}

// JWT implements model.TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  string
	sessionTTL time.Duration
}

// NewJWT creates a new JWT token manager with the provided secret key and
// session lifetime.
func NewJWT(secretKey string, sessionTTL time.Duration) *JWT {
	return &JWT{secretKey: secretKey, sessionTTL: sessionTTL}
}

var _ model.TokenManager = (*JWT)(nil)

const typeSession = "session"

// GenerateSessionToken creates a signed, time-bounded bearer token carrying
// the account ID.
func (j *JWT) GenerateSessionToken(accountID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.sessionTTL)),
		},
		AccountID: accountID,
		TokenType: typeSession,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ParseSessionToken validates a session token and extracts the account ID.
// Expired tokens fail with model.ErrTokenExpired, everything else with
// model.ErrTokenInvalid.
func (j *JWT) ParseSessionToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, model.ErrTokenExpired
		}
		return uuid.Nil, model.ErrTokenInvalid
	}
	if !token.Valid {
		return uuid.Nil, model.ErrTokenInvalid
	}
	if claims.TokenType != typeSession {
		return uuid.Nil, model.ErrTokenInvalid
	}
	if claims.AccountID == uuid.Nil {
		return uuid.Nil, model.ErrTokenInvalid
	}
	return claims.AccountID, nil
}
