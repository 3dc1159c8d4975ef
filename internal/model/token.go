package model

import "github.com/google/uuid"

// TokenManager signs and validates session tokens.
type TokenManager interface {
	GenerateSessionToken(accountID uuid.UUID) (string, error)
	ParseSessionToken(token string) (uuid.UUID, error)
}
