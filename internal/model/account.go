package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// VerificationMethod selects the channel an OTP is delivered through.
type VerificationMethod string

const (
	VerificationMethodEmail VerificationMethod = "email"
	VerificationMethodPhone VerificationMethod = "phone"
)

// AccountStore defines persistence operations for accounts.
//
// Empty email/phone arguments never act as wildcards: a lookup with an empty
// value must not match rows whose column is empty.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	// GetVerified returns the verified account matching email or phone.
	GetVerified(ctx context.Context, email, phone string) (Account, error)
	GetVerifiedByEmail(ctx context.Context, email string) (Account, error)
	// CountUnverified counts pending registrations matching email or phone.
	CountUnverified(ctx context.Context, email, phone string) (int, error)
	// ListUnverified returns pending registrations matching email or phone,
	// most recent first.
	ListUnverified(ctx context.Context, email, phone string) ([]Account, error)
	// GetByResetTokenHash returns the verified account holding the digest,
	// regardless of expiry; expiry is the caller's concern.
	GetByResetTokenHash(ctx context.Context, digest []byte) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (Account, error)
	// DeleteByIDs removes the given accounts in a single statement.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	// DeleteUnverifiedBefore removes unverified accounts created before cutoff
	// and reports how many rows were deleted.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Account is the sole persisted identity entity. Uniqueness of email and
// phone holds only across verified accounts; unverified duplicates may
// coexist until verification-time collapse or reaping.
type Account struct {
	ID                        uuid.UUID
	Name                      string
	Email                     string
	Phone                     string
	PasswordHash              []byte
	AccountVerified           bool
	VerificationCode          *int
	VerificationCodeExpiresAt *time.Time
	ResetTokenHash            []byte
	ResetTokenExpiresAt       *time.Time
	GoogleID                  *string
	FacebookID                *string
	Provider                  Provider
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// Identifier carries whichever contact values the client supplied when
// submitting an OTP. At least one of the fields must be set.
type Identifier struct {
	Email string
	Phone string
}

// Empty reports whether neither contact value is present.
func (i Identifier) Empty() bool {
	return i.Email == "" && i.Phone == ""
}
