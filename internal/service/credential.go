package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/model"
)

// CredentialConfig carries token issuance parameters.
type CredentialConfig struct {
	ResetTokenTTL time.Duration
	FrontendURL   string
}

const resetSecretBytes = 20

// Credential issues and validates session tokens and password reset tokens.
// Reset secrets are stored only as a one-way digest; the raw secret leaves
// this service exactly once, in the return value of IssueResetToken.
type Credential struct {
	accounts      model.AccountStore
	tokenManager  model.TokenManager
	notifier      model.Notifier
	clock         model.Clock
	resetTokenTTL time.Duration
	frontendURL   string
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewCredential(
	accounts model.AccountStore,
	tokenManager model.TokenManager,
	notifier model.Notifier,
	clock model.Clock,
	cfg CredentialConfig,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Credential {
	return &Credential{
		accounts:      accounts,
		tokenManager:  tokenManager,
		notifier:      notifier,
		clock:         clock,
		resetTokenTTL: cfg.ResetTokenTTL,
		frontendURL:   cfg.FrontendURL,
		metrics:       metrics,
		logger:        logger,
	}
}

// IssueSession signs a session token for the account.
func (s *Credential) IssueSession(ctx context.Context, accountID uuid.UUID) (string, error) {
	token, err := s.tokenManager.GenerateSessionToken(accountID)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return token, nil
}

// VerifySession validates a session token and returns the account ID it
// carries. Fails with model.ErrTokenInvalid or model.ErrTokenExpired.
func (s *Credential) VerifySession(ctx context.Context, token string) (uuid.UUID, error) {
	return s.tokenManager.ParseSessionToken(token)
}

// Login authenticates a verified account by email and password and issues a
// session token.
func (s *Credential) Login(ctx context.Context, email, password string) (string, model.Account, error) {
	if email == "" {
		return "", model.Account{}, model.NewValidationError("email", "required")
	}
	if password == "" {
		return "", model.Account{}, model.NewValidationError("password", "required")
	}

	account, err := s.accounts.GetVerifiedByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.Account{}, model.ErrNotFound
	}
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	if len(account.PasswordHash) == 0 || !comparePassword(account.PasswordHash, password) {
		return "", model.Account{}, model.ErrInvalidCredentials
	}

	token, err := s.IssueSession(ctx, account.ID)
	if err != nil {
		return "", model.Account{}, err
	}

	return token, account, nil
}

// GetAccount loads the account behind an authenticated session.
func (s *Credential) GetAccount(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// IssueResetToken generates a random reset secret for the verified account
// with the given email, persists its digest and expiry, mails the reset link
// and returns the raw secret. The raw secret is never re-derivable from
// storage. If the mail cannot be sent the reset fields are cleared again so
// no orphaned digest lingers.
func (s *Credential) IssueResetToken(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", model.NewValidationError("email", "required")
	}

	account, err := s.accounts.GetVerifiedByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get account by email: %w", err)
	}

	raw := make([]byte, resetSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to draw reset secret: %w", err)
	}
	rawSecret := hex.EncodeToString(raw)

	digest := hashResetSecret(rawSecret)
	expiresAt := s.clock.Now().Add(s.resetTokenTTL)
	account.ResetTokenHash = digest
	account.ResetTokenExpiresAt = &expiresAt

	account, err = s.accounts.Update(ctx, account)
	if err != nil {
		return "", fmt.Errorf("failed to persist reset token digest: %w", err)
	}

	resetURL := fmt.Sprintf("%s/password/reset/%s", s.frontendURL, rawSecret)
	message := model.Message{
		Subject: "Password Reset",
		Body: fmt.Sprintf(
			"You requested a password reset. Please open the link below to reset your password:\n\n%s\n\nIf you did not request this, please ignore this email.",
			resetURL),
	}

	if err := s.notifier.Send(ctx, model.ChannelEmail, account.Email, message); err != nil {
		s.logger.Error("failed to send password reset email",
			"account_id", account.ID,
			"error", err.Error())

		account.ResetTokenHash = nil
		account.ResetTokenExpiresAt = nil
		if _, clearErr := s.accounts.Update(ctx, account); clearErr != nil {
			s.logger.Error("failed to clear reset token after send failure",
				"account_id", account.ID,
				"error", clearErr.Error())
		}
		return "", fmt.Errorf("failed to send password reset email: %w", err)
	}

	s.metrics.NotificationSent(string(model.ChannelEmail))
	s.logger.Info("password reset token issued",
		"account_id", account.ID)

	return rawSecret, nil
}

// ValidateAndConsume digests the supplied reset secret, looks up a
// non-expired matching account, updates the password hash and clears the
// reset fields, then issues a fresh session token. The token is single-use:
// a second call with the same secret fails with model.ErrTokenInvalid.
func (s *Credential) ValidateAndConsume(ctx context.Context, rawSecret, newPassword string) (string, model.Account, error) {
	if rawSecret == "" {
		return "", model.Account{}, model.ErrTokenInvalid
	}
	if newPassword == "" {
		return "", model.Account{}, model.NewValidationError("password", "required")
	}

	account, err := s.accounts.GetByResetTokenHash(ctx, hashResetSecret(rawSecret))
	if errors.Is(err, model.ErrNotFound) {
		return "", model.Account{}, model.ErrTokenInvalid
	}
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to look up reset token: %w", err)
	}

	if account.ResetTokenExpiresAt == nil || s.clock.Now().After(*account.ResetTokenExpiresAt) {
		return "", model.Account{}, model.ErrTokenExpired
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return "", model.Account{}, err
	}

	account.PasswordHash = passwordHash
	account.ResetTokenHash = nil
	account.ResetTokenExpiresAt = nil

	account, err = s.accounts.Update(ctx, account)
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to persist new password: %w", err)
	}

	s.logger.Info("password reset completed",
		"account_id", account.ID)

	token, err := s.IssueSession(ctx, account.ID)
	if err != nil {
		return "", model.Account{}, err
	}

	return token, account, nil
}

// hashResetSecret computes the only form of the reset secret that is ever
// persisted.
func hashResetSecret(rawSecret string) []byte {
	digest := sha256.Sum256([]byte(rawSecret))
	return digest[:]
}
