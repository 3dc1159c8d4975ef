package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/model"
)

// VerificationConfig carries OTP engine parameters.
type VerificationConfig struct {
	CodeTTL          time.Duration
	PhoneCountryCode string
}

// Verification issues OTPs and validates submitted codes. Validation is the
// point where concurrent duplicate registrations collapse onto a single
// canonical account: registration cannot know which attempt the user will
// complete, so the collapse must happen here.
type Verification struct {
	accounts     model.AccountStore
	notifier     model.Notifier
	credential   *Credential
	clock        model.Clock
	codeTTL      time.Duration
	phonePattern *regexp.Regexp
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewVerification(
	accounts model.AccountStore,
	notifier model.Notifier,
	credential *Credential,
	clock model.Clock,
	cfg VerificationConfig,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Verification {
	return &Verification{
		accounts:     accounts,
		notifier:     notifier,
		credential:   credential,
		clock:        clock,
		codeTTL:      cfg.CodeTTL,
		phonePattern: newPhonePattern(cfg.PhoneCountryCode),
		metrics:      metrics,
		logger:       logger,
	}
}

// generateCode draws a 6-digit integer with no leading zero from a uniform
// random source.
func generateCode() (int, error) {
	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return 0, fmt.Errorf("failed to draw verification code: %w", err)
	}
	rest, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return 0, fmt.Errorf("failed to draw verification code: %w", err)
	}
	return int(first.Int64()+1)*100000 + int(rest.Int64()), nil
}

// GenerateAndDispatch sets a fresh OTP and expiry on the account, persists
// it and sends it over the chosen channel. A delivery failure surfaces to
// the caller; the account row keeps only the code, never the password or
// any other secret in plaintext.
func (s *Verification) GenerateAndDispatch(ctx context.Context, account model.Account, method model.VerificationMethod) (model.Account, error) {
	code, err := generateCode()
	if err != nil {
		return model.Account{}, err
	}

	expiresAt := s.clock.Now().Add(s.codeTTL)
	account.VerificationCode = &code
	account.VerificationCodeExpiresAt = &expiresAt

	account, err = s.accounts.Update(ctx, account)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to persist verification code: %w", err)
	}

	channel := model.ChannelEmail
	destination := account.Email
	if method == model.VerificationMethodPhone {
		channel = model.ChannelSMS
		destination = account.Phone
	}

	if err := s.notifier.Send(ctx, channel, destination, verificationMessage(code, s.codeTTL)); err != nil {
		s.logger.Error("failed to dispatch verification code",
			"account_id", account.ID,
			"channel", channel,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to dispatch verification code: %w", err)
	}

	s.metrics.NotificationSent(string(channel))
	s.logger.Info("verification code dispatched",
		"account_id", account.ID,
		"channel", channel)

	return account, nil
}

// Validate checks a submitted OTP against the pending registrations matching
// the identifier, collapsing duplicates onto the most recent attempt. On
// success the account is marked verified and a session token is issued.
func (s *Verification) Validate(ctx context.Context, ident model.Identifier, code int) (string, model.Account, error) {
	if ident.Empty() {
		return "", model.Account{}, model.NewValidationError("identifier", "email or phone required")
	}
	if ident.Phone != "" && !s.phonePattern.MatchString(ident.Phone) {
		return "", model.Account{}, model.NewValidationError("phone", "malformed phone number")
	}

	pending, err := s.accounts.ListUnverified(ctx, ident.Email, ident.Phone)
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to list pending registrations: %w", err)
	}
	if len(pending) == 0 {
		return "", model.Account{}, model.ErrNotFound
	}

	canonical, superseded := collapse(pending)
	if len(superseded) > 0 {
		if err := s.accounts.DeleteByIDs(ctx, superseded); err != nil {
			return "", model.Account{}, fmt.Errorf("failed to collapse duplicate registrations: %w", err)
		}
		s.metrics.DuplicatesCollapsed(len(superseded))
		s.logger.Info("collapsed duplicate pending registrations",
			"canonical_id", canonical.ID,
			"removed", len(superseded))
	}

	if canonical.VerificationCode == nil || *canonical.VerificationCode != code {
		return "", model.Account{}, model.ErrCodeMismatch
	}
	if canonical.VerificationCodeExpiresAt == nil || s.clock.Now().After(*canonical.VerificationCodeExpiresAt) {
		return "", model.Account{}, model.ErrCodeExpired
	}

	canonical.AccountVerified = true
	canonical.VerificationCode = nil
	canonical.VerificationCodeExpiresAt = nil

	canonical, err = s.accounts.Update(ctx, canonical)
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to mark account verified: %w", err)
	}

	s.metrics.AccountVerified()
	s.logger.Info("account verified",
		"account_id", canonical.ID)

	sessionToken, err := s.credential.IssueSession(ctx, canonical.ID)
	if err != nil {
		return "", model.Account{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	return sessionToken, canonical, nil
}

// collapse picks the most recent pending registration as canonical and
// returns the IDs of the superseded rest. The input is ordered most recent
// first by the store contract.
func collapse(pending []model.Account) (model.Account, []uuid.UUID) {
	canonical := pending[0]
	if len(pending) == 1 {
		return canonical, nil
	}

	superseded := make([]uuid.UUID, 0, len(pending)-1)
	for _, account := range pending[1:] {
		superseded = append(superseded, account.ID)
	}
	return canonical, superseded
}

func verificationMessage(code int, ttl time.Duration) model.Message {
	return model.Message{
		Subject: "Account Verification",
		Body: fmt.Sprintf(
			"Your verification code is %d. Please do not share this code with anyone. It expires in %d minutes.",
			code, int(ttl.Minutes())),
	}
}
