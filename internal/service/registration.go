package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/model"
)

// RegistrationConfig carries admission control parameters.
type RegistrationConfig struct {
	MaxPendingAttempts int
	PhoneCountryCode   string
}

// RegisterParams is the input of a registration request.
type RegisterParams struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Method   model.VerificationMethod
}

// Registration is the admission controller for new local registrations. It
// enforces uniqueness across verified accounts and bounds the number of
// pending unverified attempts per email/phone.
type Registration struct {
	accounts         model.AccountStore
	verification     *Verification
	clock            model.Clock
	maxPending       int
	phoneCountryCode string
	phonePattern     *regexp.Regexp
	metrics          *metrics.Metrics
	logger           *logger.Logger
}

func NewRegistration(
	accounts model.AccountStore,
	verification *Verification,
	clock model.Clock,
	cfg RegistrationConfig,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Registration {
	return &Registration{
		accounts:         accounts,
		verification:     verification,
		clock:            clock,
		maxPending:       cfg.MaxPendingAttempts,
		phoneCountryCode: cfg.PhoneCountryCode,
		phonePattern:     newPhonePattern(cfg.PhoneCountryCode),
		metrics:          metrics,
		logger:           logger,
	}
}

// Register validates the request, admits it against uniqueness and pending
// attempt limits, creates an unverified account with a hashed password and
// dispatches an OTP over the chosen channel. A dispatch failure is reported
// to the caller; the plaintext password is never persisted either way.
func (s *Registration) Register(ctx context.Context, params RegisterParams) (model.Account, error) {
	if err := s.validate(params); err != nil {
		s.metrics.RegistrationRejected("validation")
		return model.Account{}, err
	}

	existing, err := s.accounts.GetVerified(ctx, params.Email, params.Phone)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, fmt.Errorf("failed to check verified accounts: %w", err)
	}
	if err == nil && existing.ID != uuid.Nil {
		s.logger.Info("registration rejected: verified account exists",
			"email", params.Email)
		s.metrics.RegistrationRejected("conflict")
		return model.Account{}, model.ErrConflict
	}

	pending, err := s.accounts.CountUnverified(ctx, params.Email, params.Phone)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to count pending registrations: %w", err)
	}
	if pending >= s.maxPending {
		s.logger.Info("registration rejected: pending attempt ceiling reached",
			"email", params.Email,
			"pending", pending)
		s.metrics.RegistrationRejected("rate_limited")
		return model.Account{}, model.ErrRateLimited
	}

	passwordHash, err := hashPassword(params.Password)
	if err != nil {
		return model.Account{}, err
	}

	now := s.clock.Now()
	account := model.Account{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: passwordHash,
		Provider:     model.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	account, err = s.accounts.Create(ctx, account)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	s.metrics.RegistrationAdmitted()
	s.logger.Info("registration admitted",
		"account_id", account.ID,
		"method", params.Method)

	account, err = s.verification.GenerateAndDispatch(ctx, account, params.Method)
	if err != nil {
		return model.Account{}, err
	}

	return account, nil
}

func (s *Registration) validate(params RegisterParams) error {
	switch {
	case params.Name == "":
		return model.NewValidationError("name", "required")
	case params.Email == "":
		return model.NewValidationError("email", "required")
	case params.Phone == "":
		return model.NewValidationError("phone", "required")
	case params.Password == "":
		return model.NewValidationError("password", "required")
	}

	if params.Method != model.VerificationMethodEmail && params.Method != model.VerificationMethodPhone {
		return model.NewValidationError("verificationMethod", "must be email or phone")
	}

	if !s.phonePattern.MatchString(params.Phone) {
		return model.NewValidationError("phone", "must be "+s.phoneCountryCode+" followed by 10 digits")
	}

	return nil
}
