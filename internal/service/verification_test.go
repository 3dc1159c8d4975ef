package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/mocks"
	"github.com/veriflow/identity/internal/model"
)

func newTestVerification(accounts model.AccountStore, notifier model.Notifier, tokMan model.TokenManager, clock model.Clock) *Verification {
	log := logger.New(0)
	m := metrics.New()

	credential := NewCredential(accounts, tokMan, notifier, clock, CredentialConfig{
		ResetTokenTTL: 30 * time.Minute,
		FrontendURL:   "http://localhost:5173",
	}, m, log)
	return NewVerification(accounts, notifier, credential, clock, VerificationConfig{
		CodeTTL:          30 * time.Minute,
		PhoneCountryCode: "+91",
	}, m, log)
}

func pendingAccount(code int, expiresAt time.Time, createdAt time.Time) model.Account {
	return model.Account{
		ID:                        uuid.New(),
		Name:                      "Asha",
		Email:                     "asha@example.com",
		Phone:                     "+919876543210",
		Provider:                  model.ProviderLocal,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expiresAt,
		CreatedAt:                 createdAt,
	}
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 10000; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.GreaterOrEqual(t, code, 100000)
		require.LessOrEqual(t, code, 999999)
	}
}

func TestCollapse(t *testing.T) {
	now := time.Now()

	single := []model.Account{pendingAccount(123456, now, now)}
	canonical, superseded := collapse(single)
	assert.Equal(t, single[0].ID, canonical.ID)
	assert.Empty(t, superseded)

	many := []model.Account{
		pendingAccount(111111, now, now),
		pendingAccount(222222, now, now.Add(-time.Minute)),
		pendingAccount(333333, now, now.Add(-2*time.Minute)),
	}
	canonical, superseded = collapse(many)
	assert.Equal(t, many[0].ID, canonical.ID)
	require.Len(t, superseded, 2)
	assert.Equal(t, []uuid.UUID{many[1].ID, many[2].ID}, superseded)
}

func TestVerification_Validate_EmptyIdentifier(t *testing.T) {
	s := newTestVerification(&mocks.AccountStore{}, &mocks.Notifier{}, &mocks.TokenManager{}, &fakeClock{now: time.Now()})

	_, _, err := s.Validate(context.Background(), model.Identifier{}, 123456)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestVerification_Validate_MalformedPhone(t *testing.T) {
	s := newTestVerification(&mocks.AccountStore{}, &mocks.Notifier{}, &mocks.TokenManager{}, &fakeClock{now: time.Now()})

	_, _, err := s.Validate(context.Background(), model.Identifier{Phone: "9876543210"}, 123456)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "phone", validationErr.Field)
}

func TestVerification_Validate_NoPendingRegistration(t *testing.T) {
	accounts := &mocks.AccountStore{}
	s := newTestVerification(accounts, &mocks.Notifier{}, &mocks.TokenManager{}, &fakeClock{now: time.Now()})

	accounts.On("ListUnverified", mock.Anything, "asha@example.com", "").
		Return([]model.Account{}, nil)

	_, _, err := s.Validate(context.Background(), model.Identifier{Email: "asha@example.com"}, 123456)

	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestVerification_Validate_CodeMismatch(t *testing.T) {
	accounts := &mocks.AccountStore{}
	now := time.Now()
	s := newTestVerification(accounts, &mocks.Notifier{}, &mocks.TokenManager{}, &fakeClock{now: now})

	accounts.On("ListUnverified", mock.Anything, "asha@example.com", "").
		Return([]model.Account{pendingAccount(123456, now.Add(10*time.Minute), now)}, nil)

	_, _, err := s.Validate(context.Background(), model.Identifier{Email: "asha@example.com"}, 654321)

	require.ErrorIs(t, err, model.ErrCodeMismatch)
	accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestVerification_Validate_CodeExpired(t *testing.T) {
	accounts := &mocks.AccountStore{}
	now := time.Now()
	s := newTestVerification(accounts, &mocks.Notifier{}, &mocks.TokenManager{}, &fakeClock{now: now})

	accounts.On("ListUnverified", mock.Anything, "asha@example.com", "").
		Return([]model.Account{pendingAccount(123456, now.Add(-time.Millisecond), now.Add(-31*time.Minute))}, nil)

	_, _, err := s.Validate(context.Background(), model.Identifier{Email: "asha@example.com"}, 123456)

	require.ErrorIs(t, err, model.ErrCodeExpired)
	accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// A code is still valid at the exact expiry instant; it turns invalid only
// after the instant has passed.
func TestVerification_Validate_ExpiryBoundary(t *testing.T) {
	accounts := &mocks.AccountStore{}
	tokMan := &mocks.TokenManager{}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestVerification(accounts, &mocks.Notifier{}, tokMan, &fakeClock{now: now})

	accounts.On("ListUnverified", mock.Anything, "asha@example.com", "").
		Return([]model.Account{pendingAccount(123456, now, now.Add(-30*time.Minute))}, nil)
	accounts.On("Update", mock.Anything, mock.Anything).
		Return(func(_ context.Context, a model.Account) (model.Account, error) { return a, nil })
	tokMan.On("GenerateSessionToken", mock.Anything).Return("session-token", nil)

	token, account, err := s.Validate(context.Background(), model.Identifier{Email: "asha@example.com"}, 123456)

	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
	assert.True(t, account.AccountVerified)
	assert.Nil(t, account.VerificationCode)
	assert.Nil(t, account.VerificationCodeExpiresAt)
}

func TestVerification_Validate_CollapsesDuplicates(t *testing.T) {
	accounts := &mocks.AccountStore{}
	tokMan := &mocks.TokenManager{}
	now := time.Now()
	s := newTestVerification(accounts, &mocks.Notifier{}, tokMan, &fakeClock{now: now})

	newest := pendingAccount(123456, now.Add(10*time.Minute), now)
	older := pendingAccount(111111, now.Add(5*time.Minute), now.Add(-time.Hour))
	oldest := pendingAccount(222222, now.Add(time.Minute), now.Add(-2*time.Hour))

	accounts.On("ListUnverified", mock.Anything, "asha@example.com", "+919876543210").
		Return([]model.Account{newest, older, oldest}, nil)
	accounts.On("DeleteByIDs", mock.Anything, []uuid.UUID{older.ID, oldest.ID}).
		Return(nil)
	accounts.On("Update", mock.Anything, mock.Anything).
		Return(func(_ context.Context, a model.Account) (model.Account, error) { return a, nil })
	tokMan.On("GenerateSessionToken", newest.ID).Return("session-token", nil)

	token, account, err := s.Validate(context.Background(), model.Identifier{
		Email: "asha@example.com",
		Phone: "+919876543210",
	}, 123456)

	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
	assert.Equal(t, newest.ID, account.ID)
	assert.True(t, account.AccountVerified)
	accounts.AssertExpectations(t)
}

// The submitted code is checked against the canonical attempt only; a code
// that matches a superseded duplicate is a mismatch.
func TestVerification_Validate_SupersededCodeRejected(t *testing.T) {
	accounts := &mocks.AccountStore{}
	now := time.Now()
	s := newTestVerification(accounts, &mocks.Notifier{}, &mocks.TokenManager{}, &fakeClock{now: now})

	newest := pendingAccount(123456, now.Add(10*time.Minute), now)
	older := pendingAccount(111111, now.Add(5*time.Minute), now.Add(-time.Hour))

	accounts.On("ListUnverified", mock.Anything, "asha@example.com", "").
		Return([]model.Account{newest, older}, nil)
	accounts.On("DeleteByIDs", mock.Anything, []uuid.UUID{older.ID}).
		Return(nil)

	_, _, err := s.Validate(context.Background(), model.Identifier{Email: "asha@example.com"}, 111111)

	require.ErrorIs(t, err, model.ErrCodeMismatch)
}

func TestVerification_GenerateAndDispatch_PhoneChannel(t *testing.T) {
	accounts := &mocks.AccountStore{}
	notifier := &mocks.Notifier{}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestVerification(accounts, notifier, &mocks.TokenManager{}, &fakeClock{now: now})

	accounts.On("Update", mock.Anything, mock.Anything).
		Return(func(_ context.Context, a model.Account) (model.Account, error) { return a, nil })
	notifier.On("Send", mock.Anything, model.ChannelSMS, "+919876543210", mock.Anything).
		Return(nil)

	account, err := s.GenerateAndDispatch(context.Background(), model.Account{
		ID:    uuid.New(),
		Email: "asha@example.com",
		Phone: "+919876543210",
	}, model.VerificationMethodPhone)

	require.NoError(t, err)
	require.NotNil(t, account.VerificationCode)
	require.NotNil(t, account.VerificationCodeExpiresAt)
	assert.Equal(t, now.Add(30*time.Minute), *account.VerificationCodeExpiresAt)
	notifier.AssertExpectations(t)
}
