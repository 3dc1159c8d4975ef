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

type fakeResolver struct {
	provider model.Provider
	identity model.ExternalIdentity
	err      error
}

func (r *fakeResolver) Provider() model.Provider {
	return r.provider
}

func (r *fakeResolver) Resolve(ctx context.Context, accessToken string) (model.ExternalIdentity, error) {
	return r.identity, r.err
}

func newTestSocial(accounts model.AccountStore, tokMan model.TokenManager, clock model.Clock, resolvers ...model.ExternalIdentityResolver) *Social {
	log := logger.New(0)
	credential := NewCredential(accounts, tokMan, &mocks.Notifier{}, clock, CredentialConfig{
		ResetTokenTTL: 30 * time.Minute,
		FrontendURL:   "http://localhost:5173",
	}, metrics.New(), log)
	return NewSocial(accounts, credential, clock, log, resolvers...)
}

func TestSocial_Authenticate_UnsupportedProvider(t *testing.T) {
	s := newTestSocial(&mocks.AccountStore{}, &mocks.TokenManager{}, &fakeClock{now: time.Now()})

	_, _, err := s.Authenticate(context.Background(), model.ProviderGoogle, "token")

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "provider", validationErr.Field)
}

func TestSocial_Authenticate_InvalidAccessToken(t *testing.T) {
	resolver := &fakeResolver{provider: model.ProviderGoogle, err: model.ErrTokenInvalid}
	s := newTestSocial(&mocks.AccountStore{}, &mocks.TokenManager{}, &fakeClock{now: time.Now()}, resolver)

	_, _, err := s.Authenticate(context.Background(), model.ProviderGoogle, "bad-token")

	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestSocial_Authenticate_CreatesVerifiedAccount(t *testing.T) {
	accounts := &mocks.AccountStore{}
	tokMan := &mocks.TokenManager{}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	resolver := &fakeResolver{
		provider: model.ProviderGoogle,
		identity: model.ExternalIdentity{
			Name:       "Asha",
			Email:      "asha@example.com",
			ProviderID: "google-123",
			Provider:   model.ProviderGoogle,
		},
	}
	s := newTestSocial(accounts, tokMan, &fakeClock{now: now}, resolver)

	var created model.Account
	accounts.On("GetVerifiedByEmail", mock.Anything, "asha@example.com").
		Return(model.Account{}, model.ErrNotFound)
	accounts.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(model.Account) }).
		Return(func(_ context.Context, a model.Account) (model.Account, error) { return a, nil })
	tokMan.On("GenerateSessionToken", mock.Anything).Return("session-token", nil)

	token, account, err := s.Authenticate(context.Background(), model.ProviderGoogle, "token")

	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
	assert.True(t, account.AccountVerified)
	assert.Equal(t, model.ProviderGoogle, account.Provider)
	require.NotNil(t, created.GoogleID)
	assert.Equal(t, "google-123", *created.GoogleID)
	assert.Empty(t, created.PasswordHash)
}

func TestSocial_Authenticate_LinksExistingAccount(t *testing.T) {
	accounts := &mocks.AccountStore{}
	tokMan := &mocks.TokenManager{}
	resolver := &fakeResolver{
		provider: model.ProviderFacebook,
		identity: model.ExternalIdentity{
			Name:       "Asha",
			Email:      "asha@example.com",
			ProviderID: "fb-456",
			Provider:   model.ProviderFacebook,
		},
	}
	s := newTestSocial(accounts, tokMan, &fakeClock{now: time.Now()}, resolver)

	existingID := uuid.New()
	accounts.On("GetVerifiedByEmail", mock.Anything, "asha@example.com").Return(model.Account{
		ID:              existingID,
		Email:           "asha@example.com",
		AccountVerified: true,
		Provider:        model.ProviderLocal,
	}, nil)
	var updated model.Account
	accounts.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { updated = args.Get(1).(model.Account) }).
		Return(func(_ context.Context, a model.Account) (model.Account, error) { return a, nil })
	tokMan.On("GenerateSessionToken", existingID).Return("session-token", nil)

	_, account, err := s.Authenticate(context.Background(), model.ProviderFacebook, "token")

	require.NoError(t, err)
	assert.Equal(t, existingID, account.ID)
	require.NotNil(t, updated.FacebookID)
	assert.Equal(t, "fb-456", *updated.FacebookID)
	assert.Equal(t, model.ProviderFacebook, updated.Provider)
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSocial_LinkOrCreate_MissingEmail(t *testing.T) {
	s := newTestSocial(&mocks.AccountStore{}, &mocks.TokenManager{}, &fakeClock{now: time.Now()})

	_, err := s.LinkOrCreate(context.Background(), model.ExternalIdentity{
		Name:       "Asha",
		ProviderID: "google-123",
		Provider:   model.ProviderGoogle,
	})

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email", validationErr.Field)
}
