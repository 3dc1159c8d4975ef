package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/model"
)

// Social authenticates accounts through federated identity providers. Each
// provider variant resolves an access token to a normalized external
// identity; linkOrCreate then converges on a single verified account shared
// with the local registration path.
type Social struct {
	accounts   model.AccountStore
	credential *Credential
	resolvers  map[model.Provider]model.ExternalIdentityResolver
	clock      model.Clock
	logger     *logger.Logger
}

func NewSocial(
	accounts model.AccountStore,
	credential *Credential,
	clock model.Clock,
	logger *logger.Logger,
	resolvers ...model.ExternalIdentityResolver,
) *Social {
	byProvider := make(map[model.Provider]model.ExternalIdentityResolver, len(resolvers))
	for _, r := range resolvers {
		byProvider[r.Provider()] = r
	}
	return &Social{
		accounts:   accounts,
		credential: credential,
		resolvers:  byProvider,
		clock:      clock,
		logger:     logger,
	}
}

// Authenticate resolves the provider access token to an external identity,
// links or creates the account and issues a session token.
func (s *Social) Authenticate(ctx context.Context, provider model.Provider, accessToken string) (string, model.Account, error) {
	resolver, ok := s.resolvers[provider]
	if !ok {
		return "", model.Account{}, model.NewValidationError("provider", "unsupported identity provider")
	}

	identity, err := resolver.Resolve(ctx, accessToken)
	if err != nil {
		s.logger.Error("failed to resolve external identity",
			"provider", provider,
			"error", err.Error())
		return "", model.Account{}, fmt.Errorf("failed to resolve external identity: %w", err)
	}

	account, err := s.LinkOrCreate(ctx, identity)
	if err != nil {
		return "", model.Account{}, err
	}

	token, err := s.credential.IssueSession(ctx, account.ID)
	if err != nil {
		return "", model.Account{}, err
	}

	return token, account, nil
}

// LinkOrCreate attaches the provider ID to an existing verified account with
// the same email, or creates a new verified account for the identity.
// Federated accounts are born verified and carry no password hash.
func (s *Social) LinkOrCreate(ctx context.Context, identity model.ExternalIdentity) (model.Account, error) {
	if identity.Email == "" {
		return model.Account{}, model.NewValidationError("email", "identity provider returned no email")
	}

	account, err := s.accounts.GetVerifiedByEmail(ctx, identity.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	if errors.Is(err, model.ErrNotFound) {
		now := s.clock.Now()
		account = model.Account{
			ID:              uuid.New(),
			Name:            identity.Name,
			Email:           identity.Email,
			AccountVerified: true,
			Provider:        identity.Provider,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		setProviderID(&account, identity)

		account, err = s.accounts.Create(ctx, account)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to create federated account: %w", err)
		}

		s.logger.Info("federated account created",
			"account_id", account.ID,
			"provider", identity.Provider)
		return account, nil
	}

	setProviderID(&account, identity)
	account.Provider = identity.Provider

	account, err = s.accounts.Update(ctx, account)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to link provider id: %w", err)
	}

	s.logger.Info("provider linked to existing account",
		"account_id", account.ID,
		"provider", identity.Provider)
	return account, nil
}

func setProviderID(account *model.Account, identity model.ExternalIdentity) {
	id := identity.ProviderID
	switch identity.Provider {
	case model.ProviderGoogle:
		account.GoogleID = &id
	case model.ProviderFacebook:
		account.FacebookID = &id
	}
}
