package model

import "context"

// ExternalIdentity is a normalized profile resolved from a federated
// identity provider.
type ExternalIdentity struct {
	Name       string
	Email      string
	ProviderID string
	Provider   Provider
}

// ExternalIdentityResolver exchanges a provider access token for a
// normalized external identity. Variants exist per provider.
type ExternalIdentityResolver interface {
	Provider() Provider
	Resolve(ctx context.Context, accessToken string) (ExternalIdentity, error)
}
