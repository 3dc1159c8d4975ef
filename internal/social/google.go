// Package social contains the per-provider external identity resolvers.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veriflow/identity/internal/model"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Google resolves Google access tokens to normalized external identities.
type Google struct {
	httpClient  *http.Client
	userInfoURL string
}

func NewGoogle() *Google {
	return &Google{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userInfoURL: googleUserInfoURL,
	}
}

var _ model.ExternalIdentityResolver = (*Google)(nil)

func (g *Google) Provider() model.Provider {
	return model.ProviderGoogle
}

// Resolve fetches the Google userinfo profile for the access token.
func (g *Google) Resolve(ctx context.Context, accessToken string) (model.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return model.ExternalIdentity{}, model.NewTransientError("google userinfo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return model.ExternalIdentity{}, model.ErrTokenInvalid
	}
	if resp.StatusCode != http.StatusOK {
		return model.ExternalIdentity{}, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var profile struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("failed to decode google profile: %w", err)
	}

	return model.ExternalIdentity{
		Name:       profile.Name,
		Email:      profile.Email,
		ProviderID: profile.ID,
		Provider:   model.ProviderGoogle,
	}, nil
}
