package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/veriflow/identity/internal/model"
)

const facebookGraphURL = "https://graph.facebook.com/me"

// Facebook resolves Facebook access tokens to normalized external identities.
type Facebook struct {
	httpClient *http.Client
	graphURL   string
}

func NewFacebook() *Facebook {
	return &Facebook{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		graphURL:   facebookGraphURL,
	}
}

var _ model.ExternalIdentityResolver = (*Facebook)(nil)

func (f *Facebook) Provider() model.Provider {
	return model.ProviderFacebook
}

// Resolve fetches the Facebook graph profile for the access token.
func (f *Facebook) Resolve(ctx context.Context, accessToken string) (model.ExternalIdentity, error) {
	query := url.Values{
		"fields":       {"id,name,email"},
		"access_token": {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.graphURL+"?"+query.Encode(), nil)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("failed to build graph request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.ExternalIdentity{}, model.NewTransientError("facebook graph", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return model.ExternalIdentity{}, model.ErrTokenInvalid
	}
	if resp.StatusCode != http.StatusOK {
		return model.ExternalIdentity{}, fmt.Errorf("facebook graph returned status %d", resp.StatusCode)
	}

	var profile struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("failed to decode facebook profile: %w", err)
	}

	return model.ExternalIdentity{
		Name:       profile.Name,
		Email:      profile.Email,
		ProviderID: profile.ID,
		Provider:   model.ProviderFacebook,
	}, nil
}
