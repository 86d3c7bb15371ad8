package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/isdelr/parley-be/internal/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// exchangeTimeout bounds the code exchange and userinfo fetch so a slow
// provider cannot hang a login.
const exchangeTimeout = 15 * time.Second

// GoogleProvider implements the federated-login contract against Google's
// authorization-code flow.
type GoogleProvider struct {
	config      *oauth2.Config
	userinfoURL string
}

// NewGoogleProvider creates a provider client for the given OAuth app.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: userinfoURL,
	}
}

// Name identifies the provider in user records.
func (p *GoogleProvider) Name() string { return "google" }

// AuthCodeURL returns the consent-page URL carrying the anti-forgery state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

type googleUserinfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades the callback code for tokens and fetches the subject's
// profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (auth.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return auth.Identity{}, err
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return auth.Identity{}, fmt.Errorf("userinfo request returned status %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return auth.Identity{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.ID == "" {
		return auth.Identity{}, fmt.Errorf("userinfo response missing subject id")
	}

	return auth.Identity{
		Provider:    p.Name(),
		SubjectID:   info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
	}, nil
}
