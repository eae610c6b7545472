package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ProviderGoogle identifies Google in federated links.
const ProviderGoogle = "google"

var (
	ErrInvalidCode     = errors.New("invalid oauth authorization code")
	ErrUnverifiedEmail = errors.New("email not verified by provider")
	ErrNotConfigured   = errors.New("oauth provider is not configured")
)

// GoogleConfig holds the OAuth client credentials registered with Google.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

// Enabled reports whether client credentials are present.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// GoogleOAuthProvider runs the authorization code flow against Google
// and turns the userinfo response into a Profile.
type GoogleOAuthProvider struct {
	conf       *oauth2.Config
	httpClient *http.Client
	apiOptions []option.ClientOption
}

// NewGoogleOAuthProvider creates a provider from client credentials.
func NewGoogleOAuthProvider(cfg GoogleConfig) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the provider identifier stored in federated links.
func (p *GoogleOAuthProvider) Name() string {
	return ProviderGoogle
}

// AuthCodeURL builds the consent screen URL carrying state.
func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's validated Google profile.
func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	opts := append([]option.ClientOption{
		option.WithTokenSource(p.conf.TokenSource(ctx, token)),
	}, p.apiOptions...)

	service, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google oauth2 service: %w", err)
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google user info: %w", err)
	}

	// An absent verified_email counts as unverified.
	if userInfo.VerifiedEmail == nil || !*userInfo.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	profile := &Profile{
		Provider:   ProviderGoogle,
		Subject:    userInfo.Id,
		Email:      strings.TrimSpace(userInfo.Email),
		GivenName:  strings.TrimSpace(userInfo.GivenName),
		FamilyName: strings.TrimSpace(userInfo.FamilyName),
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}
