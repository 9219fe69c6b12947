package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Profile is what the provider reports about the authenticated user after
// the handshake completes.
type Profile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Client drives the provider side of the login flow: consent redirect,
// code exchange and profile fetch. The protocol itself lives in
// golang.org/x/oauth2.
type Client struct {
	cfg         *oauth2.Config
	userInfoURL string
}

type Option func(*Client)

// WithEndpoint points the client at non-Google endpoints. Tests use this
// with a local httptest server.
func WithEndpoint(endpoint oauth2.Endpoint, userInfoURL string) Option {
	return func(c *Client) {
		c.cfg.Endpoint = endpoint
		c.userInfoURL = userInfoURL
	}
}

func NewGoogleClient(clientID, clientSecret, callbackURL string, opts ...Option) *Client {
	c := &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

// FetchProfile exchanges the authorization code and then asks userinfo who
// the user is. Any failure here means the handshake did not complete.
func (c *Client) FetchProfile(ctx context.Context, code string) (Profile, error) {
	token, err := c.cfg.Exchange(ctx, code)

	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)

	if err != nil {
		return Profile{}, err
	}

	resp, err := c.cfg.Client(ctx, token).Do(req)

	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var p Profile

	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}

	if p.Email == "" {
		return Profile{}, errors.New("provider profile has no email")
	}

	return p, nil
}
