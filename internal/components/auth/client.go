package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
)

// Client authenticates against a remote login API speaking the same contract
// as Router.
type Client struct {
	http    *http.Client
	baseURL string
	now     func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.AuthTimeout},
		baseURL: strings.TrimSuffix(cfg.AuthURL, "/"),
		now:     time.Now,
	}
}

// NewAuthClient picks the authentication backend configured by AUTH_MODE.
func NewAuthClient(cfg *config.Config, service *Service, logger zerolog.Logger) login.AuthClient {
	if cfg.AuthMode == config.AuthModeRemote {
		logger.Info().Str("auth_url", cfg.AuthURL).Msg("Using remote authentication")
		return NewClient(cfg)
	}
	logger.Info().Msg("Using local authentication")
	return service
}

func (c *Client) Login(ctx context.Context, creds login.Credentials) (login.Session, error) {
	body, err := json.Marshal(LoginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return login.Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return login.Session{}, oops.Code("AUTH_REQUEST_BUILD_FAILED").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return login.Session{}, oops.Code("AUTH_REQUEST_FAILED").
			With("operation", "post login").
			Wrap(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return login.Session{}, ErrInvalidCredentials
	case res.StatusCode != http.StatusOK:
		return login.Session{}, oops.Code("AUTH_UNEXPECTED_STATUS").
			With("status", res.StatusCode).
			Errorf("login API answered %s", res.Status)
	}

	var out LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return login.Session{}, oops.Code("AUTH_RESPONSE_DECODE_FAILED").Wrap(err)
	}
	if out.Token == "" {
		return login.Session{}, oops.Code("AUTH_RESPONSE_INVALID").Errorf("login API returned an empty token")
	}

	email := out.Email
	if email == "" {
		email = creds.Email
	}
	return login.Session{
		ID:        uuid.New(),
		Token:     out.Token,
		Email:     email,
		IssuedAt:  c.now().UTC(),
		ExpiresAt: out.ExpiresAt,
	}, nil
}
