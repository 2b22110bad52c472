package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// dummyHash is compared against when the account does not exist, so unknown
// emails cost as much as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type (
	accountFinder interface {
		GetByEmail(context.Context, string) (*Account, error)
	}

	// Service authenticates against the local accounts table and issues
	// signed session tokens.
	Service struct {
		accounts accountFinder
		key      []byte
		issuer   string
		ttl      time.Duration
		now      func() time.Time
		logger   zerolog.Logger
	}
)

func NewService(cfg *config.Config, accounts *AccountRepo, logger zerolog.Logger) (*Service, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	return &Service{
		accounts: accounts,
		key:      key,
		issuer:   cfg.JWTIssuer,
		ttl:      cfg.SessionTTL,
		now:      time.Now,
		logger:   logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Login checks email and password and returns a new session.
func (s *Service) Login(ctx context.Context, creds login.Credentials) (login.Session, error) {
	account, err := s.accounts.GetByEmail(ctx, creds.Email)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return login.Session{}, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(creds.Password))
		return login.Session{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		return login.Session{}, ErrInvalidCredentials
	}

	return s.issue(account)
}

func (s *Service) issue(account *Account) (login.Session, error) {
	now := s.now().UTC()
	session := login.Session{
		ID:        uuid.New(),
		Email:     account.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := Claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Subject:   account.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return login.Session{}, err
	}
	session.Token = token

	s.logger.Debug().Str("account_id", account.ID.String()).Str("session_id", session.ID.String()).Msg("Session issued")
	return session, nil
}
