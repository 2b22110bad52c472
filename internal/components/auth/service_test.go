package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrasnagy-data/delivery/internal/components/login"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeAccounts map[string]*Account

func (f fakeAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	if email == "broken@example.com" {
		return nil, errors.New("connection reset")
	}
	account, ok := f[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func newTestService(t *testing.T) (*Service, *Account) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("111111"), bcrypt.MinCost)
	require.NoError(t, err)

	account := &Account{ID: uuid.New(), Email: "clean.code@devpass.com", PasswordHash: string(hash)}
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &Service{
		accounts: fakeAccounts{account.Email: account},
		key:      testKey,
		issuer:   "delivery",
		ttl:      time.Hour,
		now:      func() time.Time { return now },
		logger:   zerolog.Nop(),
	}, account
}

func TestService_Login(t *testing.T) {
	s, account := newTestService(t)

	session, err := s.Login(context.Background(), login.Credentials{Email: account.Email, Password: "111111"})
	require.NoError(t, err)

	assert.Equal(t, account.Email, session.Email)
	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, time.Hour, session.ExpiresAt.Sub(session.IssuedAt))

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(session.Token, claims, func(*jwt.Token) (any, error) { return testKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.Subject)
	assert.Equal(t, session.ID.String(), claims.ID)
	assert.Equal(t, account.Email, claims.Email)
	assert.Equal(t, "delivery", claims.Issuer)
}

func TestService_LoginRejects(t *testing.T) {
	s, account := newTestService(t)

	_, err := s.Login(context.Background(), login.Credentials{Email: account.Email, Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(context.Background(), login.Credentials{Email: "nobody@example.com", Password: "111111"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginPropagatesStoreErrors(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Login(context.Background(), login.Credentials{Email: "broken@example.com", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
