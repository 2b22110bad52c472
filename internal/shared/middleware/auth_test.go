package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/cookie"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeLookup map[uuid.UUID]*login.Session

func (f fakeLookup) Get(_ context.Context, id uuid.UUID) (*login.Session, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, errors.New("session not found")
}

func sessionCookie(t *testing.T, id uuid.UUID) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, cookie.Set(rec, cookie.SessionName, id, testSecret))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestNewAuthMiddleware(t *testing.T) {
	session := &login.Session{ID: uuid.New(), Email: "user@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	lookup := fakeLookup{session.ID: session}

	var seen *login.Session
	protected := NewAuthMiddleware(testSecret, lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		cookie     *http.Cookie
		wantStatus int
	}{
		{name: "valid session", cookie: sessionCookie(t, session.ID), wantStatus: http.StatusOK},
		{name: "no cookie", wantStatus: http.StatusSeeOther},
		{name: "tampered cookie", cookie: &http.Cookie{Name: cookie.SessionName, Value: "garbage"}, wantStatus: http.StatusSeeOther},
		{name: "unknown session", cookie: sessionCookie(t, uuid.New()), wantStatus: http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, session, seen)
			} else {
				assert.Nil(t, seen)
				assert.Equal(t, "/login", rec.Header().Get("Location"))
			}
		})
	}
}

func TestGetSession_Missing(t *testing.T) {
	session, ok := GetSession(context.Background())
	assert.False(t, ok)
	assert.Nil(t, session)
}
