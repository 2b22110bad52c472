package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/cookie"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const sessionKey contextKey = "session"

const loginPath = "/login"

// SessionLookup resolves a session id to a live session.
type SessionLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*login.Session, error)
}

// GetSession extracts the signed-in session from the request context.
func GetSession(ctx context.Context) (*login.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*login.Session)
	return session, ok
}

// WithSession stores a session in ctx the way NewAuthMiddleware does.
func WithSession(ctx context.Context, session *login.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// NewAuthMiddleware protects routes behind a signed-in session. The session id
// is read from the encrypted session cookie and resolved through sessions;
// anything missing, tampered or expired is sent to the login screen.
func NewAuthMiddleware(secretKey []byte, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookie.Get(r, cookie.SessionName, secretKey)
			if err != nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			session, err := sessions.Get(r.Context(), id)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Str("session_id", id.String()).Msg("Session rejected")
				cookie.Clear(w, cookie.SessionName)
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
