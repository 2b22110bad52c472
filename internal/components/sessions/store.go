// Package sessions persists authenticated sessions in Postgres or Redis.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/database"
)

var ErrSessionNotFound = errors.New("session not found")

// Store saves sessions handed over by the login screen and resolves them for
// the rest of the app. Get reports expired sessions as ErrSessionNotFound.
type Store interface {
	Save(context.Context, login.Session) error
	Get(context.Context, uuid.UUID) (*login.Session, error)
	Delete(context.Context, uuid.UUID) error
}

// New builds the store selected by SESSION_BACKEND.
func New(lc fx.Lifecycle, cfg *config.Config, db database.Querier, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "sessions").Str("backend", cfg.SessionBackend).Logger()

	if cfg.SessionBackend != config.SessionBackendRedis {
		logger.Info().Msg("Session store ready")
		return NewPostgresStore(db), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, oops.Code("SESSION_REDIS_URL_INVALID").Wrap(err)
	}
	client := redis.NewClient(opts)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return oops.Code("SESSION_REDIS_UNREACHABLE").With("addr", opts.Addr).Wrap(err)
			}
			logger.Info().Str("addr", opts.Addr).Msg("Session store ready")
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisStore(client), nil
}

// AsSessionStore narrows Store to what the login screen needs.
func AsSessionStore(s Store) login.SessionStore {
	return s
}

// ensureLive refuses sessions that are already past their expiry.
func ensureLive(session login.Session, now time.Time) error {
	if session.Expired(now) {
		return oops.Code("SESSION_ALREADY_EXPIRED").
			With("session_id", session.ID.String()).
			Errorf("session expired at %s", session.ExpiresAt)
	}
	return nil
}
