package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/database"
)

type PostgresStore struct {
	db  database.Querier
	now func() time.Time
}

func NewPostgresStore(db database.Querier) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Save(ctx context.Context, session login.Session) error {
	if err := ensureLive(session, s.now()); err != nil {
		return err
	}

	stmt := `
	INSERT INTO sessions (id, token, email, issued_at, expires_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(ctx, stmt,
		session.ID,
		session.Token,
		session.Email,
		session.IssuedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*login.Session, error) {
	stmt := `
	SELECT id, token, email, issued_at, expires_at
	FROM sessions
	WHERE id = $1`

	var session login.Session
	err := s.db.QueryRow(ctx, stmt, id).Scan(
		&session.ID,
		&session.Token,
		&session.Email,
		&session.IssuedAt,
		&session.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").With("session_id", id.String()).Wrap(ErrSessionNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by id").
			With("session_id", id.String()).
			Wrap(err)
	}
	if session.Expired(s.now()) {
		return nil, oops.Code("SESSION_EXPIRED").With("session_id", id.String()).Wrap(ErrSessionNotFound)
	}
	return &session, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("session_id", id.String()).
			Wrap(err)
	}
	return nil
}
