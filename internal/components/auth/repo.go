package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/andrasnagy-data/delivery/internal/shared/database"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

type AccountRepo struct {
	db database.Querier
}

func NewAccountRepo(db database.Querier) *AccountRepo {
	return &AccountRepo{db: db}
}

// GetByEmail looks an account up by email, case-insensitively.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	stmt := `
	SELECT id, email, password_hash, created_at
	FROM accounts
	WHERE LOWER(email) = LOWER($1)`

	var account Account
	err := r.db.QueryRow(ctx, stmt, email).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(ErrAccountNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return &account, nil
}

func (r *AccountRepo) Create(ctx context.Context, email, passwordHash string) (*Account, error) {
	stmt := `
	INSERT INTO accounts (id, email, password_hash)
	VALUES ($1, $2, $3)
	RETURNING created_at`

	account := Account{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
	}
	err := r.db.QueryRow(ctx, stmt, account.ID, account.Email, account.PasswordHash).Scan(&account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").With("email", account.Email).Wrap(ErrEmailTaken)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}
	return &account, nil
}
