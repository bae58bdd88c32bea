package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

const userColumns = `
	id, name, email, password_hash, is_email_confirmed,
	confirm_token, confirm_expires, reset_token, reset_expires,
	avatar, is_active, last_login, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation of UserRepository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	const query = `
	INSERT INTO users (id, name, email, password_hash, confirm_token, confirm_expires, avatar)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING is_email_confirmed, is_active, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		nullString(user.ConfirmToken),
		nullTime(user.ConfirmExpires),
		user.Avatar,
	).Scan(&user.IsEmailConfirmed, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ConfirmEmail(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	// Single conditional write: the token only matches while unexpired and
	// unconsumed, so a second confirmation attempt finds no row.
	const query = `
	UPDATE users
	SET is_email_confirmed = TRUE,
		confirm_token = NULL,
		confirm_expires = NULL,
		updated_at = NOW()
	WHERE confirm_token = $1 AND confirm_expires > $2
	RETURNING` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, token, now))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	const query = `
	UPDATE users
	SET reset_token = $2, reset_expires = $3, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, token, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	const query = `
	UPDATE users
	SET password_hash = $2,
		reset_token = NULL,
		reset_expires = NULL,
		updated_at = NOW()
	WHERE reset_token = $1 AND reset_expires > $3
	`
	tag, err := r.pool.Exec(ctx, query, token, passwordHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user           domain.User
		confirmToken   *string
		confirmExpires *time.Time
		resetToken     *string
		resetExpires   *time.Time
		lastLogin      *time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsEmailConfirmed,
		&confirmToken,
		&confirmExpires,
		&resetToken,
		&resetExpires,
		&user.Avatar,
		&user.IsActive,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.ConfirmToken = derefString(confirmToken)
	user.ConfirmExpires = confirmExpires
	user.ResetToken = derefString(resetToken)
	user.ResetExpires = resetExpires
	user.LastLogin = lastLogin
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
