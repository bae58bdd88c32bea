package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

const invitationColumns = `
	i.id, i.project_id, p.name, i.invited_by, u.name, i.email, i.role,
	i.token, i.status, i.expires_at, i.responded_at, i.created_at`

const invitationJoins = `
	FROM invitations i
	JOIN projects p ON p.id = i.project_id
	JOIN users u ON u.id = i.invited_by`

type invitationRepository struct {
	pool *pgxpool.Pool
}

// NewInvitationRepository returns a Postgres-backed implementation of InvitationRepository.
func NewInvitationRepository(pool *pgxpool.Pool) repository.InvitationRepository {
	return &invitationRepository{pool: pool}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	if inv == nil {
		return domain.ErrInvalidPayload
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// A pending row past its deadline still occupies the partial
		// unique index until the reaper runs. Retire it here so a
		// re-invitation of the same (project, email) pair goes through.
		const retire = `
		UPDATE invitations
		SET status = 'expired'
		WHERE project_id = $1 AND LOWER(email) = $2
		  AND status = 'pending' AND expires_at <= $3
		`
		if _, err := tx.Exec(ctx, retire, inv.ProjectID, inv.Email, time.Now()); err != nil {
			return err
		}

		const insert = `
		INSERT INTO invitations (id, project_id, invited_by, email, role, token, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING status, created_at
		`
		return tx.QueryRow(ctx, insert,
			inv.ID,
			inv.ProjectID,
			inv.InvitedBy,
			inv.Email,
			inv.Role,
			inv.Token,
			inv.ExpiresAt,
		).Scan(&inv.Status, &inv.CreatedAt)
	})
	if err != nil {
		// The partial unique index on (project_id, email) WHERE pending
		// catches the duplicate the pre-check raced with.
		if isUniqueViolation(err) {
			return domain.ErrDuplicateInvitation
		}
		return err
	}
	return nil
}

func (r *invitationRepository) GetPendingByToken(ctx context.Context, token string, now time.Time) (*domain.Invitation, error) {
	const query = `SELECT` + invitationColumns + invitationJoins + `
	WHERE i.token = $1 AND i.status = 'pending' AND i.expires_at > $2`

	inv, err := scanInvitation(r.pool.QueryRow(ctx, query, token, now))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) HasPending(ctx context.Context, projectID, email string, now time.Time) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM invitations
		WHERE project_id = $1 AND LOWER(email) = LOWER($2)
		  AND status = 'pending' AND expires_at > $3
	)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, projectID, email, now).Scan(&exists)
	return exists, err
}

func (r *invitationRepository) Consume(ctx context.Context, token, status string, now time.Time) (*domain.Invitation, error) {
	// Compare-and-set on the status column: of two concurrent consumers,
	// exactly one matches the pending row; the other updates nothing.
	const query = `
	UPDATE invitations i
	SET status = $2, responded_at = $3
	FROM projects p, users u
	WHERE i.token = $1 AND i.status = 'pending' AND i.expires_at > $3
	  AND p.id = i.project_id AND u.id = i.invited_by
	RETURNING` + invitationColumns

	inv, err := scanInvitation(r.pool.QueryRow(ctx, query, token, status, now))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	const query = `SELECT` + invitationColumns + invitationJoins + `
	WHERE i.project_id = $1
	ORDER BY i.created_at DESC`
	return r.list(ctx, query, projectID)
}

func (r *invitationRepository) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.Invitation, error) {
	const query = `SELECT` + invitationColumns + invitationJoins + `
	WHERE LOWER(i.email) = LOWER($1) AND i.status = 'pending' AND i.expires_at > $2
	ORDER BY i.created_at DESC`
	return r.list(ctx, query, email, now)
}

func (r *invitationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	// Expired rows disappear regardless of status; read paths filter on
	// expires_at anyway so the sweep is not load-bearing for correctness.
	const query = `DELETE FROM invitations WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *invitationRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Invitation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var (
		inv         domain.Invitation
		respondedAt *time.Time
	)
	if err := row.Scan(
		&inv.ID,
		&inv.ProjectID,
		&inv.ProjectName,
		&inv.InvitedBy,
		&inv.InviterName,
		&inv.Email,
		&inv.Role,
		&inv.Token,
		&inv.Status,
		&inv.ExpiresAt,
		&respondedAt,
		&inv.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	inv.RespondedAt = respondedAt
	return &inv, nil
}
