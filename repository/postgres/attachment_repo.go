package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

const attachmentColumns = `
	id, filename, original_name, mime_type, size, path, project_id,
	uploaded_by, task_id, description, is_public, download_count,
	created_at, updated_at`

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository returns a Postgres-backed implementation of AttachmentRepository.
func NewAttachmentRepository(pool *pgxpool.Pool) repository.AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	const query = `SELECT` + attachmentColumns + ` FROM attachments WHERE id = $1`
	return scanAttachment(r.pool.QueryRow(ctx, query, id))
}

func (r *attachmentRepository) ListByProject(ctx context.Context, projectID string, page, limit int) ([]domain.Attachment, int, error) {
	limit = clampLimit(limit)
	offset := pageOffset(page, limit)

	const query = `SELECT` + attachmentColumns + `
	FROM attachments
	WHERE project_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, 0, err
		}
		attachments = append(attachments, *att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	const countQuery = `SELECT COUNT(*) FROM attachments WHERE project_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, projectID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return attachments, total, nil
}

func (r *attachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	if att == nil {
		return domain.ErrInvalidPayload
	}
	if att.ID == "" {
		att.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO attachments (id, filename, original_name, mime_type, size, path,
		project_id, uploaded_by, task_id, description, is_public)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING download_count, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		att.ID,
		att.Filename,
		att.OriginalName,
		att.MimeType,
		att.Size,
		att.Path,
		att.ProjectID,
		att.UploadedBy,
		nullString(att.TaskID),
		att.Description,
		att.IsPublic,
	).Scan(&att.DownloadCount, &att.CreatedAt, &att.UpdatedAt)
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attachments WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func (r *attachmentRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE attachments SET download_count = download_count + 1 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var (
		att    domain.Attachment
		taskID *string
	)
	if err := row.Scan(
		&att.ID,
		&att.Filename,
		&att.OriginalName,
		&att.MimeType,
		&att.Size,
		&att.Path,
		&att.ProjectID,
		&att.UploadedBy,
		&taskID,
		&att.Description,
		&att.IsPublic,
		&att.DownloadCount,
		&att.CreatedAt,
		&att.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}
	att.TaskID = derefString(taskID)
	return &att, nil
}
