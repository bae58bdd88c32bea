package repository

import (
	"context"

	"github.com/synergysphere/backend/domain"
)

type AttachmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByProject(ctx context.Context, projectID string, page, limit int) ([]domain.Attachment, int, error)
	Create(ctx context.Context, att *domain.Attachment) error
	Delete(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
}
