package attachment

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/internal/storage"
	appLogger "github.com/synergysphere/backend/pkg/logger"
	"github.com/synergysphere/backend/repository"
	"github.com/synergysphere/backend/usecase"
)

// UploadInput describes one incoming file plus its metadata.
type UploadInput struct {
	ProjectID    string
	TaskID       string
	Description  string
	IsPublic     bool
	OriginalName string
	MimeType     string
	Content      io.Reader
}

type UseCase struct {
	attachments repository.AttachmentRepository
	projects    repository.ProjectRepository
	files       *storage.FileStore
	notifier    usecase.Notifier
	logger      *zap.Logger
}

func New(
	attachments repository.AttachmentRepository,
	projects repository.ProjectRepository,
	files *storage.FileStore,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		attachments: attachments,
		projects:    projects,
		files:       files,
		notifier:    notifier,
		logger:      logger,
	}
}

// Upload stores the bytes and the record. When the record insert fails
// the staged bytes are removed again, so the store never accumulates
// orphans.
func (uc *UseCase) Upload(ctx context.Context, actor domain.Identity, in UploadInput) (*domain.Attachment, error) {
	if strings.TrimSpace(in.OriginalName) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "a file is required")
	}

	project, err := uc.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrForbidden
	}

	filename, path, size, err := uc.files.Save(in.Content, in.OriginalName)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "failed to store file", err)
	}

	now := time.Now()
	att := &domain.Attachment{
		ID:           uuid.NewString(),
		Filename:     filename,
		OriginalName: in.OriginalName,
		MimeType:     in.MimeType,
		Size:         size,
		Path:         path,
		ProjectID:    in.ProjectID,
		UploadedBy:   actor.ID,
		TaskID:       in.TaskID,
		Description:  strings.TrimSpace(in.Description),
		IsPublic:     in.IsPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.attachments.Create(ctx, att); err != nil {
		if rmErr := uc.files.Remove(path); rmErr != nil {
			appLogger.WithRequestID(ctx, uc.logger).Warn("failed to remove staged upload",
				zap.String("path", path), zap.Error(rmErr))
		}
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.NotifyProject(ctx, in.ProjectID, actor.ID,
			domain.NewNotification(domain.NotifyAttachmentUploaded, att))
	}
	return att, nil
}

// List paginates a project's attachments for its participants.
func (uc *UseCase) List(ctx context.Context, actor domain.Identity, projectID string, page, limit int) ([]domain.Attachment, int, error) {
	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if !project.HasMember(actor.ID) {
		return nil, 0, domain.ErrProjectNotFound
	}
	return uc.attachments.ListByProject(ctx, projectID, page, limit)
}

// Download opens the stored bytes. Non-public attachments require project
// participation; outsiders get not-found. The download counter is bumped
// best-effort.
func (uc *UseCase) Download(ctx context.Context, actor domain.Identity, id string) (*domain.Attachment, io.ReadCloser, error) {
	att, err := uc.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !att.IsPublic {
		project, err := uc.projects.GetByID(ctx, att.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		if !project.HasMember(actor.ID) {
			return nil, nil, domain.ErrAttachmentNotFound
		}
	}

	rc, err := uc.files.Open(att.Path)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInternal, "failed to open stored file", err)
	}

	if err := uc.attachments.IncrementDownloads(ctx, id); err != nil {
		appLogger.WithRequestID(ctx, uc.logger).Warn("failed to bump download counter",
			zap.String("attachment_id", id), zap.Error(err))
	}
	return att, rc, nil
}

// Delete removes record and bytes. Only the uploader and the project
// owner may delete.
func (uc *UseCase) Delete(ctx context.Context, actor domain.Identity, id string) error {
	att, err := uc.attachments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	project, err := uc.projects.GetByID(ctx, att.ProjectID)
	if err != nil {
		return err
	}
	if actor.ID != att.UploadedBy && actor.ID != project.OwnerID {
		return domain.ErrForbidden
	}

	if err := uc.attachments.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.files.Remove(att.Path); err != nil {
		appLogger.WithRequestID(ctx, uc.logger).Warn("failed to remove stored file",
			zap.String("path", att.Path), zap.Error(err))
	}
	return nil
}
