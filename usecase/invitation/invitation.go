package invitation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/pkg/token"
	"github.com/synergysphere/backend/repository"
	"github.com/synergysphere/backend/usecase"
)

type UseCase struct {
	invitations repository.InvitationRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	mailer      usecase.Mailer
	notifier    usecase.Notifier
	logger      *zap.Logger
}

func New(
	invitations repository.InvitationRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	mailer usecase.Mailer,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		invitations: invitations,
		projects:    projects,
		users:       users,
		mailer:      mailer,
		notifier:    notifier,
		logger:      logger,
	}
}

// Send creates a pending invitation for (project, email). Only owners and
// admins may invite; existing members and outstanding invitations are
// conflicts. The duplicate check is backed by a partial unique index, so
// two concurrent sends for the same pair cannot both succeed.
func (uc *UseCase) Send(ctx context.Context, actor domain.Identity, projectID, email, role string) (*domain.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "invitee email is required")
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !domain.ValidRole(role) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "role must be member or admin")
	}

	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrProjectNotFound
	}
	if !project.CanManage(actor.ID) {
		return nil, domain.ErrForbidden
	}

	invitee, err := uc.users.GetByEmail(ctx, email)
	if err == nil && project.HasMember(invitee.ID) {
		return nil, domain.ErrAlreadyAMember
	}
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	now := time.Now()
	if pending, err := uc.invitations.HasPending(ctx, projectID, email, now); err != nil {
		return nil, err
	} else if pending {
		return nil, domain.ErrDuplicateInvitation
	}

	inv := &domain.Invitation{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		InvitedBy: actor.ID,
		Email:     email,
		Role:      role,
		Token:     token.Opaque(),
		Status:    domain.InvitationPending,
		ExpiresAt: now.Add(domain.InvitationTTL),
		CreatedAt: now,
	}
	if err := uc.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}
	inv.ProjectName = project.Name
	inv.InviterName = actor.Name

	if uc.mailer != nil {
		inviteeName := email
		if invitee != nil {
			inviteeName = invitee.Name
		}
		uc.mailer.Invitation(email, inviteeName, project.Name, actor.Name, inv.Token)
	}
	if uc.notifier != nil && invitee != nil {
		uc.notifier.NotifyUser(ctx, invitee.ID, domain.NewNotification(domain.NotifyInvitationReceived, inv))
	}
	return inv, nil
}

// Accept consumes the token and grants membership. The status transition
// is a conditional write, so a second accept or decline of the same token
// observes the consumed row and fails. Membership insertion is idempotent
// in case the user was added through another path in the meantime.
func (uc *UseCase) Accept(ctx context.Context, actor domain.Identity, invToken string) (*domain.Invitation, error) {
	now := time.Now()
	inv, err := uc.invitations.GetPendingByToken(ctx, invToken, now)
	if err != nil {
		return nil, err
	}

	invitee, err := uc.users.GetByEmail(ctx, inv.Email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			// Echo the invited address so the client can pre-fill the
			// registration form.
			return nil, domain.ErrRegistrationRequired.WithDetails(map[string]string{
				"email": inv.Email,
			})
		}
		return nil, err
	}
	if !strings.EqualFold(actor.Email, inv.Email) {
		return nil, domain.ErrForbidden
	}

	consumed, err := uc.invitations.Consume(ctx, invToken, domain.InvitationAccepted, now)
	if err != nil {
		return nil, err
	}

	added, err := uc.projects.AddMember(ctx, consumed.ProjectID, domain.Member{
		UserID:   invitee.ID,
		Role:     consumed.Role,
		JoinedAt: now,
	})
	if err != nil {
		uc.logger.Error("accepted invitation but failed to add member",
			zap.String("invitation_id", consumed.ID),
			zap.String("user_id", invitee.ID),
			zap.Error(err))
		return nil, err
	}

	if added && uc.notifier != nil {
		uc.notifier.NotifyProject(ctx, consumed.ProjectID, invitee.ID,
			domain.NewNotification(domain.NotifyMemberJoined, map[string]string{
				"project_id": consumed.ProjectID,
				"user_id":    invitee.ID,
				"name":       invitee.Name,
				"role":       consumed.Role,
			}))
	}
	return consumed, nil
}

// Decline consumes the token without touching membership.
func (uc *UseCase) Decline(ctx context.Context, invToken string) (*domain.Invitation, error) {
	return uc.invitations.Consume(ctx, invToken, domain.InvitationDeclined, time.Now())
}

// ListForProject returns every invitation of a project for its managers.
func (uc *UseCase) ListForProject(ctx context.Context, actor domain.Identity, projectID string) ([]domain.Invitation, error) {
	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrProjectNotFound
	}
	if !project.CanManage(actor.ID) {
		return nil, domain.ErrForbidden
	}
	return uc.invitations.ListByProject(ctx, projectID)
}

// ListMine returns the caller's pending, unexpired invitations.
func (uc *UseCase) ListMine(ctx context.Context, actor domain.Identity) ([]domain.Invitation, error) {
	return uc.invitations.ListPendingByEmail(ctx, actor.Email, time.Now())
}
