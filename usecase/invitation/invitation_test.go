package invitation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synergysphere/backend/domain"
)

type fakeInvitations struct {
	mu      sync.Mutex
	byToken map[string]*domain.Invitation
}

func newFakeInvitations() *fakeInvitations {
	return &fakeInvitations{byToken: make(map[string]*domain.Invitation)}
}

func (f *fakeInvitations) Create(_ context.Context, inv *domain.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, existing := range f.byToken {
		if existing.ProjectID != inv.ProjectID || existing.Email != inv.Email || existing.Status != domain.InvitationPending {
			continue
		}
		// Stale pending rows are retired on insert, mirroring the
		// repository; only a live pending one blocks.
		if !existing.ExpiresAt.After(now) {
			existing.Status = domain.InvitationExpired
			continue
		}
		return domain.ErrDuplicateInvitation
	}
	copied := *inv
	f.byToken[inv.Token] = &copied
	return nil
}

func (f *fakeInvitations) GetPendingByToken(_ context.Context, token string, now time.Time) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.byToken[token]; ok && inv.Consumable(now) {
		copied := *inv
		return &copied, nil
	}
	return nil, domain.ErrInvalidToken
}

func (f *fakeInvitations) HasPending(_ context.Context, projectID, email string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byToken {
		if inv.ProjectID == projectID && inv.Email == email && inv.Consumable(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitations) Consume(_ context.Context, token, status string, now time.Time) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byToken[token]
	if !ok || !inv.Consumable(now) {
		return nil, domain.ErrInvalidToken
	}
	inv.Status = status
	inv.RespondedAt = &now
	copied := *inv
	return &copied, nil
}

func (f *fakeInvitations) ListByProject(_ context.Context, projectID string) ([]domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invitation
	for _, inv := range f.byToken {
		if inv.ProjectID == projectID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitations) ListPendingByEmail(_ context.Context, email string, now time.Time) ([]domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invitation
	for _, inv := range f.byToken {
		if inv.Email == email && inv.Consumable(now) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitations) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, inv := range f.byToken {
		if inv.ExpiresAt.Before(now) {
			delete(f.byToken, token)
			n++
		}
	}
	return n, nil
}

type fakeProjects struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func newFakeProjects(projects ...*domain.Project) *fakeProjects {
	f := &fakeProjects{projects: make(map[string]*domain.Project)}
	for _, p := range projects {
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok {
		copied := *p
		copied.Members = append([]domain.Member(nil), p.Members...)
		return &copied, nil
	}
	return nil, domain.ErrProjectNotFound
}

func (f *fakeProjects) ListForUser(_ context.Context, _ string) ([]domain.Project, error) {
	return nil, nil
}

func (f *fakeProjects) Create(_ context.Context, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjects) Update(_ context.Context, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.projects, id)
	return nil
}

func (f *fakeProjects) AddMember(_ context.Context, projectID string, member domain.Member) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return false, domain.ErrProjectNotFound
	}
	for _, m := range p.Members {
		if m.UserID == member.UserID {
			return false, nil
		}
	}
	p.Members = append(p.Members, member)
	return true, nil
}

func (f *fakeProjects) RemoveMember(_ context.Context, projectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return domain.ErrProjectNotFound
	}
	for i, m := range p.Members {
		if m.UserID == userID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeUsers struct {
	byEmail map[string]*domain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error { return nil }
func (f *fakeUsers) ConfirmEmail(_ context.Context, _ string, _ time.Time) (*domain.User, error) {
	return nil, domain.ErrInvalidToken
}
func (f *fakeUsers) SetResetToken(_ context.Context, _, _ string, _ time.Time) error { return nil }
func (f *fakeUsers) ResetPassword(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func newTestSetup() (*UseCase, *fakeInvitations, *fakeProjects, *fakeUsers) {
	invitations := newFakeInvitations()
	projects := newFakeProjects(&domain.Project{
		ID:      "p1",
		Name:    "Launch",
		OwnerID: "owner",
		Members: []domain.Member{{UserID: "member", Role: domain.RoleMember}},
	})
	users := &fakeUsers{byEmail: map[string]*domain.User{
		"owner@example.com":  {ID: "owner", Name: "Owner", Email: "owner@example.com"},
		"member@example.com": {ID: "member", Name: "Member", Email: "member@example.com"},
		"carol@example.com":  {ID: "carol", Name: "Carol", Email: "carol@example.com"},
	}}
	uc := New(invitations, projects, users, nil, nil, nil)
	return uc, invitations, projects, users
}

var owner = domain.Identity{ID: "owner", Email: "owner@example.com", Name: "Owner"}

func TestSendInvitation(t *testing.T) {
	uc, _, _, _ := newTestSetup()
	ctx := context.Background()

	inv, err := uc.Send(ctx, owner, "p1", "Carol@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", inv.Email)
	assert.Equal(t, domain.RoleMember, inv.Role)
	assert.Equal(t, domain.InvitationPending, inv.Status)
	assert.NotEmpty(t, inv.Token)
	assert.WithinDuration(t, time.Now().Add(domain.InvitationTTL), inv.ExpiresAt, time.Minute)
}

func TestSendRequiresManageRights(t *testing.T) {
	uc, _, _, _ := newTestSetup()
	ctx := context.Background()

	_, err := uc.Send(ctx, domain.Identity{ID: "member", Email: "member@example.com"}, "p1", "carol@example.com", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = uc.Send(ctx, domain.Identity{ID: "outsider", Email: "out@example.com"}, "p1", "carol@example.com", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestSendRejectsExistingMember(t *testing.T) {
	uc, _, _, _ := newTestSetup()

	_, err := uc.Send(context.Background(), owner, "p1", "member@example.com", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestSendRejectsDuplicatePending(t *testing.T) {
	uc, _, _, _ := newTestSetup()
	ctx := context.Background()

	_, err := uc.Send(ctx, owner, "p1", "carol@example.com", "")
	require.NoError(t, err)

	_, err = uc.Send(ctx, owner, "p1", "carol@example.com", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestAcceptGrantsMembershipOnce(t *testing.T) {
	uc, _, projects, _ := newTestSetup()
	ctx := context.Background()

	inv, err := uc.Send(ctx, owner, "p1", "carol@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	carol := domain.Identity{ID: "carol", Email: "carol@example.com", Name: "Carol"}
	accepted, err := uc.Accept(ctx, carol, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	project, err := projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, project.HasMember("carol"))
	assert.True(t, project.CanManage("carol"))
	assert.Equal(t, 3, project.MemberCount())

	// The token is consumed; replays fail whichever verb is used.
	_, err = uc.Accept(ctx, carol, inv.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))
	_, err = uc.Decline(ctx, inv.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))

	project, err = projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, project.MemberCount())
}

func TestAcceptRequiresRegistration(t *testing.T) {
	uc, _, _, _ := newTestSetup()
	ctx := context.Background()

	inv, err := uc.Send(ctx, owner, "p1", "dave@example.com", "")
	require.NoError(t, err)

	_, err = uc.Accept(ctx, domain.Identity{ID: "x", Email: "dave@example.com"}, inv.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.ErrorContains(t, err, "register")

	// The invited address rides along so the client can pre-fill the
	// registration form.
	var dErr *domain.Error
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, map[string]string{"email": "dave@example.com"}, dErr.Details)
}

func TestAcceptRejectsWrongActor(t *testing.T) {
	uc, _, projects, _ := newTestSetup()
	ctx := context.Background()

	inv, err := uc.Send(ctx, owner, "p1", "carol@example.com", "")
	require.NoError(t, err)

	mallory := domain.Identity{ID: "member", Email: "member@example.com"}
	_, err = uc.Accept(ctx, mallory, inv.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	project, err := projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, project.HasMember("carol"))
}

func TestAcceptRejectsExpiredToken(t *testing.T) {
	uc, invitations, _, _ := newTestSetup()
	ctx := context.Background()

	inv, err := uc.Send(ctx, owner, "p1", "carol@example.com", "")
	require.NoError(t, err)

	invitations.mu.Lock()
	invitations.byToken[inv.Token].ExpiresAt = time.Now().Add(-time.Minute)
	invitations.mu.Unlock()

	carol := domain.Identity{ID: "carol", Email: "carol@example.com"}
	_, err = uc.Accept(ctx, carol, inv.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))

	// A fresh invitation for the same pair is allowed once the old one
	// no longer counts as pending; the stale row is retired on insert.
	_, err = uc.Send(ctx, owner, "p1", "carol@example.com", "")
	require.NoError(t, err)

	invitations.mu.Lock()
	assert.Equal(t, domain.InvitationExpired, invitations.byToken[inv.Token].Status)
	invitations.mu.Unlock()
}

func TestDecline(t *testing.T) {
	uc, _, projects, _ := newTestSetup()
	ctx := context.Background()

	inv, err := uc.Send(ctx, owner, "p1", "carol@example.com", "")
	require.NoError(t, err)

	declined, err := uc.Decline(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationDeclined, declined.Status)

	project, err := projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, project.HasMember("carol"))
}

func TestListMine(t *testing.T) {
	uc, _, _, _ := newTestSetup()
	ctx := context.Background()

	_, err := uc.Send(ctx, owner, "p1", "carol@example.com", "")
	require.NoError(t, err)

	mine, err := uc.ListMine(ctx, domain.Identity{ID: "carol", Email: "carol@example.com"})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := uc.ListMine(ctx, domain.Identity{ID: "member", Email: "member@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
