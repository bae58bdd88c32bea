package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/pkg/token"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*domain.User)}
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastLogin = &at
		return nil
	}
	return domain.ErrUserNotFound
}

func (f *fakeUsers) ConfirmEmail(_ context.Context, tok string, now time.Time) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ConfirmToken == tok && u.ConfirmExpires != nil && u.ConfirmExpires.After(now) {
			u.IsEmailConfirmed = true
			u.ConfirmToken = ""
			u.ConfirmExpires = nil
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (f *fakeUsers) SetResetToken(_ context.Context, id, tok string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.ResetToken = tok
		u.ResetExpires = &expires
		return nil
	}
	return domain.ErrUserNotFound
}

func (f *fakeUsers) ResetPassword(_ context.Context, tok, hash string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetToken == tok && u.ResetExpires != nil && u.ResetExpires.After(now) {
			u.PasswordHash = hash
			u.ResetToken = ""
			u.ResetExpires = nil
			return nil
		}
	}
	return domain.ErrInvalidToken
}

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Confirmation(to, _, token string) {
	f.record("confirmation", to, token)
}

func (f *fakeMailer) PasswordReset(to, _, token string) {
	f.record("password-reset", to, token)
}

func (f *fakeMailer) Invitation(to, _, _, _, token string) {
	f.record("invitation", to, token)
}

func (f *fakeMailer) record(kind, to, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{kind: kind, to: to, token: token})
}

func (f *fakeMailer) last() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func newTestUseCase() (*UseCase, *fakeUsers, *fakeMailer, *token.Service) {
	users := newFakeUsers()
	mailer := &fakeMailer{}
	tokens := token.New("test-secret", "synergysphere", time.Hour)
	return New(users, tokens, mailer, nil), users, mailer, tokens
}

func TestRegisterThenLogin(t *testing.T) {
	uc, _, mailer, tokens := newTestUseCase()
	ctx := context.Background()

	session, err := uc.Register(ctx, "Alice", "Alice@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.False(t, session.User.IsEmailConfirmed)

	claims, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.SubjectID)

	mail, ok := mailer.last()
	require.True(t, ok)
	assert.Equal(t, "confirmation", mail.kind)
	assert.Equal(t, "alice@example.com", mail.to)

	login, err := uc.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLogin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	ctx := context.Background()

	_, err := uc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = uc.Register(ctx, "Impostor", "ALICE@example.com", "hunter2hunter2")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestRegisterValidation(t *testing.T) {
	uc, _, _, _ := newTestUseCase()
	ctx := context.Background()

	cases := []struct {
		name, email, password string
	}{
		{"", "alice@example.com", "hunter2hunter2"},
		{"Alice", "not-an-email", "hunter2hunter2"},
		{"Alice", "alice@example.com", "short"},
	}
	for _, tc := range cases {
		_, err := uc.Register(ctx, tc.name, tc.email, tc.password)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	uc, users, _, _ := newTestUseCase()
	ctx := context.Background()

	session, err := uc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = uc.Login(ctx, "alice@example.com", "wrong-password")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	_, err = uc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	users.mu.Lock()
	users.users[session.User.ID].IsActive = false
	users.mu.Unlock()

	_, err = uc.Login(ctx, "alice@example.com", "hunter2hunter2")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestConfirmEmailIsSingleUse(t *testing.T) {
	uc, _, mailer, _ := newTestUseCase()
	ctx := context.Background()

	_, err := uc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	mail, ok := mailer.last()
	require.True(t, ok)

	confirmed, err := uc.ConfirmEmail(ctx, mail.token)
	require.NoError(t, err)
	assert.True(t, confirmed.IsEmailConfirmed)

	_, err = uc.ConfirmEmail(ctx, mail.token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))
}

func TestPasswordResetFlow(t *testing.T) {
	uc, _, mailer, _ := newTestUseCase()
	ctx := context.Background()

	_, err := uc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// Unknown addresses look identical to the caller and send nothing.
	before := len(mailer.sent)
	require.NoError(t, uc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Len(t, mailer.sent, before)

	require.NoError(t, uc.RequestPasswordReset(ctx, "alice@example.com"))
	mail, ok := mailer.last()
	require.True(t, ok)
	require.Equal(t, "password-reset", mail.kind)

	require.NoError(t, uc.ResetPassword(ctx, mail.token, "n3w-password!"))

	_, err = uc.Login(ctx, "alice@example.com", "n3w-password!")
	require.NoError(t, err)

	_, err = uc.Login(ctx, "alice@example.com", "hunter2hunter2")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	// The reset token is consumed.
	err = uc.ResetPassword(ctx, mail.token, "another-password")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))
}
