package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/pkg/token"
	"github.com/synergysphere/backend/repository"
	"github.com/synergysphere/backend/usecase"
)

const (
	bcryptCost = 12

	confirmTokenTTL = 24 * time.Hour
	resetTokenTTL   = time.Hour

	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session pairs an authenticated user with a freshly signed bearer token.
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type UseCase struct {
	users  repository.UserRepository
	tokens *token.Service
	mailer usecase.Mailer
	logger *zap.Logger
}

func New(users repository.UserRepository, tokens *token.Service, mailer usecase.Mailer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		logger: logger,
	}
}

// Register creates the account, queues the confirmation email and signs
// the user in immediately. Confirmation gates nothing at this point;
// routes that need it enforce it separately.
func (uc *UseCase) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	now := time.Now()
	confirmExpires := now.Add(confirmTokenTTL)
	user := &domain.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		PasswordHash:   string(hash),
		ConfirmToken:   token.Opaque(),
		ConfirmExpires: &confirmExpires,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if uc.mailer != nil {
		uc.mailer.Confirmation(user.Email, user.Name, user.ConfirmToken)
	}

	signed, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: signed}, nil
}

// Login verifies the credentials and returns a fresh session. Absent
// user, wrong password and deactivated account are indistinguishable to
// the caller.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := uc.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	if err := uc.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		uc.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	signed, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: signed}, nil
}

// ConfirmEmail consumes a confirmation token. The token is single-use;
// replays fail the same way expired tokens do.
func (uc *UseCase) ConfirmEmail(ctx context.Context, confirmToken string) (*domain.User, error) {
	if confirmToken == "" {
		return nil, domain.ErrInvalidToken
	}
	return uc.users.ConfirmEmail(ctx, confirmToken, time.Now())
}

// RequestPasswordReset stores a reset token and queues the email. The
// outcome is identical whether or not the address exists, so the
// endpoint cannot be used to enumerate accounts.
func (uc *UseCase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := uc.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.logger.Error("password reset lookup failed", zap.Error(err))
		}
		return nil
	}

	resetToken := token.Opaque()
	if err := uc.users.SetResetToken(ctx, user.ID, resetToken, time.Now().Add(resetTokenTTL)); err != nil {
		uc.logger.Error("failed to store reset token", zap.String("user_id", user.ID), zap.Error(err))
		return nil
	}

	if uc.mailer != nil {
		uc.mailer.PasswordReset(user.Email, user.Name, resetToken)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash.
func (uc *UseCase) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return domain.ErrInvalidToken
	}
	if len(newPassword) < minPasswordLength {
		return domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}
	return uc.users.ResetPassword(ctx, resetToken, string(hash), time.Now())
}

// CurrentUser loads the full account record behind an identity.
func (uc *UseCase) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
