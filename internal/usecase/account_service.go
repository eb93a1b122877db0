package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/platform/token"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(u user.User) (string, time.Time, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	GroupID  int64
}

type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	User        user.User
}

// AccountService covers self-service identity: registration with email
// confirmation, login, and the password reset loop.
type AccountService struct {
	userRepo  user.Repository
	groupRepo group.Repository
	tokens    token.Generator
	issuer    TokenIssuer
	notifier  Notifier

	resetTokenTTL time.Duration
	now           func() time.Time
}

func NewAccountService(
	userRepo user.Repository,
	groupRepo group.Repository,
	tokens token.Generator,
	issuer TokenIssuer,
	notifier Notifier,
	resetTokenTTL time.Duration,
) *AccountService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AccountService{
		userRepo:      userRepo,
		groupRepo:     groupRepo,
		tokens:        tokens,
		issuer:        issuer,
		notifier:      notifier,
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
	}
}

// Register creates an inactive account and mails a confirmation link. The
// account cannot log in until confirmed.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "AccountService.Register")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if input.Name == "" {
		return user.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Email == "" {
		return user.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(input.Password) < 6 {
		return user.User{}, fmt.Errorf("%w: password must have at least 6 characters", ErrInvalidInput)
	}

	if _, exists, err := s.groupRepo.GetByID(ctx, input.GroupID); err != nil {
		return user.User{}, fmt.Errorf("get group by id: %w", err)
	} else if !exists {
		return user.User{}, fmt.Errorf("%w: group does not exist", ErrInvalidInput)
	}

	confirmation, err := s.tokens.NewToken()
	if err != nil {
		return user.User{}, fmt.Errorf("generate confirmation token: %w", err)
	}

	created, err := s.createUser(ctx, createUserParams{
		Name:              input.Name,
		Email:             input.Email,
		Password:          input.Password,
		Role:              user.RoleUser,
		GroupID:           &input.GroupID,
		IsActive:          false,
		ConfirmationToken: &confirmation,
	})
	if err != nil {
		return user.User{}, err
	}

	s.notifier.AccountConfirmation(ctx, created.Email, created.Name, confirmation)
	return created, nil
}

// Login verifies credentials and issues an access token. Unconfirmed
// accounts are rejected even with the right password.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginOutput, error) {
	ctx, span := startUsecaseSpan(ctx, "AccountService.Login")
	defer span.End()

	email = normalizeEmail(email)
	u, exists, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("get user by email: %w", err)
	}
	if !exists || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginOutput{}, fmt.Errorf("%w: incorrect email or password", ErrUnauthorized)
	}
	if !u.IsActive {
		return LoginOutput{}, fmt.Errorf("%w: account not confirmed, check your email", ErrPermissionDenied)
	}

	accessToken, expiresAt, err := s.issuer.Issue(u)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("issue access token: %w", err)
	}

	return LoginOutput{AccessToken: accessToken, ExpiresAt: expiresAt, User: u}, nil
}

// Confirm activates the account behind a confirmation token. Replaying an
// already used token on an active account reports confirmedNow=false instead
// of failing, so stale confirmation links stay harmless.
func (s *AccountService) Confirm(ctx context.Context, confirmationToken string) (user.User, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "AccountService.Confirm")
	defer span.End()

	confirmationToken = strings.TrimSpace(confirmationToken)
	if confirmationToken == "" {
		return user.User{}, false, fmt.Errorf("%w: token is required", ErrStaleToken)
	}

	u, exists, err := s.userRepo.GetByConfirmationToken(ctx, confirmationToken)
	if err != nil {
		return user.User{}, false, fmt.Errorf("get user by confirmation token: %w", err)
	}
	if exists {
		u.IsActive = true
		u.ConfirmationToken = nil
		if u.LastConfirmationToken == nil {
			u.LastConfirmationToken = &confirmationToken
		}
		if err := s.userRepo.Update(ctx, u); err != nil {
			return user.User{}, false, fmt.Errorf("activate user: %w", err)
		}
		return u, true, nil
	}

	fallback, exists, err := s.userRepo.GetByLastConfirmationToken(ctx, confirmationToken)
	if err != nil {
		return user.User{}, false, fmt.Errorf("get user by last confirmation token: %w", err)
	}
	if exists && fallback.IsActive {
		return fallback, false, nil
	}

	return user.User{}, false, fmt.Errorf("%w: confirmation token", ErrStaleToken)
}

// ForgotPassword starts a reset for the given email. The outcome is
// indistinguishable for registered and unknown addresses.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := startUsecaseSpan(ctx, "AccountService.ForgotPassword")
	defer span.End()

	u, exists, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get user by email: %w", err)
	}
	if !exists {
		return nil
	}

	resetToken, err := s.tokens.NewToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.resetTokenTTL)
	u.ResetToken = &resetToken
	u.ResetTokenExpiresAt = &expiresAt
	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.notifier.PasswordReset(ctx, u.Email, u.Name, resetToken)
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AccountService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	ctx, span := startUsecaseSpan(ctx, "AccountService.ResetPassword")
	defer span.End()

	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return fmt.Errorf("%w: token is required", ErrStaleToken)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must have at least 6 characters", ErrInvalidInput)
	}

	u, exists, err := s.userRepo.GetByResetToken(ctx, resetToken)
	if err != nil {
		return fmt.Errorf("get user by reset token: %w", err)
	}
	if !exists || u.ResetTokenExpiresAt == nil || u.ResetTokenExpiresAt.Before(s.now().UTC()) {
		return fmt.Errorf("%w: reset token", ErrStaleToken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CurrentUser resolves the authenticated principal to its full record.
func (s *AccountService) CurrentUser(ctx context.Context, principal user.Principal) (user.User, error) {
	u, exists, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%d", ErrNotFound, principal.UserID)
	}
	return u, nil
}

// EnsureSuperadmin guarantees the bootstrap superadmin exists at startup.
// An existing account under the email is promoted in place; otherwise a
// default group named after the superadmin is reused or created and an
// active account is added to it.
func (s *AccountService) EnsureSuperadmin(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return fmt.Errorf("%w: superadmin name, email and password are required", ErrInvalidInput)
	}

	existing, exists, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user by email: %w", err)
	}
	if exists {
		if existing.Role == user.RoleSuperadmin {
			return nil
		}
		existing.Role = user.RoleSuperadmin
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("promote user to superadmin: %w", err)
		}
		return nil
	}

	g, exists, err := s.groupRepo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get group by name: %w", err)
	}
	if !exists {
		description := fmt.Sprintf("Grupo padrão para %s", name)
		g, err = s.groupRepo.Create(ctx, group.Group{Name: name, Description: &description})
		if err != nil {
			return fmt.Errorf("create default group: %w", err)
		}
	}

	_, err = s.createUser(ctx, createUserParams{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     user.RoleSuperadmin,
		GroupID:  &g.ID,
		IsActive: true,
	})
	return err
}

type createUserParams struct {
	Name              string
	Email             string
	Password          string
	Role              user.Role
	GroupID           *int64
	IsActive          bool
	ConfirmationToken *string
	PreferredPosition *string
}

func (s *AccountService) createUser(ctx context.Context, params createUserParams) (user.User, error) {
	if _, exists, err := s.userRepo.GetByEmail(ctx, params.Email); err != nil {
		return user.User{}, fmt.Errorf("get user by email: %w", err)
	} else if exists {
		return user.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.userRepo.Create(ctx, user.User{
		Name:                  params.Name,
		Email:                 params.Email,
		PasswordHash:          string(hash),
		Role:                  params.Role,
		Status:                user.StatusAvulso,
		IsActive:              params.IsActive,
		ConfirmationToken:     params.ConfirmationToken,
		LastConfirmationToken: params.ConfirmationToken,
		PreferredPosition:     params.PreferredPosition,
		GroupID:               params.GroupID,
		CreatedAt:             s.now().UTC(),
	})
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
