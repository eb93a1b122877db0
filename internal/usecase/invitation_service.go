package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/invitation"
	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/platform/token"
)

type InvitationInput struct {
	Name  string
	Email string
}

type AdminInvitationInput struct {
	Name    string
	Email   string
	GroupID int64
}

// SkippedInvitation reports one batch entry that was not created and why.
type SkippedInvitation struct {
	Email   string
	Name    string
	Reason  string
	GroupID *int64
}

type InvitationBatch struct {
	Created []invitation.Invitation
	Skipped []SkippedInvitation
}

type InvitationTokenInfo struct {
	Name             string
	Email            string
	ExpiresAt        time.Time
	GroupID          int64
	GroupName        string
	GroupDescription *string
	Role             user.Role
}

type RegisterInvitedInput struct {
	Token             string
	Password          string
	PreferredPosition *string
}

// InvitationService onboards users through single-use expiring tokens.
// Creating an invitation supersedes older pending ones for the same email
// and group; acceptance creates an already-active account.
type InvitationService struct {
	invitationRepo invitation.Repository
	userRepo       user.Repository
	groupRepo      group.Repository
	tokens         token.Generator
	accounts       *AccountService
	notifier       Notifier

	invitationTTL time.Duration
	now           func() time.Time
}

func NewInvitationService(
	invitationRepo invitation.Repository,
	userRepo user.Repository,
	groupRepo group.Repository,
	tokens token.Generator,
	accounts *AccountService,
	notifier Notifier,
	invitationTTL time.Duration,
) *InvitationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &InvitationService{
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		groupRepo:      groupRepo,
		tokens:         tokens,
		accounts:       accounts,
		notifier:       notifier,
		invitationTTL:  invitationTTL,
		now:            time.Now,
	}
}

// CreateBatch invites players into the admin's own group. Entries whose
// email already belongs to an account are skipped, not failed, so one bad
// row does not sink the batch.
func (s *InvitationService) CreateBatch(ctx context.Context, items []InvitationInput, principal user.Principal) (InvitationBatch, error) {
	ctx, span := startUsecaseSpan(ctx, "InvitationService.CreateBatch")
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return InvitationBatch{}, err
	}
	if principal.GroupID == nil {
		return InvitationBatch{}, fmt.Errorf("%w: admin is not attached to a group", ErrInvalidInput)
	}

	return s.createForGroup(ctx, items, *principal.GroupID, user.RoleUser)
}

// CreateAdminBatch invites group admins, one target group per entry.
// Superadmin only.
func (s *InvitationService) CreateAdminBatch(ctx context.Context, items []AdminInvitationInput, principal user.Principal) (InvitationBatch, error) {
	ctx, span := startUsecaseSpan(ctx, "InvitationService.CreateAdminBatch")
	defer span.End()

	if principal.Role != user.RoleSuperadmin {
		return InvitationBatch{}, fmt.Errorf("%w: superadmin role required", ErrPermissionDenied)
	}
	if len(items) == 0 {
		return InvitationBatch{}, fmt.Errorf("%w: no invitations given", ErrInvalidInput)
	}

	grouped := make(map[int64][]InvitationInput)
	order := make([]int64, 0)
	for _, item := range items {
		if _, ok := grouped[item.GroupID]; !ok {
			order = append(order, item.GroupID)
		}
		grouped[item.GroupID] = append(grouped[item.GroupID], InvitationInput{Name: item.Name, Email: item.Email})
	}

	var out InvitationBatch
	for _, groupID := range order {
		batch, err := s.createForGroup(ctx, grouped[groupID], groupID, user.RoleAdmin)
		if err != nil {
			return InvitationBatch{}, err
		}
		out.Created = append(out.Created, batch.Created...)
		for _, skipped := range batch.Skipped {
			id := groupID
			skipped.GroupID = &id
			out.Skipped = append(out.Skipped, skipped)
		}
	}
	return out, nil
}

func (s *InvitationService) createForGroup(ctx context.Context, items []InvitationInput, groupID int64, role user.Role) (InvitationBatch, error) {
	if len(items) == 0 {
		return InvitationBatch{}, fmt.Errorf("%w: no invitations given", ErrInvalidInput)
	}
	if role == user.RoleSuperadmin {
		return InvitationBatch{}, fmt.Errorf("%w: superadmin invitations are not supported", ErrInvalidInput)
	}

	g, exists, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return InvitationBatch{}, fmt.Errorf("get group by id: %w", err)
	}
	if !exists {
		return InvitationBatch{}, fmt.Errorf("%w: group does not exist", ErrInvalidInput)
	}

	now := s.now().UTC()
	var out InvitationBatch
	mails := make([]InvitationMail, 0, len(items))

	for _, item := range items {
		email := normalizeEmail(item.Email)
		name := strings.TrimSpace(item.Name)
		if email == "" || name == "" {
			return InvitationBatch{}, fmt.Errorf("%w: invitation name and email are required", ErrInvalidInput)
		}

		if _, exists, err := s.userRepo.GetByEmail(ctx, email); err != nil {
			return InvitationBatch{}, fmt.Errorf("get user by email: %w", err)
		} else if exists {
			out.Skipped = append(out.Skipped, SkippedInvitation{Email: email, Name: name, Reason: "email_exists"})
			if err := s.expirePending(ctx, email, &groupID); err != nil {
				return InvitationBatch{}, err
			}
			continue
		}

		if err := s.expirePending(ctx, email, &groupID); err != nil {
			return InvitationBatch{}, err
		}

		inviteToken, err := s.tokens.NewToken()
		if err != nil {
			return InvitationBatch{}, fmt.Errorf("generate invitation token: %w", err)
		}

		created, err := s.invitationRepo.Create(ctx, invitation.Invitation{
			Name:      name,
			Email:     email,
			Token:     inviteToken,
			Status:    invitation.StatusPending,
			ExpiresAt: now.Add(s.invitationTTL),
			GroupID:   groupID,
			Role:      role,
			CreatedAt: now,
		})
		if err != nil {
			return InvitationBatch{}, fmt.Errorf("create invitation: %w", err)
		}

		out.Created = append(out.Created, created)
		mails = append(mails, InvitationMail{
			Email:     created.Email,
			Name:      created.Name,
			Token:     created.Token,
			GroupName: g.Name,
		})
	}

	if len(mails) > 0 {
		s.notifier.Invitations(ctx, mails)
	}
	return out, nil
}

// List returns invitations scoped to the caller, expiring overdue pending
// rows on the way out.
func (s *InvitationService) List(ctx context.Context, principal user.Principal) ([]invitation.Invitation, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if principal.GroupID == nil {
		return nil, fmt.Errorf("%w: admin is not attached to a group", ErrInvalidInput)
	}

	role := user.RoleUser
	return s.list(ctx, invitation.ListFilter{GroupID: principal.GroupID, Role: &role})
}

// ListAdminInvitations returns admin invitations across groups. Superadmin
// only.
func (s *InvitationService) ListAdminInvitations(ctx context.Context, groupID *int64, principal user.Principal) ([]invitation.Invitation, error) {
	if principal.Role != user.RoleSuperadmin {
		return nil, fmt.Errorf("%w: superadmin role required", ErrPermissionDenied)
	}

	role := user.RoleAdmin
	return s.list(ctx, invitation.ListFilter{GroupID: groupID, Role: &role})
}

func (s *InvitationService) list(ctx context.Context, filter invitation.ListFilter) ([]invitation.Invitation, error) {
	invitations, err := s.invitationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	now := s.now().UTC()
	for i, inv := range invitations {
		if !inv.Expired(now) {
			continue
		}
		inv.Status = invitation.StatusExpired
		if err := s.invitationRepo.Update(ctx, inv); err != nil {
			return nil, fmt.Errorf("expire invitation: %w", err)
		}
		invitations[i] = inv
	}
	return invitations, nil
}

// TokenInfo resolves a pending invitation token to its onboarding details.
func (s *InvitationService) TokenInfo(ctx context.Context, inviteToken string) (InvitationTokenInfo, error) {
	inv, err := s.activeInvitation(ctx, inviteToken)
	if err != nil {
		return InvitationTokenInfo{}, err
	}

	g, exists, err := s.groupRepo.GetByID(ctx, inv.GroupID)
	if err != nil {
		return InvitationTokenInfo{}, fmt.Errorf("get group by id: %w", err)
	}
	info := InvitationTokenInfo{
		Name:      inv.Name,
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt,
		GroupID:   inv.GroupID,
		Role:      inv.Role,
	}
	if exists {
		info.GroupName = g.Name
		info.GroupDescription = g.Description
	}
	return info, nil
}

// RegisterInvited accepts an invitation, creating an active account with the
// invited role and group.
func (s *InvitationService) RegisterInvited(ctx context.Context, input RegisterInvitedInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "InvitationService.RegisterInvited")
	defer span.End()

	if len(input.Password) < 6 {
		return user.User{}, fmt.Errorf("%w: password must have at least 6 characters", ErrInvalidInput)
	}

	inv, err := s.activeInvitation(ctx, input.Token)
	if err != nil {
		return user.User{}, err
	}
	if inv.Role == user.RoleSuperadmin {
		return user.User{}, fmt.Errorf("%w: superadmin invitations cannot be accepted here", ErrInvalidInput)
	}

	if _, exists, err := s.userRepo.GetByEmail(ctx, inv.Email); err != nil {
		return user.User{}, fmt.Errorf("get user by email: %w", err)
	} else if exists {
		inv.Status = invitation.StatusExpired
		if err := s.invitationRepo.Update(ctx, inv); err != nil {
			return user.User{}, fmt.Errorf("expire invitation: %w", err)
		}
		return user.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	created, err := s.accounts.createUser(ctx, createUserParams{
		Name:              inv.Name,
		Email:             inv.Email,
		Password:          input.Password,
		Role:              inv.Role,
		GroupID:           &inv.GroupID,
		IsActive:          true,
		PreferredPosition: input.PreferredPosition,
	})
	if err != nil {
		return user.User{}, err
	}

	now := s.now().UTC()
	inv.Status = invitation.StatusAccepted
	inv.AcceptedAt = &now
	inv.UserID = &created.ID
	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return user.User{}, fmt.Errorf("accept invitation: %w", err)
	}
	if err := s.expirePending(ctx, inv.Email, &inv.GroupID); err != nil {
		return user.User{}, err
	}

	return created, nil
}

func (s *InvitationService) activeInvitation(ctx context.Context, inviteToken string) (invitation.Invitation, error) {
	inviteToken = strings.TrimSpace(inviteToken)
	if inviteToken == "" {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation token is required", ErrStaleToken)
	}

	inv, exists, err := s.invitationRepo.GetByToken(ctx, inviteToken)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("get invitation by token: %w", err)
	}
	if !exists {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation token", ErrStaleToken)
	}

	if inv.Expired(s.now().UTC()) {
		inv.Status = invitation.StatusExpired
		if err := s.invitationRepo.Update(ctx, inv); err != nil {
			return invitation.Invitation{}, fmt.Errorf("expire invitation: %w", err)
		}
	}
	if inv.Status != invitation.StatusPending {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation token", ErrStaleToken)
	}
	return inv, nil
}

func (s *InvitationService) expirePending(ctx context.Context, email string, groupID *int64) error {
	pending, err := s.invitationRepo.ListPendingByEmail(ctx, email, groupID)
	if err != nil {
		return fmt.Errorf("list pending invitations: %w", err)
	}
	for _, inv := range pending {
		inv.Status = invitation.StatusExpired
		if err := s.invitationRepo.Update(ctx, inv); err != nil {
			return fmt.Errorf("expire invitation: %w", err)
		}
	}
	return nil
}
