package usecase

import (
	"context"
	"fmt"

	"github.com/peladahub/pelada-api/internal/domain/user"
)

// UserService exposes the admin-facing roster of group members.
type UserService struct {
	userRepo user.Repository
}

func NewUserService(userRepo user.Repository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns the members of the admin's own group, ordered by name.
func (s *UserService) List(ctx context.Context, principal user.Principal) ([]user.User, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if principal.GroupID == nil {
		return nil, fmt.Errorf("%w: admin is not attached to a group", ErrInvalidInput)
	}

	users, err := s.userRepo.List(ctx, user.ListFilter{GroupID: principal.GroupID})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateStatus flips a member between mensalista and avulso. Admins can only
// touch members of their own group.
func (s *UserService) UpdateStatus(ctx context.Context, userID int64, status user.Status, principal user.Principal) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "UserService.UpdateStatus")
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return user.User{}, err
	}
	if principal.GroupID == nil {
		return user.User{}, fmt.Errorf("%w: admin is not attached to a group", ErrInvalidInput)
	}
	if status != user.StatusMensalista && status != user.StatusAvulso {
		return user.User{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	target, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%d", ErrNotFound, userID)
	}
	if target.GroupID == nil || *target.GroupID != *principal.GroupID {
		return user.User{}, fmt.Errorf("%w: user belongs to another group", ErrPermissionDenied)
	}

	if target.Status == status {
		return target, nil
	}

	target.Status = status
	if err := s.userRepo.Update(ctx, target); err != nil {
		return user.User{}, fmt.Errorf("update user status: %w", err)
	}
	return target, nil
}
