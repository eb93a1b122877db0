package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/user"
)

type CreateGroupInput struct {
	Name        string
	Description *string
}

// GroupService manages the membership boundaries. Groups are listed publicly
// so invitation landing pages can show where the invite leads.
type GroupService struct {
	groupRepo group.Repository
}

func NewGroupService(groupRepo group.Repository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) List(ctx context.Context) ([]group.Group, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) Create(ctx context.Context, input CreateGroupInput, principal user.Principal) (group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "GroupService.Create")
	defer span.End()

	if principal.Role != user.RoleSuperadmin {
		return group.Group{}, fmt.Errorf("%w: superadmin role required", ErrPermissionDenied)
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return group.Group{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if _, exists, err := s.groupRepo.GetByName(ctx, input.Name); err != nil {
		return group.Group{}, fmt.Errorf("get group by name: %w", err)
	} else if exists {
		return group.Group{}, fmt.Errorf("%w: a group with this name already exists", ErrConflict)
	}

	created, err := s.groupRepo.Create(ctx, group.Group{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return group.Group{}, fmt.Errorf("create group: %w", err)
	}
	return created, nil
}
