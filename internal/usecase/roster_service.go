package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/game"
	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/user"
)

type CreateGameInput struct {
	Name                   string
	Location               string
	ScheduledAt            time.Time
	MaxPlayers             int
	ConvocationDeadline    *time.Time
	AutoConvokeMensalistas bool
	GroupID                *int64
	ConvocationUserIDs     []int64
	Principal              user.Principal
}

// GameSnapshot pairs the ordered roster projection with the users it
// references so callers can render names without extra lookups.
type GameSnapshot struct {
	Snapshot game.Snapshot
	Users    map[int64]user.User
}

// RosterService owns the seat lifecycle of a game: convocations, avulso
// sign-up, the waitlist and its promotion loop. Every mutating operation runs
// in a single Atomic scope so slot arithmetic never observes partial state.
type RosterService struct {
	gameRepo  game.Repository
	userRepo  user.Repository
	groupRepo group.Repository

	defaultConvocationDeadline time.Duration
	now                        func() time.Time
}

func NewRosterService(
	gameRepo game.Repository,
	userRepo user.Repository,
	groupRepo group.Repository,
	defaultConvocationDeadline time.Duration,
) *RosterService {
	return &RosterService{
		gameRepo:                   gameRepo,
		userRepo:                   userRepo,
		groupRepo:                  groupRepo,
		defaultConvocationDeadline: defaultConvocationDeadline,
		now:                        time.Now,
	}
}

func (s *RosterService) CreateGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.CreateGame")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)

	if err := requireAdmin(input.Principal); err != nil {
		return game.Game{}, err
	}
	if input.Name == "" {
		return game.Game{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Location == "" {
		return game.Game{}, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if input.ScheduledAt.IsZero() {
		return game.Game{}, fmt.Errorf("%w: scheduled_at is required", ErrInvalidInput)
	}
	if input.MaxPlayers <= 0 {
		return game.Game{}, fmt.Errorf("%w: max_players must be positive", ErrInvalidInput)
	}

	if input.Principal.GroupID == nil {
		return game.Game{}, fmt.Errorf("%w: user is not attached to a group", ErrInvalidInput)
	}
	groupID := *input.Principal.GroupID
	if input.GroupID != nil && *input.GroupID != groupID {
		return game.Game{}, fmt.Errorf("%w: cannot create games for another group", ErrPermissionDenied)
	}
	if _, exists, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return game.Game{}, fmt.Errorf("get group by id: %w", err)
	} else if !exists {
		return game.Game{}, fmt.Errorf("%w: group=%d", ErrNotFound, groupID)
	}

	now := s.now().UTC()
	deadline := input.ConvocationDeadline
	if deadline == nil {
		d := now.Add(s.defaultConvocationDeadline)
		deadline = &d
	}

	selected := append([]int64(nil), input.ConvocationUserIDs...)
	if input.AutoConvokeMensalistas {
		status := user.StatusMensalista
		mensalistas, err := s.userRepo.List(ctx, user.ListFilter{GroupID: &groupID, Status: &status})
		if err != nil {
			return game.Game{}, fmt.Errorf("list mensalistas: %w", err)
		}
		for _, u := range mensalistas {
			selected = append(selected, u.ID)
		}
	}
	selected = dedupeIDs(selected)

	if err := s.validateConvocationUsers(ctx, groupID, selected); err != nil {
		return game.Game{}, err
	}

	ownerID := input.Principal.UserID
	var created game.Game
	err := s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		var err error
		created, err = repo.Create(ctx, game.Game{
			Name:                   input.Name,
			Location:               input.Location,
			ScheduledAt:            input.ScheduledAt,
			MaxPlayers:             input.MaxPlayers,
			ConvocationDeadline:    deadline,
			AutoConvokeMensalistas: input.AutoConvokeMensalistas,
			OwnerID:                &ownerID,
			GroupID:                groupID,
			CreatedAt:              now,
		})
		if err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		if len(selected) == 0 {
			return nil
		}
		if err := repo.CreateConvocations(ctx, created.ID, selected); err != nil {
			return fmt.Errorf("create convocations: %w", err)
		}
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	return created, nil
}

// AssignConvocations replaces the convocation set of a game. Users dropped
// from the set lose both their convocation and any presence; the freed seats
// go to the waitlist before the call returns.
func (s *RosterService) AssignConvocations(ctx context.Context, gameID int64, userIDs []int64, principal user.Principal) ([]game.Convocation, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.AssignConvocations")
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	unique := dedupeIDs(userIDs)

	var convocations []game.Convocation
	err := s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		g, err := s.gameForPrincipal(ctx, repo, gameID, principal)
		if err != nil {
			return err
		}
		if err := s.validateConvocationUsers(ctx, g.GroupID, unique); err != nil {
			return err
		}

		agg, exists, err := repo.GetAggregate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("get game aggregate: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: game=%d", ErrNotFound, gameID)
		}

		keep := make(map[int64]struct{}, len(unique))
		for _, id := range unique {
			keep[id] = struct{}{}
		}

		existing := make(map[int64]struct{}, len(agg.Convocations))
		for _, conv := range agg.Convocations {
			existing[conv.UserID] = struct{}{}
			if _, ok := keep[conv.UserID]; ok {
				continue
			}
			if err := repo.DeleteConvocation(ctx, gameID, conv.UserID); err != nil {
				return fmt.Errorf("delete convocation: %w", err)
			}
			if err := repo.DeletePresence(ctx, gameID, conv.UserID); err != nil {
				return fmt.Errorf("delete presence: %w", err)
			}
		}

		added := make([]int64, 0, len(unique))
		for _, id := range unique {
			if _, ok := existing[id]; !ok {
				added = append(added, id)
			}
		}
		if len(added) > 0 {
			if err := repo.CreateConvocations(ctx, gameID, added); err != nil {
				return fmt.Errorf("create convocations: %w", err)
			}
		}

		if _, err := s.fillWaitlist(ctx, repo, gameID); err != nil {
			return err
		}

		final, _, err := repo.GetAggregate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("get game aggregate: %w", err)
		}
		convocations = final.Convocations
		return nil
	})
	if err != nil {
		return nil, err
	}

	return convocations, nil
}

// ConfirmConvocation turns a call-up into a confirmed seat. With no seat
// free it displaces the most recently queued confirmed avulso back to the
// waitlist; with no avulso to displace the seat is granted anyway, a soft
// ceiling kept for compatibility with existing rosters.
func (s *RosterService) ConfirmConvocation(ctx context.Context, gameID int64, principal user.Principal) (game.Presence, []game.Presence, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.ConfirmConvocation")
	defer span.End()

	var confirmed game.Presence
	var displaced []game.Presence
	err := s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		conv, exists, err := repo.GetConvocation(ctx, gameID, principal.UserID)
		if err != nil {
			return fmt.Errorf("get convocation: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: convocation for game=%d", ErrNotFound, gameID)
		}

		now := s.now().UTC()
		conv.Status = game.ConvocationConfirmed
		conv.RespondedAt = &now
		if err := repo.UpdateConvocation(ctx, conv); err != nil {
			return fmt.Errorf("update convocation: %w", err)
		}

		agg, _, err := repo.GetAggregate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("get game aggregate: %w", err)
		}

		if slots := game.ComputeSlots(agg, now); slots.Available <= 0 {
			avulso, exists, err := repo.NewestConfirmedAvulso(ctx, gameID)
			if err != nil {
				return fmt.Errorf("get newest confirmed avulso: %w", err)
			}
			if exists {
				avulso.Status = game.PresenceWaiting
				if err := repo.UpdatePresence(ctx, avulso); err != nil {
					return fmt.Errorf("displace avulso: %w", err)
				}
				displaced = append(displaced, avulso)
			}
		}

		confirmed, err = s.ensurePresence(ctx, repo, gameID, principal.UserID, game.PresenceRoleConvoked, game.PresenceConfirmed)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return game.Presence{}, nil, err
	}

	return confirmed, displaced, nil
}

// DeclineConvocation releases the caller's call-up and any seat it held,
// then promotes from the waitlist. Returns the promoted presences.
func (s *RosterService) DeclineConvocation(ctx context.Context, gameID int64, principal user.Principal) ([]game.Presence, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.DeclineConvocation")
	defer span.End()

	var promoted []game.Presence
	err := s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		conv, exists, err := repo.GetConvocation(ctx, gameID, principal.UserID)
		if err != nil {
			return fmt.Errorf("get convocation: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: convocation for game=%d", ErrNotFound, gameID)
		}

		now := s.now().UTC()
		conv.Status = game.ConvocationDeclined
		conv.RespondedAt = &now
		if err := repo.UpdateConvocation(ctx, conv); err != nil {
			return fmt.Errorf("update convocation: %w", err)
		}

		if err := repo.DeletePresence(ctx, gameID, principal.UserID); err != nil {
			return fmt.Errorf("delete presence: %w", err)
		}

		promoted, err = s.fillWaitlist(ctx, repo, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}

// JoinAsAvulso signs the caller up without a convocation. The seat is
// confirmed when one is free, otherwise the caller joins the waitlist. The
// queue position is always the next in the join sequence, never reused.
func (s *RosterService) JoinAsAvulso(ctx context.Context, gameID int64, principal user.Principal) (game.Presence, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.JoinAsAvulso")
	defer span.End()

	var created game.Presence
	err := s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		if _, err := s.gameForPrincipal(ctx, repo, gameID, principal); err != nil {
			return err
		}

		if _, exists, err := repo.GetConvocation(ctx, gameID, principal.UserID); err != nil {
			return fmt.Errorf("get convocation: %w", err)
		} else if exists {
			return fmt.Errorf("%w: convoked players confirm through the convocation flow", ErrConflict)
		}

		if _, exists, err := repo.GetPresence(ctx, gameID, principal.UserID); err != nil {
			return fmt.Errorf("get presence: %w", err)
		} else if exists {
			return fmt.Errorf("%w: user already signed up for this game", ErrConflict)
		}

		agg, _, err := repo.GetAggregate(ctx, gameID)
		if err != nil {
			return fmt.Errorf("get game aggregate: %w", err)
		}

		now := s.now().UTC()
		status := game.PresenceWaiting
		if game.ComputeSlots(agg, now).Available > 0 {
			status = game.PresenceConfirmed
		}

		maxPosition, err := repo.MaxQueuePosition(ctx, gameID)
		if err != nil {
			return fmt.Errorf("get max queue position: %w", err)
		}
		position := maxPosition + 1

		created, err = repo.CreatePresence(ctx, game.Presence{
			GameID:        gameID,
			UserID:        principal.UserID,
			Role:          game.PresenceRoleAvulso,
			Status:        status,
			QueuePosition: &position,
			JoinedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("create presence: %w", err)
		}
		return nil
	})
	if err != nil {
		return game.Presence{}, err
	}

	return created, nil
}

// RemovePresence drops a seat record. Players remove their own; admins can
// remove anyone's. The convocation row, if any, is left as-is. Returns the
// presences promoted into the freed seat.
func (s *RosterService) RemovePresence(ctx context.Context, gameID int64, targetUserID *int64, principal user.Principal) ([]game.Presence, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.RemovePresence")
	defer span.End()

	var promoted []game.Presence
	err := s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		if _, err := s.gameForPrincipal(ctx, repo, gameID, principal); err != nil {
			return err
		}

		targetID := principal.UserID
		if targetUserID != nil {
			targetID = *targetUserID
		}

		presence, exists, err := repo.GetPresence(ctx, gameID, targetID)
		if err != nil {
			return fmt.Errorf("get presence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: presence for game=%d", ErrNotFound, gameID)
		}
		if !isAdmin(principal) && presence.UserID != principal.UserID {
			return fmt.Errorf("%w: not allowed to remove this presence", ErrPermissionDenied)
		}

		if err := repo.DeletePresence(ctx, gameID, targetID); err != nil {
			return fmt.Errorf("delete presence: %w", err)
		}

		promoted, err = s.fillWaitlist(ctx, repo, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}

// DeleteGame removes a game with all its convocations and presences. Only
// the owner or an admin may delete.
func (s *RosterService) DeleteGame(ctx context.Context, gameID int64, principal user.Principal) error {
	ctx, span := startUsecaseSpan(ctx, "RosterService.DeleteGame")
	defer span.End()

	return s.gameRepo.Atomic(ctx, func(repo game.Repository) error {
		g, err := s.gameForPrincipal(ctx, repo, gameID, principal)
		if err != nil {
			return err
		}
		owner := g.OwnerID != nil && *g.OwnerID == principal.UserID
		if !owner && !isAdmin(principal) {
			return fmt.Errorf("%w: not allowed to delete this game", ErrPermissionDenied)
		}
		if err := repo.Delete(ctx, gameID); err != nil {
			return fmt.Errorf("delete game: %w", err)
		}
		return nil
	})
}

func (s *RosterService) ListGames(ctx context.Context, principal user.Principal) ([]game.Game, error) {
	if principal.GroupID == nil {
		return nil, fmt.Errorf("%w: user is not attached to a group", ErrInvalidInput)
	}

	games, err := s.gameRepo.ListByGroup(ctx, *principal.GroupID)
	if err != nil {
		return nil, fmt.Errorf("list games by group: %w", err)
	}
	return games, nil
}

func (s *RosterService) GetSnapshot(ctx context.Context, gameID int64, principal user.Principal) (GameSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.GetSnapshot")
	defer span.End()

	g, err := s.gameForPrincipal(ctx, s.gameRepo, gameID, principal)
	if err != nil {
		return GameSnapshot{}, err
	}

	agg, exists, err := s.gameRepo.GetAggregate(ctx, gameID)
	if err != nil {
		return GameSnapshot{}, fmt.Errorf("get game aggregate: %w", err)
	}
	if !exists {
		return GameSnapshot{}, fmt.Errorf("%w: game=%d", ErrNotFound, gameID)
	}

	ids := make([]int64, 0, len(agg.Convocations)+len(agg.Presences)+1)
	for _, conv := range agg.Convocations {
		ids = append(ids, conv.UserID)
	}
	for _, presence := range agg.Presences {
		ids = append(ids, presence.UserID)
	}
	if g.OwnerID != nil {
		ids = append(ids, *g.OwnerID)
	}

	users, err := s.userRepo.ListByIDs(ctx, dedupeIDs(ids))
	if err != nil {
		return GameSnapshot{}, fmt.Errorf("list snapshot users: %w", err)
	}

	usersByID := make(map[int64]user.User, len(users))
	namesByID := make(map[int64]string, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
		namesByID[u.ID] = u.Name
	}

	return GameSnapshot{
		Snapshot: game.BuildSnapshot(agg, namesByID, s.now().UTC()),
		Users:    usersByID,
	}, nil
}

// fillWaitlist promotes the oldest waiting presences one by one until the
// game is full or the waitlist is empty. Promotion keeps the original queue
// position; it only flips the status.
func (s *RosterService) fillWaitlist(ctx context.Context, repo game.Repository, gameID int64) ([]game.Presence, error) {
	var promoted []game.Presence
	for {
		agg, exists, err := repo.GetAggregate(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("get game aggregate: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: game=%d", ErrNotFound, gameID)
		}
		if game.ComputeSlots(agg, s.now().UTC()).Available <= 0 {
			return promoted, nil
		}

		waiting, exists, err := repo.OldestWaitingPresence(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("get oldest waiting presence: %w", err)
		}
		if !exists {
			return promoted, nil
		}

		waiting.Status = game.PresenceConfirmed
		if err := repo.UpdatePresence(ctx, waiting); err != nil {
			return nil, fmt.Errorf("promote waiting presence: %w", err)
		}
		promoted = append(promoted, waiting)
	}
}

func (s *RosterService) ensurePresence(ctx context.Context, repo game.Repository, gameID, userID int64, role game.PresenceRole, status game.PresenceStatus) (game.Presence, error) {
	presence, exists, err := repo.GetPresence(ctx, gameID, userID)
	if err != nil {
		return game.Presence{}, fmt.Errorf("get presence: %w", err)
	}
	if exists {
		presence.Role = role
		presence.Status = status
		if err := repo.UpdatePresence(ctx, presence); err != nil {
			return game.Presence{}, fmt.Errorf("update presence: %w", err)
		}
		return presence, nil
	}

	created, err := repo.CreatePresence(ctx, game.Presence{
		GameID:   gameID,
		UserID:   userID,
		Role:     role,
		Status:   status,
		JoinedAt: s.now().UTC(),
	})
	if err != nil {
		return game.Presence{}, fmt.Errorf("create presence: %w", err)
	}
	return created, nil
}

// gameForPrincipal loads a game and hides it from callers outside its group.
// Superadmins without a group see every game.
func (s *RosterService) gameForPrincipal(ctx context.Context, repo game.Repository, gameID int64, principal user.Principal) (game.Game, error) {
	g, exists, err := repo.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game by id: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: game=%d", ErrNotFound, gameID)
	}
	if principal.GroupID != nil && g.GroupID != *principal.GroupID {
		return game.Game{}, fmt.Errorf("%w: game=%d", ErrNotFound, gameID)
	}
	return g, nil
}

func (s *RosterService) validateConvocationUsers(ctx context.Context, groupID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	users, err := s.userRepo.ListByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("list users by ids: %w", err)
	}

	found := make(map[int64]struct{}, len(users))
	for _, u := range users {
		if u.GroupID != nil && *u.GroupID == groupID {
			found[u.ID] = struct{}{}
		}
	}

	missing := make([]int64, 0)
	for _, id := range userIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return fmt.Errorf("%w: users not found: %v", ErrInvalidInput, missing)
	}
	return nil
}

func requireAdmin(principal user.Principal) error {
	if !isAdmin(principal) {
		return fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return nil
}

func isAdmin(principal user.Principal) bool {
	return principal.Role == user.RoleAdmin || principal.Role == user.RoleSuperadmin
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
