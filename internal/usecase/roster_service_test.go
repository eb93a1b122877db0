package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/game"
	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/infrastructure/repository/memory"
)

type rosterFixture struct {
	svc       *RosterService
	gameRepo  *memory.GameRepository
	userRepo  *memory.UserRepository
	groupRepo *memory.GroupRepository
	group     group.Group
	now       time.Time
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()

	gameRepo := memory.NewGameRepository()
	userRepo := memory.NewUserRepository()
	groupRepo := memory.NewGroupRepository()

	g, err := groupRepo.Create(t.Context(), group.Group{Name: "Pelada de Quarta"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewRosterService(gameRepo, userRepo, groupRepo, 24*time.Hour)
	svc.now = func() time.Time { return now }

	return &rosterFixture{
		svc:       svc,
		gameRepo:  gameRepo,
		userRepo:  userRepo,
		groupRepo: groupRepo,
		group:     g,
		now:       now,
	}
}

func (f *rosterFixture) seedUser(t *testing.T, name string, role user.Role, status user.Status) user.User {
	t.Helper()

	u, err := f.userRepo.Create(t.Context(), user.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@pelada.example.com",
		Role:     role,
		Status:   status,
		IsActive: true,
		GroupID:  &f.group.ID,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func principalFor(u user.User) user.Principal {
	return user.Principal{UserID: u.ID, Role: u.Role, GroupID: u.GroupID}
}

func (f *rosterFixture) createGame(t *testing.T, admin user.User, maxPlayers int, userIDs ...int64) game.Game {
	t.Helper()

	g, err := f.svc.CreateGame(t.Context(), CreateGameInput{
		Name:               "Quarta na Vila",
		Location:           "Quadra do bairro",
		ScheduledAt:        f.now.Add(48 * time.Hour),
		MaxPlayers:         maxPlayers,
		ConvocationUserIDs: userIDs,
		Principal:          principalFor(admin),
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func TestRosterService_CreateGame_RequiresAdmin(t *testing.T) {
	f := newRosterFixture(t)
	player := f.seedUser(t, "Rafa", user.RoleUser, user.StatusAvulso)

	_, err := f.svc.CreateGame(t.Context(), CreateGameInput{
		Name:        "Quarta",
		Location:    "Quadra",
		ScheduledAt: f.now.Add(time.Hour),
		MaxPlayers:  10,
		Principal:   principalFor(player),
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestRosterService_CreateGame_DefaultsDeadline(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)

	g := f.createGame(t, admin, 10)

	if g.ConvocationDeadline == nil {
		t.Fatalf("expected a default convocation deadline")
	}
	if !g.ConvocationDeadline.Equal(f.now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected default deadline: %s", g.ConvocationDeadline)
	}
	if g.OwnerID == nil || *g.OwnerID != admin.ID {
		t.Fatalf("expected owner to be the creator")
	}
}

func TestRosterService_CreateGame_AutoConvokesMensalistas(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	mensalista := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	g, err := f.svc.CreateGame(t.Context(), CreateGameInput{
		Name:                   "Quarta",
		Location:               "Quadra",
		ScheduledAt:            f.now.Add(48 * time.Hour),
		MaxPlayers:             10,
		AutoConvokeMensalistas: true,
		ConvocationUserIDs:     []int64{mensalista.ID},
		Principal:              principalFor(admin),
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	agg, _, err := f.gameRepo.GetAggregate(t.Context(), g.ID)
	if err != nil {
		t.Fatalf("get aggregate: %v", err)
	}

	// Mensalistas are appended and the set is deduplicated: Beto appears
	// once even though he was also selected explicitly.
	if len(agg.Convocations) != 2 {
		t.Fatalf("expected 2 convocations, got %d", len(agg.Convocations))
	}
	for _, conv := range agg.Convocations {
		if conv.Status != game.ConvocationPending {
			t.Fatalf("expected pending convocation, got %s", conv.Status)
		}
	}
}

func TestRosterService_CreateGame_RejectsUnknownUsers(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)

	_, err := f.svc.CreateGame(t.Context(), CreateGameInput{
		Name:               "Quarta",
		Location:           "Quadra",
		ScheduledAt:        f.now.Add(time.Hour),
		MaxPlayers:         10,
		ConvocationUserIDs: []int64{999, 998},
		Principal:          principalFor(admin),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "users not found: [998 999]") {
		t.Fatalf("expected sorted missing ids in error, got %q", err.Error())
	}
}

func TestRosterService_JoinAsAvulso_FillsThenWaitlists(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	g := f.createGame(t, admin, 2)

	first := f.seedUser(t, "Um", user.RoleUser, user.StatusAvulso)
	second := f.seedUser(t, "Dois", user.RoleUser, user.StatusAvulso)
	third := f.seedUser(t, "Tres", user.RoleUser, user.StatusAvulso)

	p1, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(first))
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if p1.Status != game.PresenceConfirmed {
		t.Fatalf("expected first join confirmed, got %s", p1.Status)
	}
	if p1.QueuePosition == nil || *p1.QueuePosition != 1 {
		t.Fatalf("unexpected queue position for first join: %v", p1.QueuePosition)
	}

	p2, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(second))
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if p2.Status != game.PresenceConfirmed {
		t.Fatalf("expected second join confirmed, got %s", p2.Status)
	}

	p3, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(third))
	if err != nil {
		t.Fatalf("third join: %v", err)
	}
	if p3.Status != game.PresenceWaiting {
		t.Fatalf("expected third join waitlisted, got %s", p3.Status)
	}
	if p3.QueuePosition == nil || *p3.QueuePosition != 3 {
		t.Fatalf("unexpected queue position for third join: %v", p3.QueuePosition)
	}
}

func TestRosterService_JoinAsAvulso_RejectsDoubleSignupAndConvoked(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	avulso := f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	g := f.createGame(t, admin, 5, convoked.ID)

	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(convoked)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for convoked player, got %v", err)
	}

	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(avulso)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(avulso)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for double signup, got %v", err)
	}
}

func TestRosterService_JoinAsAvulso_PendingConvocationHoldsSeat(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	avulso := f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	// One seat, held by the pending convocation while the deadline is open.
	g := f.createGame(t, admin, 1, convoked.ID)

	p, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(avulso))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Status != game.PresenceWaiting {
		t.Fatalf("expected waitlist while convocation holds the seat, got %s", p.Status)
	}
}

func TestRosterService_JoinAsAvulso_ExpiredDeadlineFreesReservedSeat(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	avulso := f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	deadline := f.now.Add(-time.Hour)
	g, err := f.svc.CreateGame(t.Context(), CreateGameInput{
		Name:                "Quarta",
		Location:            "Quadra",
		ScheduledAt:         f.now.Add(2 * time.Hour),
		MaxPlayers:          1,
		ConvocationDeadline: &deadline,
		ConvocationUserIDs:  []int64{convoked.ID},
		Principal:           principalFor(admin),
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	p, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(avulso))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Status != game.PresenceConfirmed {
		t.Fatalf("expected confirmed seat after the deadline freed the hold, got %s", p.Status)
	}
}

func TestRosterService_ConfirmConvocation_NotConvoked(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	outsider := f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	g := f.createGame(t, admin, 5)

	if _, _, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(outsider)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRosterService_ConfirmConvocation_TakesSeat(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)

	g := f.createGame(t, admin, 5, convoked.ID)

	presence, displaced, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(convoked))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if presence.Role != game.PresenceRoleConvoked || presence.Status != game.PresenceConfirmed {
		t.Fatalf("unexpected presence: %+v", presence)
	}
	if len(displaced) != 0 {
		t.Fatalf("expected no displacement, got %d", len(displaced))
	}

	conv, _, err := f.gameRepo.GetConvocation(t.Context(), g.ID, convoked.ID)
	if err != nil {
		t.Fatalf("get convocation: %v", err)
	}
	if conv.Status != game.ConvocationConfirmed || conv.RespondedAt == nil {
		t.Fatalf("unexpected convocation state: %+v", conv)
	}
}

func TestRosterService_ConfirmConvocation_DisplacesNewestAvulso(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	early := f.seedUser(t, "Um", user.RoleUser, user.StatusAvulso)
	late := f.seedUser(t, "Dois", user.RoleUser, user.StatusAvulso)

	// Past the deadline the pending convocation no longer reserves a seat,
	// so both avulsos get confirmed. A late confirm then bounces the newest
	// of them back to the waitlist.
	deadline := f.now.Add(-time.Hour)
	g, err := f.svc.CreateGame(t.Context(), CreateGameInput{
		Name:                "Quarta",
		Location:            "Quadra",
		ScheduledAt:         f.now.Add(2 * time.Hour),
		MaxPlayers:          2,
		ConvocationDeadline: &deadline,
		ConvocationUserIDs:  []int64{convoked.ID},
		Principal:           principalFor(admin),
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(early)); err != nil {
		t.Fatalf("early join: %v", err)
	}
	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(late)); err != nil {
		t.Fatalf("late join: %v", err)
	}

	_, displaced, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(convoked))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(displaced) != 1 {
		t.Fatalf("expected one displaced avulso, got %d", len(displaced))
	}
	if displaced[0].UserID != late.ID {
		t.Fatalf("expected newest avulso %d displaced, got %d", late.ID, displaced[0].UserID)
	}

	bumped, _, err := f.gameRepo.GetPresence(t.Context(), g.ID, late.ID)
	if err != nil {
		t.Fatalf("get presence: %v", err)
	}
	if bumped.Status != game.PresenceWaiting {
		t.Fatalf("expected displaced avulso waiting, got %s", bumped.Status)
	}
	if bumped.QueuePosition == nil || *bumped.QueuePosition != 2 {
		t.Fatalf("displacement must keep the original queue position, got %v", bumped.QueuePosition)
	}
}

func TestRosterService_ConfirmConvocation_SoftCeilingWithoutAvulso(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	one := f.seedUser(t, "Um", user.RoleUser, user.StatusMensalista)
	two := f.seedUser(t, "Dois", user.RoleUser, user.StatusMensalista)

	g := f.createGame(t, admin, 1, one.ID, two.ID)

	if _, _, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(one)); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	// No avulso to displace: the second convoked player is seated anyway.
	presence, displaced, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(two))
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if presence.Status != game.PresenceConfirmed {
		t.Fatalf("expected confirmed seat, got %s", presence.Status)
	}
	if len(displaced) != 0 {
		t.Fatalf("expected no displacement, got %d", len(displaced))
	}

	agg, _, _ := f.gameRepo.GetAggregate(t.Context(), g.ID)
	if slots := game.ComputeSlots(agg, f.now); slots.Used != 2 {
		t.Fatalf("expected the soft ceiling to allow 2 used seats, got %d", slots.Used)
	}
}

func TestRosterService_DeclineConvocation_PromotesOldestWaiting(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	first := f.seedUser(t, "Um", user.RoleUser, user.StatusAvulso)
	second := f.seedUser(t, "Dois", user.RoleUser, user.StatusAvulso)

	g := f.createGame(t, admin, 1, convoked.ID)

	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(first)); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(second)); err != nil {
		t.Fatalf("second join: %v", err)
	}

	promoted, err := f.svc.DeclineConvocation(t.Context(), g.ID, principalFor(convoked))
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if len(promoted) != 1 {
		t.Fatalf("expected one promotion, got %d", len(promoted))
	}
	if promoted[0].UserID != first.ID {
		t.Fatalf("expected oldest waiting %d promoted, got %d", first.ID, promoted[0].UserID)
	}
	if promoted[0].QueuePosition == nil || *promoted[0].QueuePosition != 1 {
		t.Fatalf("promotion must keep the queue position, got %v", promoted[0].QueuePosition)
	}

	conv, _, _ := f.gameRepo.GetConvocation(t.Context(), g.ID, convoked.ID)
	if conv.Status != game.ConvocationDeclined {
		t.Fatalf("expected declined convocation, got %s", conv.Status)
	}
}

func TestRosterService_RemovePresence_SelfAndAdmin(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	first := f.seedUser(t, "Um", user.RoleUser, user.StatusAvulso)
	second := f.seedUser(t, "Dois", user.RoleUser, user.StatusAvulso)
	waiting := f.seedUser(t, "Tres", user.RoleUser, user.StatusAvulso)

	g := f.createGame(t, admin, 2)

	for _, u := range []user.User{first, second, waiting} {
		if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(u)); err != nil {
			t.Fatalf("join %s: %v", u.Name, err)
		}
	}

	// A regular player cannot remove someone else.
	if _, err := f.svc.RemovePresence(t.Context(), g.ID, &second.ID, principalFor(first)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// Self removal frees the seat and promotes the waitlist head.
	promoted, err := f.svc.RemovePresence(t.Context(), g.ID, nil, principalFor(first))
	if err != nil {
		t.Fatalf("self removal: %v", err)
	}
	if len(promoted) != 1 || promoted[0].UserID != waiting.ID {
		t.Fatalf("expected %d promoted, got %+v", waiting.ID, promoted)
	}

	// Admin removes anyone.
	if _, err := f.svc.RemovePresence(t.Context(), g.ID, &second.ID, principalFor(admin)); err != nil {
		t.Fatalf("admin removal: %v", err)
	}
	if _, exists, _ := f.gameRepo.GetPresence(t.Context(), g.ID, second.ID); exists {
		t.Fatalf("expected presence removed")
	}
}

func TestRosterService_RemovePresence_KeepsConvocation(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)

	g := f.createGame(t, admin, 5, convoked.ID)
	if _, _, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(convoked)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := f.svc.RemovePresence(t.Context(), g.ID, &convoked.ID, principalFor(admin)); err != nil {
		t.Fatalf("remove presence: %v", err)
	}

	// The convocation row stays as responded; only the seat is released.
	conv, exists, err := f.gameRepo.GetConvocation(t.Context(), g.ID, convoked.ID)
	if err != nil {
		t.Fatalf("get convocation: %v", err)
	}
	if !exists || conv.Status != game.ConvocationConfirmed {
		t.Fatalf("expected confirmed convocation kept, exists=%v status=%s", exists, conv.Status)
	}
	if _, exists, _ := f.gameRepo.GetPresence(t.Context(), g.ID, convoked.ID); exists {
		t.Fatalf("expected presence removed")
	}
}

func TestRosterService_AssignConvocations_ReplacesSet(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	kept := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	dropped := f.seedUser(t, "Davi", user.RoleUser, user.StatusMensalista)
	added := f.seedUser(t, "Edu", user.RoleUser, user.StatusMensalista)

	g := f.createGame(t, admin, 5, kept.ID, dropped.ID)

	if _, _, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(dropped)); err != nil {
		t.Fatalf("confirm dropped: %v", err)
	}

	convocations, err := f.svc.AssignConvocations(t.Context(), g.ID, []int64{kept.ID, added.ID}, principalFor(admin))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(convocations) != 2 {
		t.Fatalf("expected 2 convocations, got %d", len(convocations))
	}

	if _, exists, _ := f.gameRepo.GetConvocation(t.Context(), g.ID, dropped.ID); exists {
		t.Fatalf("expected dropped convocation removed")
	}
	if _, exists, _ := f.gameRepo.GetPresence(t.Context(), g.ID, dropped.ID); exists {
		t.Fatalf("expected dropped presence removed")
	}

	conv, exists, _ := f.gameRepo.GetConvocation(t.Context(), g.ID, added.ID)
	if !exists {
		t.Fatalf("expected new convocation created")
	}
	if conv.Status != game.ConvocationPending {
		t.Fatalf("expected pending convocation, got %s", conv.Status)
	}
}

func TestRosterService_AssignConvocations_IdempotentOnSameSet(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	first := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	second := f.seedUser(t, "Davi", user.RoleUser, user.StatusMensalista)

	g := f.createGame(t, admin, 5, first.ID, second.ID)

	if _, _, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(first)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	set := []int64{first.ID, second.ID}
	if _, err := f.svc.AssignConvocations(t.Context(), g.ID, set, principalFor(admin)); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	before, _, err := f.gameRepo.GetAggregate(t.Context(), g.ID)
	if err != nil {
		t.Fatalf("get aggregate: %v", err)
	}

	if _, err := f.svc.AssignConvocations(t.Context(), g.ID, set, principalFor(admin)); err != nil {
		t.Fatalf("second assign: %v", err)
	}
	after, _, err := f.gameRepo.GetAggregate(t.Context(), g.ID)
	if err != nil {
		t.Fatalf("get aggregate: %v", err)
	}

	// Reassigning the same set creates, deletes and mutates nothing.
	if len(after.Convocations) != len(before.Convocations) {
		t.Fatalf("convocation count changed: %d -> %d", len(before.Convocations), len(after.Convocations))
	}
	beforeByUser := make(map[int64]game.Convocation, len(before.Convocations))
	for _, conv := range before.Convocations {
		beforeByUser[conv.UserID] = conv
	}
	for _, conv := range after.Convocations {
		prev, ok := beforeByUser[conv.UserID]
		if !ok {
			t.Fatalf("unexpected new convocation for user %d", conv.UserID)
		}
		if conv.ID != prev.ID || conv.Status != prev.Status {
			t.Fatalf("convocation for user %d changed: %+v -> %+v", conv.UserID, prev, conv)
		}
	}

	presence, exists, err := f.gameRepo.GetPresence(t.Context(), g.ID, first.ID)
	if err != nil {
		t.Fatalf("get presence: %v", err)
	}
	if !exists || presence.Status != game.PresenceConfirmed {
		t.Fatalf("expected confirmed seat to survive, exists=%v status=%s", exists, presence.Status)
	}
}

func TestRosterService_AssignConvocations_PromotesAfterDrop(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	convoked := f.seedUser(t, "Beto", user.RoleUser, user.StatusMensalista)
	avulso := f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	g := f.createGame(t, admin, 1, convoked.ID)
	if _, _, err := f.svc.ConfirmConvocation(t.Context(), g.ID, principalFor(convoked)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.JoinAsAvulso(t.Context(), g.ID, principalFor(avulso)); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Dropping the convoked player frees his seat for the waitlisted avulso.
	if _, err := f.svc.AssignConvocations(t.Context(), g.ID, nil, principalFor(admin)); err != nil {
		t.Fatalf("assign: %v", err)
	}

	p, _, err := f.gameRepo.GetPresence(t.Context(), g.ID, avulso.ID)
	if err != nil {
		t.Fatalf("get presence: %v", err)
	}
	if p.Status != game.PresenceConfirmed {
		t.Fatalf("expected promoted avulso, got %s", p.Status)
	}
}

func TestRosterService_DeleteGame_OwnerOrAdmin(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	other := f.seedUser(t, "Davi", user.RoleUser, user.StatusAvulso)

	g := f.createGame(t, admin, 5)

	if err := f.svc.DeleteGame(t.Context(), g.ID, principalFor(other)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	if err := f.svc.DeleteGame(t.Context(), g.ID, principalFor(admin)); err != nil {
		t.Fatalf("delete by owner: %v", err)
	}
	if _, exists, _ := f.gameRepo.GetByID(t.Context(), g.ID); exists {
		t.Fatalf("expected game removed")
	}
}

func TestRosterService_GetSnapshot_HiddenFromOtherGroups(t *testing.T) {
	f := newRosterFixture(t)
	admin := f.seedUser(t, "Carla", user.RoleAdmin, user.StatusMensalista)
	g := f.createGame(t, admin, 5)

	otherGroup, err := f.groupRepo.Create(t.Context(), group.Group{Name: "Outro grupo"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	outsider, err := f.userRepo.Create(t.Context(), user.User{
		Name:     "Fora",
		Email:    "fora@pelada.example.com",
		Role:     user.RoleUser,
		Status:   user.StatusAvulso,
		IsActive: true,
		GroupID:  &otherGroup.ID,
	})
	if err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	if _, err := f.svc.GetSnapshot(t.Context(), g.ID, principalFor(outsider)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other group, got %v", err)
	}

	snapshot, err := f.svc.GetSnapshot(t.Context(), g.ID, principalFor(admin))
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snapshot.Snapshot.Game.ID != g.ID {
		t.Fatalf("unexpected game in snapshot: %d", snapshot.Snapshot.Game.ID)
	}
	if _, ok := snapshot.Users[admin.ID]; !ok {
		t.Fatalf("expected owner in snapshot users")
	}
}

func TestRosterService_Atomic_RollsBackOnError(t *testing.T) {
	f := newRosterFixture(t)

	err := f.gameRepo.Atomic(context.Background(), func(repo game.Repository) error {
		if _, err := repo.Create(context.Background(), game.Game{
			Name:       "Fantasma",
			Location:   "Nenhum lugar",
			MaxPlayers: 5,
			GroupID:    f.group.ID,
		}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error from atomic block")
	}

	games, err := f.gameRepo.ListByGroup(context.Background(), f.group.ID)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("expected rollback to discard the game, got %d", len(games))
	}
}
