package usecase

import (
	"errors"
	"testing"

	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/infrastructure/repository/memory"
)

func TestUserService_UpdateStatus(t *testing.T) {
	userRepo := memory.NewUserRepository()
	groupRepo := memory.NewGroupRepository()
	svc := NewUserService(userRepo)

	g, err := groupRepo.Create(t.Context(), group.Group{Name: "Pelada de Quarta"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	admin, err := userRepo.Create(t.Context(), user.User{
		Name: "Carla", Email: "carla@pelada.example.com",
		Role: user.RoleAdmin, Status: user.StatusMensalista, IsActive: true, GroupID: &g.ID,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	member, err := userRepo.Create(t.Context(), user.User{
		Name: "Rafa", Email: "rafa@pelada.example.com",
		Role: user.RoleUser, Status: user.StatusAvulso, IsActive: true, GroupID: &g.ID,
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	updated, err := svc.UpdateStatus(t.Context(), member.ID, user.StatusMensalista, principalFor(admin))
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != user.StatusMensalista {
		t.Fatalf("expected mensalista, got %s", updated.Status)
	}

	// No-op when the status is already set.
	if _, err := svc.UpdateStatus(t.Context(), member.ID, user.StatusMensalista, principalFor(admin)); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}

	if _, err := svc.UpdateStatus(t.Context(), member.ID, "titular", principalFor(admin)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := svc.UpdateStatus(t.Context(), 999, user.StatusAvulso, principalFor(admin)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateStatus(t.Context(), admin.ID, user.StatusAvulso, principalFor(member)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for non-admin, got %v", err)
	}
}

func TestUserService_UpdateStatus_OtherGroup(t *testing.T) {
	userRepo := memory.NewUserRepository()
	groupRepo := memory.NewGroupRepository()
	svc := NewUserService(userRepo)

	g1, _ := groupRepo.Create(t.Context(), group.Group{Name: "Quarta"})
	g2, _ := groupRepo.Create(t.Context(), group.Group{Name: "Domingo"})

	admin, err := userRepo.Create(t.Context(), user.User{
		Name: "Carla", Email: "carla@pelada.example.com",
		Role: user.RoleAdmin, IsActive: true, GroupID: &g1.ID,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	outsider, err := userRepo.Create(t.Context(), user.User{
		Name: "Fora", Email: "fora@pelada.example.com",
		Role: user.RoleUser, IsActive: true, GroupID: &g2.ID,
	})
	if err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	if _, err := svc.UpdateStatus(t.Context(), outsider.ID, user.StatusMensalista, principalFor(admin)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied across groups, got %v", err)
	}
}

func TestUserService_List_ScopedToOwnGroup(t *testing.T) {
	userRepo := memory.NewUserRepository()
	groupRepo := memory.NewGroupRepository()
	svc := NewUserService(userRepo)

	g1, _ := groupRepo.Create(t.Context(), group.Group{Name: "Quarta"})
	g2, _ := groupRepo.Create(t.Context(), group.Group{Name: "Domingo"})

	admin, err := userRepo.Create(t.Context(), user.User{
		Name: "Carla", Email: "carla@pelada.example.com",
		Role: user.RoleAdmin, IsActive: true, GroupID: &g1.ID,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := userRepo.Create(t.Context(), user.User{
		Name: "Fora", Email: "fora@pelada.example.com",
		Role: user.RoleUser, IsActive: true, GroupID: &g2.ID,
	}); err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	users, err := svc.List(t.Context(), principalFor(admin))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].ID != admin.ID {
		t.Fatalf("expected only own group members, got %+v", users)
	}
}
