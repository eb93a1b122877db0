package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/invitation"
)

type InvitationRepository struct {
	mu     sync.RWMutex
	items  map[int64]invitation.Invitation
	nextID int64
}

func NewInvitationRepository() *InvitationRepository {
	return &InvitationRepository{items: make(map[int64]invitation.Invitation)}
}

func (r *InvitationRepository) GetByToken(_ context.Context, token string) (invitation.Invitation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return invitation.Invitation{}, false, nil
	}
	for _, item := range r.items {
		if item.Token == token {
			return item, true, nil
		}
	}
	return invitation.Invitation{}, false, nil
}

func (r *InvitationRepository) List(_ context.Context, filter invitation.ListFilter) ([]invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitation.Invitation, 0)
	for _, item := range r.items {
		if filter.GroupID != nil && item.GroupID != *filter.GroupID {
			continue
		}
		if filter.Role != nil && item.Role != *filter.Role {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *InvitationRepository) ListPendingByEmail(_ context.Context, email string, groupID *int64) ([]invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	out := make([]invitation.Invitation, 0)
	for _, item := range r.items {
		if strings.ToLower(item.Email) != email || item.Status != invitation.StatusPending {
			continue
		}
		if groupID != nil && item.GroupID != *groupID {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InvitationRepository) Create(_ context.Context, item invitation.Invitation) (invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	r.items[item.ID] = item
	return item, nil
}

func (r *InvitationRepository) Update(_ context.Context, item invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("invitation %d not found", item.ID)
	}
	r.items[item.ID] = item
	return nil
}
