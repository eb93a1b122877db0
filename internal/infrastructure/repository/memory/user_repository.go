package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/user"
)

type UserRepository struct {
	mu     sync.RWMutex
	items  map[int64]user.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[int64]user.User)}
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, item := range r.items {
		if strings.ToLower(item.Email) == email {
			return item, true, nil
		}
	}
	return user.User{}, false, nil
}

func (r *UserRepository) GetByConfirmationToken(_ context.Context, token string) (user.User, bool, error) {
	return r.findByToken(func(item user.User) *string { return item.ConfirmationToken }, token)
}

func (r *UserRepository) GetByLastConfirmationToken(_ context.Context, token string) (user.User, bool, error) {
	return r.findByToken(func(item user.User) *string { return item.LastConfirmationToken }, token)
}

func (r *UserRepository) GetByResetToken(_ context.Context, token string) (user.User, bool, error) {
	return r.findByToken(func(item user.User) *string { return item.ResetToken }, token)
}

func (r *UserRepository) List(_ context.Context, filter user.ListFilter) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0)
	for _, item := range r.items {
		if filter.GroupID != nil && (item.GroupID == nil || *item.GroupID != *filter.GroupID) {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *UserRepository) ListByIDs(_ context.Context, ids []int64) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, item user.User) (user.User, error) {
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

func (r *UserRepository) Update(_ context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("user %d not found", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *UserRepository) findByToken(field func(user.User) *string, token string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return user.User{}, false, nil
	}
	for _, item := range r.items {
		if value := field(item); value != nil && *value == token {
			return item, true, nil
		}
	}
	return user.User{}, false, nil
}
