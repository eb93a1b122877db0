package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/group"
)

type GroupRepository struct {
	mu     sync.RWMutex
	items  map[int64]group.Group
	nextID int64
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{items: make(map[int64]group.Group)}
}

func (r *GroupRepository) GetByID(_ context.Context, id int64) (group.Group, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok, nil
}

func (r *GroupRepository) GetByName(_ context.Context, name string) (group.Group, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Name == name {
			return item, true, nil
		}
	}
	return group.Group{}, false, nil
}

func (r *GroupRepository) List(_ context.Context) ([]group.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]group.Group, 0, len(r.items))
	for _, item := range r.items {
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

func (r *GroupRepository) Create(_ context.Context, item group.Group) (group.Group, error) {
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
