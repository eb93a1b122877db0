package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/peladahub/pelada-api/internal/domain/game"
)

type gameState struct {
	games        map[int64]game.Game
	convocations map[int64]game.Convocation
	presences    map[int64]game.Presence

	nextGameID        int64
	nextConvocationID int64
	nextPresenceID    int64
}

// GameRepository is an in-memory game store. Atomic sections are serialized
// with the repository mutex and rolled back from a state snapshot on error,
// mirroring the transactional contract of the SQL implementation.
type GameRepository struct {
	mu    sync.Mutex
	state gameState
	now   func() time.Time
}

func NewGameRepository() *GameRepository {
	return &GameRepository{
		state: gameState{
			games:        make(map[int64]game.Game),
			convocations: make(map[int64]game.Convocation),
			presences:    make(map[int64]game.Presence),
		},
		now: time.Now,
	}
}

func (r *GameRepository) Atomic(ctx context.Context, fn func(game.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := cloneGameState(r.state)
	if err := fn(&gameTx{repo: r}); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *GameRepository) Create(ctx context.Context, item game.Game) (game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(item)
}

func (r *GameRepository) GetByID(ctx context.Context, id int64) (game.Game, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getByID(id)
}

func (r *GameRepository) GetAggregate(ctx context.Context, id int64) (game.Aggregate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getAggregate(id)
}

func (r *GameRepository) ListByGroup(ctx context.Context, groupID int64) ([]game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listByGroup(groupID)
}

func (r *GameRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delete(id)
}

func (r *GameRepository) GetConvocation(ctx context.Context, gameID, userID int64) (game.Convocation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getConvocation(gameID, userID)
}

func (r *GameRepository) CreateConvocations(ctx context.Context, gameID int64, userIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createConvocations(gameID, userIDs)
}

func (r *GameRepository) UpdateConvocation(ctx context.Context, item game.Convocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateConvocation(item)
}

func (r *GameRepository) DeleteConvocation(ctx context.Context, gameID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteConvocation(gameID, userID)
}

func (r *GameRepository) GetPresence(ctx context.Context, gameID, userID int64) (game.Presence, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getPresence(gameID, userID)
}

func (r *GameRepository) CreatePresence(ctx context.Context, item game.Presence) (game.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createPresence(item)
}

func (r *GameRepository) UpdatePresence(ctx context.Context, item game.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatePresence(item)
}

func (r *GameRepository) DeletePresence(ctx context.Context, gameID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletePresence(gameID, userID)
}

func (r *GameRepository) MaxQueuePosition(ctx context.Context, gameID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxQueuePosition(gameID)
}

func (r *GameRepository) OldestWaitingPresence(ctx context.Context, gameID int64) (game.Presence, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.oldestWaitingPresence(gameID)
}

func (r *GameRepository) NewestConfirmedAvulso(ctx context.Context, gameID int64) (game.Presence, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newestConfirmedAvulso(gameID)
}

// gameTx is the repository view handed to Atomic callbacks. The outer mutex
// is already held, so it delegates to the unlocked methods.
type gameTx struct {
	repo *GameRepository
}

func (t *gameTx) Atomic(ctx context.Context, fn func(game.Repository) error) error {
	return fn(t)
}

func (t *gameTx) Create(_ context.Context, item game.Game) (game.Game, error) {
	return t.repo.create(item)
}

func (t *gameTx) GetByID(_ context.Context, id int64) (game.Game, bool, error) {
	return t.repo.getByID(id)
}

func (t *gameTx) GetAggregate(_ context.Context, id int64) (game.Aggregate, bool, error) {
	return t.repo.getAggregate(id)
}

func (t *gameTx) ListByGroup(_ context.Context, groupID int64) ([]game.Game, error) {
	return t.repo.listByGroup(groupID)
}

func (t *gameTx) Delete(_ context.Context, id int64) error {
	return t.repo.delete(id)
}

func (t *gameTx) GetConvocation(_ context.Context, gameID, userID int64) (game.Convocation, bool, error) {
	return t.repo.getConvocation(gameID, userID)
}

func (t *gameTx) CreateConvocations(_ context.Context, gameID int64, userIDs []int64) error {
	return t.repo.createConvocations(gameID, userIDs)
}

func (t *gameTx) UpdateConvocation(_ context.Context, item game.Convocation) error {
	return t.repo.updateConvocation(item)
}

func (t *gameTx) DeleteConvocation(_ context.Context, gameID, userID int64) error {
	return t.repo.deleteConvocation(gameID, userID)
}

func (t *gameTx) GetPresence(_ context.Context, gameID, userID int64) (game.Presence, bool, error) {
	return t.repo.getPresence(gameID, userID)
}

func (t *gameTx) CreatePresence(_ context.Context, item game.Presence) (game.Presence, error) {
	return t.repo.createPresence(item)
}

func (t *gameTx) UpdatePresence(_ context.Context, item game.Presence) error {
	return t.repo.updatePresence(item)
}

func (t *gameTx) DeletePresence(_ context.Context, gameID, userID int64) error {
	return t.repo.deletePresence(gameID, userID)
}

func (t *gameTx) MaxQueuePosition(_ context.Context, gameID int64) (int, error) {
	return t.repo.maxQueuePosition(gameID)
}

func (t *gameTx) OldestWaitingPresence(_ context.Context, gameID int64) (game.Presence, bool, error) {
	return t.repo.oldestWaitingPresence(gameID)
}

func (t *gameTx) NewestConfirmedAvulso(_ context.Context, gameID int64) (game.Presence, bool, error) {
	return t.repo.newestConfirmedAvulso(gameID)
}

func (r *GameRepository) create(item game.Game) (game.Game, error) {
	r.state.nextGameID++
	item.ID = r.state.nextGameID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now().UTC()
	}
	r.state.games[item.ID] = item
	return item, nil
}

func (r *GameRepository) getByID(id int64) (game.Game, bool, error) {
	item, ok := r.state.games[id]
	return item, ok, nil
}

func (r *GameRepository) getAggregate(id int64) (game.Aggregate, bool, error) {
	g, ok := r.state.games[id]
	if !ok {
		return game.Aggregate{}, false, nil
	}

	agg := game.Aggregate{Game: g}
	for _, conv := range r.state.convocations {
		if conv.GameID == id {
			agg.Convocations = append(agg.Convocations, conv)
		}
	}
	for _, presence := range r.state.presences {
		if presence.GameID == id {
			agg.Presences = append(agg.Presences, presence)
		}
	}
	sort.Slice(agg.Convocations, func(i, j int) bool { return agg.Convocations[i].ID < agg.Convocations[j].ID })
	sort.Slice(agg.Presences, func(i, j int) bool { return agg.Presences[i].ID < agg.Presences[j].ID })
	return agg, true, nil
}

func (r *GameRepository) listByGroup(groupID int64) ([]game.Game, error) {
	out := make([]game.Game, 0)
	for _, g := range r.state.games {
		if g.GroupID == groupID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GameRepository) delete(id int64) error {
	delete(r.state.games, id)
	for convID, conv := range r.state.convocations {
		if conv.GameID == id {
			delete(r.state.convocations, convID)
		}
	}
	for presenceID, presence := range r.state.presences {
		if presence.GameID == id {
			delete(r.state.presences, presenceID)
		}
	}
	return nil
}

func (r *GameRepository) getConvocation(gameID, userID int64) (game.Convocation, bool, error) {
	for _, conv := range r.state.convocations {
		if conv.GameID == gameID && conv.UserID == userID {
			return conv, true, nil
		}
	}
	return game.Convocation{}, false, nil
}

func (r *GameRepository) createConvocations(gameID int64, userIDs []int64) error {
	now := r.now().UTC()
	for _, userID := range userIDs {
		r.state.nextConvocationID++
		r.state.convocations[r.state.nextConvocationID] = game.Convocation{
			ID:        r.state.nextConvocationID,
			GameID:    gameID,
			UserID:    userID,
			Status:    game.ConvocationPending,
			CreatedAt: now,
		}
	}
	return nil
}

func (r *GameRepository) updateConvocation(item game.Convocation) error {
	if _, ok := r.state.convocations[item.ID]; !ok {
		return nil
	}
	r.state.convocations[item.ID] = item
	return nil
}

func (r *GameRepository) deleteConvocation(gameID, userID int64) error {
	for convID, conv := range r.state.convocations {
		if conv.GameID == gameID && conv.UserID == userID {
			delete(r.state.convocations, convID)
		}
	}
	return nil
}

func (r *GameRepository) getPresence(gameID, userID int64) (game.Presence, bool, error) {
	for _, presence := range r.state.presences {
		if presence.GameID == gameID && presence.UserID == userID {
			return presence, true, nil
		}
	}
	return game.Presence{}, false, nil
}

func (r *GameRepository) createPresence(item game.Presence) (game.Presence, error) {
	r.state.nextPresenceID++
	item.ID = r.state.nextPresenceID
	if item.JoinedAt.IsZero() {
		item.JoinedAt = r.now().UTC()
	}
	r.state.presences[item.ID] = item
	return item, nil
}

func (r *GameRepository) updatePresence(item game.Presence) error {
	if _, ok := r.state.presences[item.ID]; !ok {
		return nil
	}
	r.state.presences[item.ID] = item
	return nil
}

func (r *GameRepository) deletePresence(gameID, userID int64) error {
	for presenceID, presence := range r.state.presences {
		if presence.GameID == gameID && presence.UserID == userID {
			delete(r.state.presences, presenceID)
		}
	}
	return nil
}

func (r *GameRepository) maxQueuePosition(gameID int64) (int, error) {
	maxPosition := 0
	for _, presence := range r.state.presences {
		if presence.GameID == gameID && presence.QueuePosition != nil && *presence.QueuePosition > maxPosition {
			maxPosition = *presence.QueuePosition
		}
	}
	return maxPosition, nil
}

func (r *GameRepository) oldestWaitingPresence(gameID int64) (game.Presence, bool, error) {
	var best game.Presence
	found := false
	for _, presence := range r.state.presences {
		if presence.GameID != gameID || presence.Status != game.PresenceWaiting {
			continue
		}
		if !found || waitingBefore(presence, best) {
			best = presence
			found = true
		}
	}
	return best, found, nil
}

func (r *GameRepository) newestConfirmedAvulso(gameID int64) (game.Presence, bool, error) {
	var best game.Presence
	found := false
	for _, presence := range r.state.presences {
		if presence.GameID != gameID || presence.Role != game.PresenceRoleAvulso || presence.Status != game.PresenceConfirmed {
			continue
		}
		if !found || queuedAfter(presence, best) {
			best = presence
			found = true
		}
	}
	return best, found, nil
}

// waitingBefore orders by queue position ascending with unqueued rows last,
// then by join time.
func waitingBefore(a, b game.Presence) bool {
	ap, bp := presencePosition(a), presencePosition(b)
	if ap != bp {
		return ap < bp
	}
	return a.JoinedAt.Before(b.JoinedAt)
}

// queuedAfter orders by queue position descending, then by join time.
func queuedAfter(a, b game.Presence) bool {
	ap, bp := presencePosition(a), presencePosition(b)
	if ap != bp {
		return ap > bp
	}
	return a.JoinedAt.After(b.JoinedAt)
}

func presencePosition(p game.Presence) int {
	if p.QueuePosition == nil {
		return 1 << 30
	}
	return *p.QueuePosition
}

func cloneGameState(state gameState) gameState {
	copied := gameState{
		games:             make(map[int64]game.Game, len(state.games)),
		convocations:      make(map[int64]game.Convocation, len(state.convocations)),
		presences:         make(map[int64]game.Presence, len(state.presences)),
		nextGameID:        state.nextGameID,
		nextConvocationID: state.nextConvocationID,
		nextPresenceID:    state.nextPresenceID,
	}
	for id, item := range state.games {
		copied.games[id] = item
	}
	for id, item := range state.convocations {
		copied.convocations[id] = item
	}
	for id, item := range state.presences {
		copied.presences[id] = item
	}
	return copied
}
