package game

import (
	"testing"
	"time"
)

func TestBuildSnapshot_ConvocationOrdering(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	names := map[int64]string{
		1: "zeca",
		2: "Ana",
		3: "bruno",
	}

	agg := Aggregate{
		Game: Game{MaxPlayers: 10},
		Convocations: []Convocation{
			{UserID: 1, Status: ConvocationPending},
			{UserID: 2, Status: ConvocationPending},
			{UserID: 3, Status: ConvocationConfirmed},
		},
	}

	snapshot := BuildSnapshot(agg, names, now)

	got := make([]int64, 0, len(snapshot.Convocations))
	for _, c := range snapshot.Convocations {
		got = append(got, c.UserID)
	}

	// Confirmed first, then case-insensitive name order.
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected convocation order: got %v want %v", got, want)
		}
	}
}

func TestBuildSnapshot_PresenceOrdering(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pos := func(n int) *int { return &n }

	agg := Aggregate{
		Game: Game{MaxPlayers: 10},
		Presences: []Presence{
			{UserID: 1, Role: PresenceRoleAvulso, Status: PresenceWaiting, QueuePosition: pos(5), JoinedAt: now},
			{UserID: 2, Role: PresenceRoleAvulso, Status: PresenceConfirmed, QueuePosition: pos(1), JoinedAt: now},
			{UserID: 3, Role: PresenceRoleConvoked, Status: PresenceConfirmed, JoinedAt: now},
			{UserID: 4, Role: PresenceRoleAvulso, Status: PresenceWaiting, QueuePosition: pos(2), JoinedAt: now},
			{UserID: 5, Role: PresenceRoleAvulso, Status: PresenceDeclined, JoinedAt: now},
		},
	}

	snapshot := BuildSnapshot(agg, nil, now)

	got := make([]int64, 0, len(snapshot.Presences))
	for _, p := range snapshot.Presences {
		got = append(got, p.UserID)
	}

	// Convoked before avulso, confirmed before waiting before declined,
	// waiting ordered by queue position.
	want := []int64{3, 2, 4, 1, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected presence order: got %v want %v", got, want)
		}
	}
}

func TestBuildSnapshot_DoesNotMutateAggregate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	agg := Aggregate{
		Game: Game{MaxPlayers: 2},
		Presences: []Presence{
			{UserID: 2, Role: PresenceRoleAvulso, Status: PresenceWaiting, JoinedAt: now},
			{UserID: 1, Role: PresenceRoleConvoked, Status: PresenceConfirmed, JoinedAt: now},
		},
	}

	_ = BuildSnapshot(agg, nil, now)

	if agg.Presences[0].UserID != 2 {
		t.Fatalf("aggregate presence slice was reordered")
	}
}
