package game

import (
	"sort"
	"strings"
	"time"
)

// Presences that are not waiting sort after every queued one.
const unqueuedSortPosition = 1_000_000_000

// Snapshot is a read-only projection of a game's roster with display
// ordering applied and slot counts computed.
type Snapshot struct {
	Game         Game
	Slots        SlotSummary
	Convocations []Convocation
	Presences    []Presence
}

// BuildSnapshot sorts the aggregate for display. Convocations come confirmed
// first, then by user name case-insensitively. Presences come convoked before
// avulso, then by status (confirmed, waiting, declined, other), then queue
// position for waiting rows, then join time.
func BuildSnapshot(agg Aggregate, userNameByID map[int64]string, now time.Time) Snapshot {
	convocations := append([]Convocation(nil), agg.Convocations...)
	sort.SliceStable(convocations, func(i, j int) bool {
		a, b := convocations[i], convocations[j]
		ap, bp := convocationSortPriority(a), convocationSortPriority(b)
		if ap != bp {
			return ap < bp
		}
		return strings.ToLower(userNameByID[a.UserID]) < strings.ToLower(userNameByID[b.UserID])
	})

	presences := append([]Presence(nil), agg.Presences...)
	sort.SliceStable(presences, func(i, j int) bool {
		a, b := presences[i], presences[j]
		if ar, br := presenceRolePriority(a.Role), presenceRolePriority(b.Role); ar != br {
			return ar < br
		}
		if as, bs := presenceStatusPriority(a.Status), presenceStatusPriority(b.Status); as != bs {
			return as < bs
		}
		if aq, bq := presenceQueueOrder(a), presenceQueueOrder(b); aq != bq {
			return aq < bq
		}
		return a.JoinedAt.Before(b.JoinedAt)
	})

	return Snapshot{
		Game:         agg.Game,
		Slots:        ComputeSlots(agg, now),
		Convocations: convocations,
		Presences:    presences,
	}
}

func convocationSortPriority(c Convocation) int {
	if c.Status == ConvocationConfirmed {
		return 0
	}
	return 1
}

func presenceRolePriority(role PresenceRole) int {
	if role == PresenceRoleConvoked {
		return 0
	}
	return 1
}

func presenceStatusPriority(status PresenceStatus) int {
	switch status {
	case PresenceConfirmed:
		return 0
	case PresenceWaiting:
		return 1
	case PresenceDeclined:
		return 2
	default:
		return 3
	}
}

func presenceQueueOrder(p Presence) int {
	if p.Status == PresenceWaiting && p.QueuePosition != nil {
		return *p.QueuePosition
	}
	return unqueuedSortPosition
}
