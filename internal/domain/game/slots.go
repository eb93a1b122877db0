package game

import "time"

// SlotSummary is the seat arithmetic for one game at one instant.
type SlotSummary struct {
	Used      int
	Reserved  int
	Available int
}

// ComputeSlots counts confirmed presences as used seats and pending,
// non-expired convocations as reserved seats. A pending convocation stops
// holding a seat the moment the game's deadline passes; the convocation row
// itself is never auto-expired, the hold just falls out of the count.
// Available never goes below zero.
func ComputeSlots(agg Aggregate, now time.Time) SlotSummary {
	used := 0
	for _, p := range agg.Presences {
		if p.Status == PresenceConfirmed {
			used++
		}
	}

	deadline := agg.Game.ConvocationDeadline
	deadlineOpen := deadline == nil || deadline.After(now)

	reserved := 0
	if deadlineOpen {
		for _, c := range agg.Convocations {
			if c.Pending() {
				reserved++
			}
		}
	}

	available := agg.Game.MaxPlayers - used - reserved
	if available < 0 {
		available = 0
	}

	return SlotSummary{Used: used, Reserved: reserved, Available: available}
}
