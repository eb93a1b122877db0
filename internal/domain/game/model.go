package game

import "time"

type ConvocationStatus string

const (
	ConvocationPending   ConvocationStatus = "pending"
	ConvocationConfirmed ConvocationStatus = "confirmed"
	ConvocationDeclined  ConvocationStatus = "declined"
)

type PresenceRole string

const (
	PresenceRoleConvoked PresenceRole = "convoked"
	PresenceRoleAvulso   PresenceRole = "avulso"
)

type PresenceStatus string

const (
	PresenceConfirmed PresenceStatus = "confirmed"
	PresenceWaiting   PresenceStatus = "waiting"
	PresenceDeclined  PresenceStatus = "declined"
)

// Game is a scheduled match with a fixed number of seats. Capacity and the
// convocation deadline are set at creation; only roster state changes after.
type Game struct {
	ID                     int64
	Name                   string
	Location               string
	ScheduledAt            time.Time
	MaxPlayers             int
	ConvocationDeadline    *time.Time
	AutoConvokeMensalistas bool
	OwnerID                *int64
	GroupID                int64
	CreatedAt              time.Time
}

// Convocation is an explicit call-up of one user to one game, distinct from
// seat occupancy. At most one per (game, user).
type Convocation struct {
	ID          int64
	GameID      int64
	UserID      int64
	Status      ConvocationStatus
	RespondedAt *time.Time
	CreatedAt   time.Time
}

// Pending reports whether the convocation still awaits a response.
func (c Convocation) Pending() bool {
	return c.Status == ConvocationPending
}

// Presence is a seat record: confirmed occupancy or a waitlist placeholder.
// QueuePosition is a monotonic join-sequence number assigned at sign-up and
// never renumbered; among waiting presences it defines promotion order.
type Presence struct {
	ID            int64
	GameID        int64
	UserID        int64
	Role          PresenceRole
	Status        PresenceStatus
	QueuePosition *int
	JoinedAt      time.Time
}

// Aggregate is a game with its convocations and presences fully loaded, the
// unit slot accounting and snapshots operate on.
type Aggregate struct {
	Game         Game
	Convocations []Convocation
	Presences    []Presence
}
