package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/peladahub/pelada-api/internal/domain/game"
	"github.com/peladahub/pelada-api/internal/domain/group"
	"github.com/peladahub/pelada-api/internal/domain/invitation"
	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/platform/logging"
	"github.com/peladahub/pelada-api/internal/usecase"
)

type Handler struct {
	accountService    *usecase.AccountService
	invitationService *usecase.InvitationService
	groupService      *usecase.GroupService
	userService       *usecase.UserService
	rosterService     *usecase.RosterService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	accountService *usecase.AccountService,
	invitationService *usecase.InvitationService,
	groupService *usecase.GroupService,
	userService *usecase.UserService,
	rosterService *usecase.RosterService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Handler{
		accountService:    accountService,
		invitationService: invitationService,
		groupService:      groupService,
		userService:       userService,
		rosterService:     rosterService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.decodeRequest")
	defer span.End()

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, name, raw)
	}
	return id, nil
}

type userDTO struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Status            string    `json:"status"`
	IsActive          bool      `json:"isActive"`
	PreferredPosition *string   `json:"preferredPosition,omitempty"`
	GroupID           *int64    `json:"groupId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toUserDTO(u user.User) userDTO {
	return userDTO{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              string(u.Role),
		Status:            string(u.Status),
		IsActive:          u.IsActive,
		PreferredPosition: u.PreferredPosition,
		GroupID:           u.GroupID,
		CreatedAt:         u.CreatedAt,
	}
}

type groupDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toGroupDTO(g group.Group) groupDTO {
	return groupDTO{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
}

type gameDTO struct {
	ID                     int64      `json:"id"`
	Name                   string     `json:"name"`
	Location               string     `json:"location"`
	ScheduledAt            time.Time  `json:"scheduledAt"`
	MaxPlayers             int        `json:"maxPlayers"`
	ConvocationDeadline    *time.Time `json:"convocationDeadline,omitempty"`
	AutoConvokeMensalistas bool       `json:"autoConvokeMensalistas"`
	OwnerID                *int64     `json:"ownerId,omitempty"`
	GroupID                int64      `json:"groupId"`
	CreatedAt              time.Time  `json:"createdAt"`
}

func toGameDTO(g game.Game) gameDTO {
	return gameDTO{
		ID:                     g.ID,
		Name:                   g.Name,
		Location:               g.Location,
		ScheduledAt:            g.ScheduledAt,
		MaxPlayers:             g.MaxPlayers,
		ConvocationDeadline:    g.ConvocationDeadline,
		AutoConvokeMensalistas: g.AutoConvokeMensalistas,
		OwnerID:                g.OwnerID,
		GroupID:                g.GroupID,
		CreatedAt:              g.CreatedAt,
	}
}

type slotSummaryDTO struct {
	Used      int `json:"used"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

type convocationDTO struct {
	ID          int64      `json:"id"`
	GameID      int64      `json:"gameId"`
	UserID      int64      `json:"userId"`
	UserName    string     `json:"userName,omitempty"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toConvocationDTO(c game.Convocation, users map[int64]user.User) convocationDTO {
	return convocationDTO{
		ID:          c.ID,
		GameID:      c.GameID,
		UserID:      c.UserID,
		UserName:    users[c.UserID].Name,
		Status:      string(c.Status),
		RespondedAt: c.RespondedAt,
		CreatedAt:   c.CreatedAt,
	}
}

type presenceDTO struct {
	ID            int64     `json:"id"`
	GameID        int64     `json:"gameId"`
	UserID        int64     `json:"userId"`
	UserName      string    `json:"userName,omitempty"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	QueuePosition *int      `json:"queuePosition,omitempty"`
	JoinedAt      time.Time `json:"joinedAt"`
}

func toPresenceDTO(p game.Presence, users map[int64]user.User) presenceDTO {
	return presenceDTO{
		ID:            p.ID,
		GameID:        p.GameID,
		UserID:        p.UserID,
		UserName:      users[p.UserID].Name,
		Role:          string(p.Role),
		Status:        string(p.Status),
		QueuePosition: p.QueuePosition,
		JoinedAt:      p.JoinedAt,
	}
}

type gameSnapshotDTO struct {
	Game         gameDTO          `json:"game"`
	Slots        slotSummaryDTO   `json:"slots"`
	Convocations []convocationDTO `json:"convocations"`
	Presences    []presenceDTO    `json:"presences"`
}

func toGameSnapshotDTO(snapshot usecase.GameSnapshot) gameSnapshotDTO {
	convocations := make([]convocationDTO, 0, len(snapshot.Snapshot.Convocations))
	for _, c := range snapshot.Snapshot.Convocations {
		convocations = append(convocations, toConvocationDTO(c, snapshot.Users))
	}

	presences := make([]presenceDTO, 0, len(snapshot.Snapshot.Presences))
	for _, p := range snapshot.Snapshot.Presences {
		presences = append(presences, toPresenceDTO(p, snapshot.Users))
	}

	return gameSnapshotDTO{
		Game: toGameDTO(snapshot.Snapshot.Game),
		Slots: slotSummaryDTO{
			Used:      snapshot.Snapshot.Slots.Used,
			Reserved:  snapshot.Snapshot.Slots.Reserved,
			Available: snapshot.Snapshot.Slots.Available,
		},
		Convocations: convocations,
		Presences:    presences,
	}
}

type invitationDTO struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Token      string     `json:"token"`
	Status     string     `json:"status"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	UserID     *int64     `json:"userId,omitempty"`
	GroupID    int64      `json:"groupId"`
	Role       string     `json:"role"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toInvitationDTO(i invitation.Invitation) invitationDTO {
	return invitationDTO{
		ID:         i.ID,
		Name:       i.Name,
		Email:      i.Email,
		Token:      i.Token,
		Status:     string(i.Status),
		ExpiresAt:  i.ExpiresAt,
		AcceptedAt: i.AcceptedAt,
		UserID:     i.UserID,
		GroupID:    i.GroupID,
		Role:       string(i.Role),
		CreatedAt:  i.CreatedAt,
	}
}

func userIDs(presences []game.Presence) []int64 {
	ids := make([]int64, 0, len(presences))
	for _, p := range presences {
		ids = append(ids, p.UserID)
	}
	return ids
}
