package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/peladahub/pelada-api/internal/usecase"
)

type createGameRequest struct {
	Name                   string     `json:"name" validate:"required,max=120"`
	Location               string     `json:"location" validate:"required,max=200"`
	ScheduledAt            time.Time  `json:"scheduledAt" validate:"required"`
	MaxPlayers             int        `json:"maxPlayers" validate:"required,gt=0"`
	ConvocationDeadline    *time.Time `json:"convocationDeadline,omitempty"`
	AutoConvokeMensalistas bool       `json:"autoConvokeMensalistas"`
	GroupID                *int64     `json:"groupId,omitempty" validate:"omitempty,gt=0"`
	ConvocationUserIDs     []int64    `json:"convocationUserIds,omitempty" validate:"omitempty,dive,gt=0"`
}

type assignConvocationsRequest struct {
	UserIDs []int64 `json:"userIds" validate:"required,dive,gt=0"`
}

type confirmConvocationResponse struct {
	Presence         presenceDTO `json:"presence"`
	DisplacedUserIDs []int64     `json:"displacedUserIds"`
}

type promotedResponse struct {
	PromotedUserIDs []int64 `json:"promotedUserIds"`
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGame")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createGameRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.rosterService.CreateGame(ctx, usecase.CreateGameInput{
		Name:                   req.Name,
		Location:               req.Location,
		ScheduledAt:            req.ScheduledAt,
		MaxPlayers:             req.MaxPlayers,
		ConvocationDeadline:    req.ConvocationDeadline,
		AutoConvokeMensalistas: req.AutoConvokeMensalistas,
		GroupID:                req.GroupID,
		ConvocationUserIDs:     req.ConvocationUserIDs,
		Principal:              principal,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create game failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toGameDTO(created))
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	games, err := h.rosterService.ListGames(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]gameDTO, 0, len(games))
	for _, g := range games {
		out = append(out, toGameDTO(g))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetGameSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameSnapshot")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.rosterService.GetSnapshot(ctx, gameID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toGameSnapshotDTO(snapshot))
}

func (h *Handler) AssignConvocations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignConvocations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req assignConvocationsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := h.rosterService.AssignConvocations(ctx, gameID, req.UserIDs, principal); err != nil {
		h.logger.WarnContext(ctx, "assign convocations failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.rosterService.GetSnapshot(ctx, gameID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toGameSnapshotDTO(snapshot))
}

func (h *Handler) ConfirmConvocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmConvocation")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	presence, displaced, err := h.rosterService.ConfirmConvocation(ctx, gameID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, confirmConvocationResponse{
		Presence:         toPresenceDTO(presence, nil),
		DisplacedUserIDs: userIDs(displaced),
	})
}

func (h *Handler) DeclineConvocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeclineConvocation")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	promoted, err := h.rosterService.DeclineConvocation(ctx, gameID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, promotedResponse{PromotedUserIDs: userIDs(promoted)})
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinGame")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	presence, err := h.rosterService.JoinAsAvulso(ctx, gameID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toPresenceDTO(presence, nil))
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteGame")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.rosterService.DeleteGame(ctx, gameID, principal); err != nil {
		h.logger.WarnContext(ctx, "delete game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"message": "game deleted"})
}

func (h *Handler) RemovePresence(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemovePresence")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	targetUserID, err := pathID(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	promoted, err := h.rosterService.RemovePresence(ctx, gameID, &targetUserID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, promotedResponse{PromotedUserIDs: userIDs(promoted)})
}
