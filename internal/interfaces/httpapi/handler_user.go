package httpapi

import (
	"fmt"
	"net/http"

	"github.com/peladahub/pelada-api/internal/domain/user"
	"github.com/peladahub/pelada-api/internal/usecase"
)

type updateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=mensalista avulso"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUsers")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	users, err := h.userService.List(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateUserStatus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateUserStatusRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.UpdateStatus(ctx, userID, user.Status(req.Status), principal)
	if err != nil {
		h.logger.WarnContext(ctx, "update user status failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toUserDTO(updated))
}
