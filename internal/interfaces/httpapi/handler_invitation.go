package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/peladahub/pelada-api/internal/usecase"
)

type invitationItemRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

type createInvitationsRequest struct {
	Invitations []invitationItemRequest `json:"invitations" validate:"required,min=1,dive"`
}

type adminInvitationItemRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	GroupID int64  `json:"groupId" validate:"required,gt=0"`
}

type createAdminInvitationsRequest struct {
	Invitations []adminInvitationItemRequest `json:"invitations" validate:"required,min=1,dive"`
}

type skippedInvitationDTO struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	GroupID *int64 `json:"groupId,omitempty"`
}

type invitationBatchDTO struct {
	Created []invitationDTO        `json:"created"`
	Skipped []skippedInvitationDTO `json:"skipped"`
}

func toInvitationBatchDTO(batch usecase.InvitationBatch) invitationBatchDTO {
	created := make([]invitationDTO, 0, len(batch.Created))
	for _, item := range batch.Created {
		created = append(created, toInvitationDTO(item))
	}

	skipped := make([]skippedInvitationDTO, 0, len(batch.Skipped))
	for _, item := range batch.Skipped {
		skipped = append(skipped, skippedInvitationDTO{
			Email:   item.Email,
			Name:    item.Name,
			Reason:  item.Reason,
			GroupID: item.GroupID,
		})
	}

	return invitationBatchDTO{Created: created, Skipped: skipped}
}

func (h *Handler) CreateInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateInvitations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createInvitationsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]usecase.InvitationInput, 0, len(req.Invitations))
	for _, item := range req.Invitations {
		items = append(items, usecase.InvitationInput{Name: item.Name, Email: item.Email})
	}

	batch, err := h.invitationService.CreateBatch(ctx, items, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "create invitations failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toInvitationBatchDTO(batch))
}

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListInvitations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	invitations, err := h.invitationService.List(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]invitationDTO, 0, len(invitations))
	for _, item := range invitations {
		out = append(out, toInvitationDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) CreateAdminInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateAdminInvitations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createAdminInvitationsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]usecase.AdminInvitationInput, 0, len(req.Invitations))
	for _, item := range req.Invitations {
		items = append(items, usecase.AdminInvitationInput{
			Name:    item.Name,
			Email:   item.Email,
			GroupID: item.GroupID,
		})
	}

	batch, err := h.invitationService.CreateAdminBatch(ctx, items, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "create admin invitations failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toInvitationBatchDTO(batch))
}

func (h *Handler) ListAdminInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAdminInvitations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var groupID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("groupId")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: invalid groupId %q", usecase.ErrInvalidInput, raw))
			return
		}
		groupID = &parsed
	}

	invitations, err := h.invitationService.ListAdminInvitations(ctx, groupID, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]invitationDTO, 0, len(invitations))
	for _, item := range invitations {
		out = append(out, toInvitationDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
