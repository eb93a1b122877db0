package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/peladahub/pelada-api/internal/usecase"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	GroupID  int64  `json:"groupId" validate:"required,gt=0"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        userDTO   `json:"user"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type registerInvitedRequest struct {
	Token             string  `json:"token" validate:"required"`
	Password          string  `json:"password" validate:"required,min=6"`
	PreferredPosition *string `json:"preferredPosition,omitempty" validate:"omitempty,max=60"`
}

type invitationTokenInfoDTO struct {
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	ExpiresAt        time.Time `json:"expiresAt"`
	GroupID          int64     `json:"groupId"`
	GroupName        string    `json:"groupName"`
	GroupDescription *string   `json:"groupDescription,omitempty"`
	Role             string    `json:"role"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Register")
	defer span.End()

	var req registerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.accountService.Register(ctx, usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		GroupID:  req.GroupID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register failed", "email", req.Email, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toUserDTO(created))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	out, err := h.accountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, loginResponse{
		AccessToken: out.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   out.ExpiresAt,
		User:        toUserDTO(out.User),
	})
}

func (h *Handler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmAccount")
	defer span.End()

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(ctx, w, fmt.Errorf("%w: missing token query parameter", usecase.ErrInvalidInput))
		return
	}

	confirmed, confirmedNow, err := h.accountService.Confirm(ctx, token)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	message := "account already confirmed"
	if confirmedNow {
		message = "account confirmed"
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"message": message,
		"user":    toUserDTO(confirmed),
	})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForgotPassword")
	defer span.End()

	var req forgotPasswordRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.accountService.ForgotPassword(ctx, req.Email); err != nil {
		writeError(ctx, w, err)
		return
	}

	// Deliberately the same answer whether or not the email exists.
	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"message": "if the email is registered, a reset link was sent",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetPassword")
	defer span.End()

	var req resetPasswordRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.accountService.ResetPassword(ctx, req.Token, req.Password); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) GetInvitationByToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetInvitationByToken")
	defer span.End()

	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		writeError(ctx, w, fmt.Errorf("%w: missing invitation token", usecase.ErrInvalidInput))
		return
	}

	info, err := h.invitationService.TokenInfo(ctx, token)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, invitationTokenInfoDTO{
		Name:             info.Name,
		Email:            info.Email,
		ExpiresAt:        info.ExpiresAt,
		GroupID:          info.GroupID,
		GroupName:        info.GroupName,
		GroupDescription: info.GroupDescription,
		Role:             string(info.Role),
	})
}

func (h *Handler) RegisterInvited(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterInvited")
	defer span.End()

	var req registerInvitedRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.invitationService.RegisterInvited(ctx, usecase.RegisterInvitedInput{
		Token:             req.Token,
		Password:          req.Password,
		PreferredPosition: req.PreferredPosition,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toUserDTO(created))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Me")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	current, err := h.accountService.CurrentUser(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toUserDTO(current))
}
