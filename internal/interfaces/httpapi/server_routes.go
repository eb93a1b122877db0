package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.HandleFunc("POST /auth/register", handler.Register)
	mux.HandleFunc("POST /auth/login", handler.Login)
	mux.HandleFunc("GET /auth/confirm", handler.ConfirmAccount)
	mux.HandleFunc("POST /auth/forgot-password", handler.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", handler.ResetPassword)
	mux.HandleFunc("GET /auth/invitations/{token}", handler.GetInvitationByToken)
	mux.HandleFunc("POST /auth/register-invited", handler.RegisterInvited)
	mux.Handle("GET /auth/me", RequireAuth(verifier, http.HandlerFunc(handler.Me)))
}

func registerGroupRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.HandleFunc("GET /v1/groups", handler.ListGroups)
	mux.Handle("POST /v1/groups", RequireAuth(verifier, http.HandlerFunc(handler.CreateGroup)))
}

func registerUserRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/users", RequireAuth(verifier, http.HandlerFunc(handler.ListUsers)))
	mux.Handle("PATCH /v1/users/{userID}/status", RequireAuth(verifier, http.HandlerFunc(handler.UpdateUserStatus)))
}

func registerInvitationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/admin/invitations", RequireAuth(verifier, http.HandlerFunc(handler.CreateInvitations)))
	mux.Handle("GET /v1/admin/invitations", RequireAuth(verifier, http.HandlerFunc(handler.ListInvitations)))
	mux.Handle("POST /v1/superadmin/invitations", RequireAuth(verifier, http.HandlerFunc(handler.CreateAdminInvitations)))
	mux.Handle("GET /v1/superadmin/invitations", RequireAuth(verifier, http.HandlerFunc(handler.ListAdminInvitations)))
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/games", RequireAuth(verifier, http.HandlerFunc(handler.CreateGame)))
	mux.Handle("GET /v1/games", RequireAuth(verifier, http.HandlerFunc(handler.ListGames)))
	mux.Handle("GET /v1/games/{gameID}", RequireAuth(verifier, http.HandlerFunc(handler.GetGameSnapshot)))
	mux.Handle("DELETE /v1/games/{gameID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteGame)))
	mux.Handle("POST /v1/games/{gameID}/convocations", RequireAuth(verifier, http.HandlerFunc(handler.AssignConvocations)))
	mux.Handle("POST /v1/games/{gameID}/confirm", RequireAuth(verifier, http.HandlerFunc(handler.ConfirmConvocation)))
	mux.Handle("POST /v1/games/{gameID}/decline", RequireAuth(verifier, http.HandlerFunc(handler.DeclineConvocation)))
	mux.Handle("POST /v1/games/{gameID}/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinGame)))
	mux.Handle("DELETE /v1/games/{gameID}/presences/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RemovePresence)))
}
