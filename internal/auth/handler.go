package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/shared"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	authenticator *Authenticator
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authenticator *Authenticator) *Handler {
	return &Handler{logger: logger, service: service, authenticator: authenticator}
}

// MountRoutes registers auth routes. Login and refresh are public; logout
// and password change require a valid access credential.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Group(func(r chi.Router) {
		r.Use(h.authenticator.Middleware)
		r.Post("/logout", h.logout)
		r.Post("/password", h.changePassword)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, pair)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.Logout(r.Context(), principal.UserID); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, nil, "logged out")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.ChangePassword(r.Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, nil, "password updated")
}
