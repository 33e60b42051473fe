package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
)

// Handler manages announcement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers announcement routes. Reading is open to every
// authenticated role; publishing is admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny())
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Post("/", h.publish)
	})
}

type announcementRequest struct {
	BranchID int64  `json:"branch_id" validate:"gte=0"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=5000"`
	Audience string `json:"audience" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	list, total, err := h.service.List(r.Context(), principal, page)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondList(w, list, shared.NewPagination(page.Page, page.Limit, total))
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req announcementRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	announcement, queued, err := h.service.Publish(r.Context(), principal, CreateInput{
		BranchID: req.BranchID,
		Title:    req.Title,
		Body:     req.Body,
		Audience: req.Audience,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, map[string]any{
		"announcement": announcement,
		"queued":       queued,
	}, "announcement published")
}
