package branches

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Handler manages branch endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers branch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})
}

type branchRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Code    string `json:"code" validate:"required,max=20"`
	Address string `json:"address" validate:"max=500"`
	Phone   string `json:"phone" validate:"max=50"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	list, total, err := h.service.List(r.Context(), tenancy.For(principal), page)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondList(w, list, shared.NewPagination(page.Page, page.Limit, total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	branch, err := h.service.Get(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, branch)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	branch, err := h.service.Create(r.Context(), Branch{Name: req.Name, Code: req.Code, Address: req.Address, Phone: req.Phone})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, branch, "branch created")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	var req branchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	branch, err := h.service.Update(r.Context(), Branch{ID: id, Name: req.Name, Code: req.Code, Address: req.Address, Phone: req.Phone})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, branch, "branch updated")
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, nil, "branch deactivated")
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ValidationError("invalid id")
	}
	return id, nil
}
