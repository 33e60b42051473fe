package teachers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Handler manages teacher endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers teacher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})
}

type teacherRequest struct {
	BranchID        int64  `json:"branch_id" validate:"gte=0"`
	UserID          int64  `json:"user_id" validate:"gte=0"`
	EmployeeNo      string `json:"employee_no" validate:"required,max=50"`
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	BaseSalaryCents int64  `json:"base_salary_cents" validate:"gte=0"`
	JoiningDate     string `json:"joining_date" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	scope := tenancy.For(principal).WithBranchFilter(queryBranch(r))
	list, total, err := h.service.List(r.Context(), scope, page)
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
	teacher, err := h.service.Get(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, teacher)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req teacherRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	joining, err := time.Parse("2006-01-02", req.JoiningDate)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("joining_date must be YYYY-MM-DD"))
		return
	}
	teacher, err := h.service.Create(r.Context(), tenancy.For(principal), CreateInput{
		BranchID:        req.BranchID,
		UserID:          req.UserID,
		EmployeeNo:      req.EmployeeNo,
		Name:            req.Name,
		Email:           req.Email,
		BaseSalaryCents: req.BaseSalaryCents,
		JoiningDate:     joining,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, teacher, "teacher created")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	var req teacherRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	teacher, err := h.service.Update(r.Context(), tenancy.For(principal), Teacher{
		ID:              id,
		Name:            req.Name,
		Email:           req.Email,
		BaseSalaryCents: req.BaseSalaryCents,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, teacher, "teacher updated")
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), tenancy.For(principal), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, nil, "teacher deactivated")
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ValidationError("invalid id")
	}
	return id, nil
}

func queryBranch(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	return id
}
