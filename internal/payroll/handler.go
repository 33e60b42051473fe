package payroll

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Handler manages payroll endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/generate", h.generate)
	})
}

type generateRequest struct {
	TeacherID      int64 `json:"teacher_id" validate:"required,gt=0"`
	Year           int   `json:"year" validate:"required,gte=2000,lte=2100"`
	Month          int   `json:"month" validate:"required,gte=1,lte=12"`
	WorkingDays    int   `json:"working_days" validate:"required,gte=1,lte=31"`
	AllowanceCents int64 `json:"allowance_cents" validate:"gte=0"`
	BonusCents     int64 `json:"bonus_cents" validate:"gte=0"`
	Issue          bool  `json:"issue"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	scope := tenancy.For(principal).WithBranchFilter(queryBranch(r))
	filter := Filter{}
	if teacherID, err := strconv.ParseInt(r.URL.Query().Get("teacher_id"), 10, 64); err == nil {
		filter.TeacherID = teacherID
	}
	if year, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
		filter.Year = year
	}
	if month, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil {
		filter.Month = month
	}
	list, total, err := h.service.List(r.Context(), scope, filter, page)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondList(w, list, shared.NewPagination(page.Page, page.Limit, total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid id"))
		return
	}
	slip, err := h.service.Get(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, slip)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req generateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	slip, err := h.service.Generate(r.Context(), tenancy.For(principal), GenerateInput{
		TeacherID:      req.TeacherID,
		Year:           req.Year,
		Month:          req.Month,
		WorkingDays:    req.WorkingDays,
		AllowanceCents: req.AllowanceCents,
		BonusCents:     req.BonusCents,
		Issue:          req.Issue,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, slip, "payslip generated")
}

func queryBranch(r *http.Request) int64 {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	return branchID
}
