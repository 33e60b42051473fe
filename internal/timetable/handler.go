package timetable

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

// Handler manages timetable endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers timetable routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin, shared.RoleTeacher))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Post("/", h.create)
		r.Delete("/{id}", h.remove)
	})
}

type entryRequest struct {
	BranchID  int64  `json:"branch_id" validate:"gte=0"`
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
	ClassName string `json:"class_name" validate:"required,max=50"`
	Section   string `json:"section" validate:"max=10"`
	Subject   string `json:"subject" validate:"required,max=100"`
	Weekday   int    `json:"weekday" validate:"required,gte=1,lte=7"`
	Period    int    `json:"period" validate:"required,gte=1,lte=12"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	teacherID, _ := strconv.ParseInt(r.URL.Query().Get("teacher_id"), 10, 64)
	list, total, err := h.service.List(r.Context(), tenancy.For(principal), Filter{
		TeacherID: teacherID,
		ClassName: r.URL.Query().Get("class"),
	}, page)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondList(w, list, shared.NewPagination(page.Page, page.Limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req entryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	entry, err := h.service.Create(r.Context(), tenancy.For(principal), Entry{
		BranchID:  req.BranchID,
		TeacherID: req.TeacherID,
		ClassName: req.ClassName,
		Section:   req.Section,
		Subject:   req.Subject,
		Weekday:   req.Weekday,
		Period:    req.Period,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, entry, "timetable entry created")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid id"))
		return
	}
	if err := h.service.Delete(r.Context(), tenancy.For(principal), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, nil, "timetable entry removed")
}
