package exams

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

// Handler manages exam and result endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers exam routes. Result submission is teacher-only;
// the service enforces the timetable assignment check on top of the role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin, shared.RoleTeacher))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/results", h.results)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Post("/", h.create)
	})
}

// MountTeacherRoutes registers the teacher-facing exam routes, mounted
// under the teacher portal prefix.
func (h *Handler) MountTeacherRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.RoleTeacher))
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/results", h.postResult)
}

type examRequest struct {
	BranchID  int64  `json:"branch_id" validate:"gte=0"`
	Title     string `json:"title" validate:"required,max=200"`
	ClassName string `json:"class_name" validate:"required,max=50"`
	Section   string `json:"section" validate:"max=10"`
	Subject   string `json:"subject" validate:"required,max=100"`
	ExamDate  string `json:"exam_date" validate:"required"`
	MaxMarks  int    `json:"max_marks" validate:"required,gt=0"`
}

type resultRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Marks     int    `json:"marks" validate:"gte=0"`
	Grade     string `json:"grade" validate:"max=5"`
	Remarks   string `json:"remarks" validate:"max=500"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	scope := tenancy.For(principal).WithBranchFilter(queryBranch(r))
	filter := Filter{
		ClassName: r.URL.Query().Get("class"),
		Subject:   r.URL.Query().Get("subject"),
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
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	exam, err := h.service.Get(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, exam)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req examRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("exam_date must be YYYY-MM-DD"))
		return
	}
	exam, err := h.service.Create(r.Context(), tenancy.For(principal), Exam{
		BranchID:  req.BranchID,
		Title:     req.Title,
		ClassName: req.ClassName,
		Section:   req.Section,
		Subject:   req.Subject,
		ExamDate:  examDate,
		MaxMarks:  req.MaxMarks,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, exam, "exam scheduled")
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	results, err := h.service.Results(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, results)
}

func (h *Handler) postResult(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	var req resultRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.PostResult(r.Context(), principal, id, ResultInput{
		StudentID: req.StudentID,
		Marks:     req.Marks,
		Grade:     req.Grade,
		Remarks:   req.Remarks,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, result, "result recorded")
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ValidationError("invalid id")
	}
	return id, nil
}

func queryBranch(r *http.Request) int64 {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	return branchID
}
