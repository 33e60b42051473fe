package attendance

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

const dateLayout = "2006-01-02"

// Handler manages attendance endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin, shared.RoleTeacher))
		r.Get("/", h.day)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Post("/staff", h.markStaff)
		r.Post("/{id}/approve", h.approve)
	})
}

// MountTeacherRoutes registers the teacher-facing attendance routes,
// mounted under the teacher portal prefix.
func (h *Handler) MountTeacherRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.RoleTeacher))
	r.Post("/", h.markSheet)
}

type markEntryRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required"`
}

type markSheetRequest struct {
	ClassName string             `json:"class_name" validate:"required,max=50"`
	Section   string             `json:"section" validate:"max=10"`
	Date      string             `json:"date" validate:"required"`
	Entries   []markEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type markStaffRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	Date     string `json:"date" validate:"required"`
	Status   string `json:"status" validate:"required"`
	Approved bool   `json:"approved"`
}

func (h *Handler) markSheet(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req markSheetRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("date must be YYYY-MM-DD"))
		return
	}
	entries := make([]MarkEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, MarkEntry{StudentID: e.StudentID, Status: e.Status})
	}
	records, err := h.service.MarkSheet(r.Context(), principal, MarkSheetInput{
		ClassName: req.ClassName,
		Section:   req.Section,
		Date:      date,
		Entries:   entries,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, records, "attendance recorded")
}

func (h *Handler) markStaff(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req markStaffRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("date must be YYYY-MM-DD"))
		return
	}
	record, err := h.service.MarkStaff(r.Context(), principal, req.UserID, date, req.Status, req.Approved)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, record, "attendance recorded")
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	day, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("date must be YYYY-MM-DD"))
		return
	}
	subjectType := r.URL.Query().Get("type")
	if subjectType == "" {
		subjectType = SubjectStudent
	}
	records, err := h.service.Day(r.Context(), tenancy.For(principal), subjectType, day)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, records)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid id"))
		return
	}
	if err := h.service.Approve(r.Context(), tenancy.For(principal), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, map[string]bool{"approved": true})
}
