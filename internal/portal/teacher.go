// Package portal serves the role-scoped self-service surfaces: the
// teacher portal and the student/parent portal. Every read resolves the
// caller's own record first, so the routes never take an id that could
// name somebody else's data.
package portal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/tenancy"
	"github.com/academica-erp/academica/internal/timetable"
)

// TeacherDirectory resolves the teacher record backing an account.
type TeacherDirectory interface {
	FindByUserID(ctx context.Context, userID int64) (*teachers.Teacher, error)
}

// TeacherHandler serves the teacher's own timetable.
type TeacherHandler struct {
	logger    *slog.Logger
	teacherz  TeacherDirectory
	timetable *timetable.Service
	rbac      rbac.Middleware
}

// NewTeacherHandler builds a TeacherHandler instance.
func NewTeacherHandler(logger *slog.Logger, teachers TeacherDirectory, timetable *timetable.Service, rbac rbac.Middleware) *TeacherHandler {
	return &TeacherHandler{logger: logger, teacherz: teachers, timetable: timetable, rbac: rbac}
}

// MountRoutes registers the teacher portal routes.
func (h *TeacherHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleTeacher))
		r.Get("/timetable", h.ownTimetable)
	})
}

func (h *TeacherHandler) ownTimetable(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	teacher, err := h.teacherz.FindByUserID(r.Context(), principal.UserID)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Forbidden("no teacher record for this account"))
		return
	}
	page := shared.ParsePageRequest(r)
	list, total, err := h.timetable.List(r.Context(), tenancy.For(principal), timetable.Filter{TeacherID: teacher.ID}, page)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondList(w, list, shared.NewPagination(page.Page, page.Limit, total))
}
