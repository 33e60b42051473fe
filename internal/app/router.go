package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/academica-erp/academica/internal/attendance"
	"github.com/academica-erp/academica/internal/auth"
	"github.com/academica-erp/academica/internal/branches"
	"github.com/academica-erp/academica/internal/exams"
	"github.com/academica-erp/academica/internal/fees"
	"github.com/academica-erp/academica/internal/notifications"
	"github.com/academica-erp/academica/internal/payroll"
	"github.com/academica-erp/academica/internal/portal"
	"github.com/academica-erp/academica/internal/students"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/timetable"
	"github.com/academica-erp/academica/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	Authenticator        *auth.Authenticator
	AuthHandler          *auth.Handler
	BranchesHandler      *branches.Handler
	UsersHandler         *users.Handler
	StudentsHandler      *students.Handler
	TeachersHandler      *teachers.Handler
	TimetableHandler     *timetable.Handler
	ExamsHandler         *exams.Handler
	AttendanceHandler    *attendance.Handler
	FeesHandler          *fees.Handler
	PayrollHandler       *payroll.Handler
	NotificationsHandler *notifications.Handler
	TeacherPortal        *portal.TeacherHandler
	StudentPortal        *portal.StudentHandler
}

// NewRouter constructs the chi.Router with Academica defaults. All
// business routes live under /api; everything except login and refresh
// sits behind the bearer authenticator, with per-route role gates
// applied by each handler.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Authenticator.Middleware)

			r.Route("/branches", params.BranchesHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/students", params.StudentsHandler.MountRoutes)
			r.Route("/teachers", params.TeachersHandler.MountRoutes)
			r.Route("/timetable", params.TimetableHandler.MountRoutes)
			r.Route("/exams", params.ExamsHandler.MountRoutes)
			r.Route("/attendance", params.AttendanceHandler.MountRoutes)
			r.Route("/fees", params.FeesHandler.MountRoutes)
			r.Route("/payroll", params.PayrollHandler.MountRoutes)
			r.Route("/announcements", params.NotificationsHandler.MountRoutes)

			r.Route("/teacher", func(r chi.Router) {
				params.TeacherPortal.MountRoutes(r)
				r.Route("/exams", params.ExamsHandler.MountTeacherRoutes)
				r.Route("/attendance", params.AttendanceHandler.MountTeacherRoutes)
			})
			r.Route("/student", params.StudentPortal.MountRoutes)
		})
	})

	return r
}
