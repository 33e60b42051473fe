package portal

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/attendance"
	"github.com/academica-erp/academica/internal/exams"
	"github.com/academica-erp/academica/internal/fees"
	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/students"
)

const dateLayout = "2006-01-02"

// StudentHandler serves a student's or a parent's view of their own
// fees, results and attendance.
type StudentHandler struct {
	logger     *slog.Logger
	students   *students.Service
	fees       *fees.Service
	exams      *exams.Service
	attendance *attendance.Service
	rbac       rbac.Middleware
}

// NewStudentHandler builds a StudentHandler instance.
func NewStudentHandler(logger *slog.Logger, students *students.Service, fees *fees.Service, exams *exams.Service, attendance *attendance.Service, rbac rbac.Middleware) *StudentHandler {
	return &StudentHandler{logger: logger, students: students, fees: fees, exams: exams, attendance: attendance, rbac: rbac}
}

// MountRoutes registers the student portal routes.
func (h *StudentHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleStudent, shared.RoleParent))
		r.Get("/profile", h.profile)
		r.Get("/fees", h.ownFees)
		r.Get("/results", h.ownResults)
		r.Get("/attendance", h.ownAttendance)
	})
}

// resolve maps the principal onto the student whose data is being read.
// Student accounts map to their own enrolment; parent accounts map to a
// child recorded against their email, selectable with ?student_id when
// there is more than one.
func (h *StudentHandler) resolve(r *http.Request, principal *shared.Principal) (*students.Student, error) {
	if principal.Role == shared.RoleStudent {
		return h.students.Self(r.Context(), principal.UserID)
	}
	children, err := h.students.Children(r.Context(), principal.Email)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, shared.NotFound("student")
	}
	if raw := r.URL.Query().Get("student_id"); raw != "" {
		wanted, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, shared.ValidationError("invalid student_id")
		}
		for i := range children {
			if children[i].ID == wanted {
				return &children[i], nil
			}
		}
		// An id outside the guardian's children reads the same as one
		// that does not exist.
		return nil, shared.NotFound("student")
	}
	return &children[0], nil
}

func (h *StudentHandler) profile(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	student, err := h.resolve(r, principal)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, student)
}

func (h *StudentHandler) ownFees(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	student, err := h.resolve(r, principal)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	vouchers, err := h.fees.ForStudent(r.Context(), student.ID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, vouchers)
}

func (h *StudentHandler) ownResults(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	student, err := h.resolve(r, principal)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	results, err := h.exams.ResultsForStudent(r.Context(), student.ID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, results)
}

func (h *StudentHandler) ownAttendance(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	student, err := h.resolve(r, principal)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	records, err := h.attendance.History(r.Context(), attendance.SubjectStudent, student.ID, from, to)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, records)
}

// parseRange reads from/to query params, defaulting to the last 30 days.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -30), now
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, shared.ValidationError("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, shared.ValidationError("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	return from, to, nil
}
