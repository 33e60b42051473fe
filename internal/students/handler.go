package students

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

const maxPhotoBytes = 5 << 20

// Handler manages student endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers student routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin, shared.RoleTeacher))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
		r.Post("/{id}/photo", h.uploadPhoto)
	})
}

type studentRequest struct {
	BranchID      int64  `json:"branch_id" validate:"gte=0"`
	UserID        int64  `json:"user_id" validate:"gte=0"`
	AdmissionNo   string `json:"admission_no" validate:"required,max=50"`
	Name          string `json:"name" validate:"required,max=200"`
	Email         string `json:"email" validate:"omitempty,email"`
	GuardianName  string `json:"guardian_name" validate:"required,max=200"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
	ClassName     string `json:"class_name" validate:"required,max=50"`
	Section       string `json:"section" validate:"max=10"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	scope := tenancy.For(principal).WithBranchFilter(queryBranch(r))
	filter := Filter{
		ClassName: r.URL.Query().Get("class"),
		Section:   r.URL.Query().Get("section"),
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
	student, err := h.service.Get(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, student)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req studentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	student, err := h.service.Create(r.Context(), tenancy.For(principal), CreateInput{
		BranchID:      req.BranchID,
		UserID:        req.UserID,
		AdmissionNo:   req.AdmissionNo,
		Name:          req.Name,
		Email:         req.Email,
		GuardianName:  req.GuardianName,
		GuardianEmail: req.GuardianEmail,
		ClassName:     req.ClassName,
		Section:       req.Section,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, student, "student admitted")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	var req studentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	student, err := h.service.Update(r.Context(), tenancy.For(principal), Student{
		ID:            id,
		Name:          req.Name,
		Email:         req.Email,
		GuardianName:  req.GuardianName,
		GuardianEmail: req.GuardianEmail,
		ClassName:     req.ClassName,
		Section:       req.Section,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, student, "student updated")
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
	shared.RespondMessage(w, http.StatusOK, nil, "student deactivated")
}

func (h *Handler) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		shared.RespondError(w, h.logger, shared.ValidationError("photo must be image/jpeg or image/png"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPhotoBytes+1))
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("unreadable request body"))
		return
	}
	if len(data) == 0 || len(data) > maxPhotoBytes {
		shared.RespondError(w, h.logger, shared.ValidationError("photo must be between 1 byte and 5 MB"))
		return
	}
	url, err := h.service.UploadPhoto(r.Context(), tenancy.For(principal), id, contentType, data)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusOK, map[string]string{"photo_url": url}, "photo uploaded")
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
