package fees

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

// Handler manages fee voucher endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers fee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.RoleSuperAdmin, shared.RoleBranchAdmin))
		r.Get("/", h.list)
		r.Get("/summary", h.summary)
		r.Get("/{id}", h.get)
		r.Get("/{id}/payments", h.payments)
		r.Post("/", h.create)
		r.Post("/{id}/payments", h.recordPayment)
		r.Delete("/{id}", h.cancel)
	})
}

type lineItemRequest struct {
	Description string `json:"description" validate:"required,max=200"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
}

type voucherRequest struct {
	BranchID  int64             `json:"branch_id" validate:"gte=0"`
	StudentID int64             `json:"student_id" validate:"required,gt=0"`
	Items     []lineItemRequest `json:"items" validate:"required,min=1,dive"`
	DueDate   string            `json:"due_date" validate:"required"`
}

type paymentRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Method      string `json:"method" validate:"required,oneof=cash card transfer cheque"`
	Reference   string `json:"reference" validate:"max=100"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r)
	scope := tenancy.For(principal).WithBranchFilter(queryBranch(r))
	filter := Filter{Status: r.URL.Query().Get("status")}
	if studentID, err := strconv.ParseInt(r.URL.Query().Get("student_id"), 10, 64); err == nil {
		filter.StudentID = studentID
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
	voucher, err := h.service.Get(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, voucher)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req voucherRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("due_date must be YYYY-MM-DD"))
		return
	}
	items := make([]LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, LineItem{Description: item.Description, AmountCents: item.AmountCents})
	}
	voucher, err := h.service.Create(r.Context(), tenancy.For(principal), CreateInput{
		BranchID:  req.BranchID,
		StudentID: req.StudentID,
		Items:     items,
		DueDate:   dueDate,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, voucher, "voucher issued")
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	var req paymentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	payment, voucher, err := h.service.RecordPayment(r.Context(), tenancy.For(principal), principal.UserID, id, PaymentInput{
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Reference:   req.Reference,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondMessage(w, http.StatusCreated, map[string]any{
		"payment": payment,
		"voucher": voucher,
	}, "payment recorded")
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	list, err := h.service.Payments(r.Context(), tenancy.For(principal), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, list)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Cancel(r.Context(), tenancy.For(principal), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	scope := tenancy.For(principal).WithBranchFilter(queryBranch(r))
	period, err := parsePeriod(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	sum, err := h.service.Summarize(r.Context(), scope, period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondOK(w, http.StatusOK, sum)
}

// parsePeriod reads from/to query params, defaulting to the current month.
func parsePeriod(r *http.Request) (Period, error) {
	now := time.Now().UTC()
	period := Period{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   now,
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Period{}, shared.ValidationError("from must be YYYY-MM-DD")
		}
		period.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Period{}, shared.ValidationError("to must be YYYY-MM-DD")
		}
		period.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return period, nil
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
