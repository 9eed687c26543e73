package reportshandler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/auth"
	"worktrack/internal/domain/reports"
	"worktrack/internal/transport/http/api"
	"worktrack/internal/transport/http/middleware"
	"worktrack/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.With(middleware.RequireManager).Get("/payroll", h.handlePayroll)
		r.With(middleware.RequireManager).Get("/payroll/export", h.handlePayrollExport)
		r.With(middleware.RequireManager).Get("/billing", h.handleBilling)
		r.With(middleware.RequireManager).Get("/billing/export", h.handleBillingExport)
		r.Get("/hours", h.handleHours)
		r.With(middleware.RequireManager).Get("/platforms", h.handlePlatforms)
	})
}

func (h *Handler) handlePayroll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	report, err := h.Service.Payroll(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_report_failed", "failed to build payroll report", requestID)
		return
	}
	api.Success(w, report, requestID)
}

func (h *Handler) handlePayrollExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	report, err := h.Service.Payroll(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_report_failed", "failed to build payroll report", requestID)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "csv":
		writePayrollCSV(w, report)
	case "xlsx":
		writePayrollXLSX(w, report, requestID)
	case "pdf":
		writePayrollPDF(w, report, requestID)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_format", "format must be csv, xlsx, or pdf", requestID)
	}
}

func (h *Handler) handleBilling(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	report, err := h.Service.JobBilling(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "billing_report_failed", "failed to build billing report", requestID)
		return
	}
	api.Success(w, report, requestID)
}

func (h *Handler) handleBillingExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	report, err := h.Service.JobBilling(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "billing_report_failed", "failed to build billing report", requestID)
		return
	}
	writeBillingCSV(w, report)
}

func (h *Handler) handleHours(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}

	var techID int64
	if raw := r.URL.Query().Get("techId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "techId must be numeric", requestID)
			return
		}
		techID = parsed
	}
	// Technicians only get their own hours.
	if user.Role == auth.RoleTechnician {
		techID = user.TechID
	}

	report, err := h.Service.TechnicianHours(r.Context(), from, to, techID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hours_report_failed", "failed to build hours report", requestID)
		return
	}
	api.Success(w, report, requestID)
}

func (h *Handler) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	rows, err := h.Service.PlatformSummary(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "platform_report_failed", "failed to build platform summary", requestID)
		return
	}
	if rows == nil {
		rows = []reports.PlatformSummaryRow{}
	}
	api.Success(w, rows, requestID)
}

func parseRange(w http.ResponseWriter, r *http.Request, requestID string) (from, to time.Time, ok bool) {
	v := shared.NewValidator()
	v.Required("from", r.URL.Query().Get("from"), "is required")
	v.Required("to", r.URL.Query().Get("to"), "is required")
	if v.Reject(w, requestID) {
		return from, to, false
	}
	from, _ = v.Date("from", r.URL.Query().Get("from"))
	to, _ = v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, requestID) {
		return from, to, false
	}
	return from, to, true
}
