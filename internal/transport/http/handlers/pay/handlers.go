package payhandler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/auth"
	"worktrack/internal/domain/pay"
	"worktrack/internal/transport/http/api"
	"worktrack/internal/transport/http/middleware"
	"worktrack/internal/transport/http/shared"
)

type Handler struct {
	Service *pay.Service
}

func NewHandler(service *pay.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pay", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/jobs/{jobID}", h.handleJobPay)
		r.Get("/technicians/{techID}", h.handleTechSummary)
	})
}

func (h *Handler) handleJobPay(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if !user.CanManage() {
		api.Fail(w, http.StatusForbidden, "forbidden", "manager role required", requestID)
		return
	}

	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil || jobID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid job id", requestID)
		return
	}

	breakdown, err := h.Service.CalculateJobPay(r.Context(), jobID)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, breakdown, requestID)
}

func (h *Handler) handleTechSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	techID, err := strconv.ParseInt(chi.URLParam(r, "techID"), 10, 64)
	if err != nil || techID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid technician id", requestID)
		return
	}
	// Technicians can see their own pay; everyone else's needs a manager.
	if user.Role == auth.RoleTechnician && user.TechID != techID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your pay summary", requestID)
		return
	}

	from, to, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.Service.TechPaySummary(r.Context(), techID, from, to)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, summary, requestID)
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

func failFromError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, pay.ErrJobNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "job not found", requestID)
	case errors.Is(err, pay.ErrIncompleteJobData):
		api.Fail(w, http.StatusUnprocessableEntity, "incomplete_job", err.Error(), requestID)
	case errors.Is(err, pay.ErrJobCancelled):
		api.Fail(w, http.StatusUnprocessableEntity, "job_cancelled", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "pay_calculation_failed", "pay calculation failed", requestID)
	}
}
