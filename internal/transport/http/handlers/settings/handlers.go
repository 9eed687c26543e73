package settingshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/domain/audit"
	"worktrack/internal/domain/core"
	"worktrack/internal/domain/rates"
	"worktrack/internal/domain/timeentry"
	"worktrack/internal/transport/http/api"
	"worktrack/internal/transport/http/middleware"
	"worktrack/internal/transport/http/shared"
)

type Handler struct {
	Store   *core.Store
	Rates   *rates.Store
	Entries *timeentry.Service
	Audit   *audit.Service
}

func NewHandler(store *core.Store, ratesStore *rates.Store, entries *timeentry.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Rates: ratesStore, Entries: entries, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/mileage-rates", h.handleListRates)
		r.With(middleware.RequireAdmin).Post("/mileage-rates", h.handleCreateRate)
		r.Get("/pay-periods", h.handleListPeriods)
		r.With(middleware.RequireManager).Post("/pay-periods", h.handleCreatePeriod)
		r.With(middleware.RequireManager).Post("/pay-periods/{periodID}/close", h.handleClosePeriod)
		r.With(middleware.RequireManager).Post("/pay-periods/{periodID}/mark-paid", h.handleMarkPeriodPaid)
	})
}

func (h *Handler) handleListRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	history, err := h.Rates.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rates_list_failed", "failed to list mileage rates", requestID)
		return
	}
	if history == nil {
		history = rates.History{}
	}
	api.Success(w, history, requestID)
}

type ratePayload struct {
	RatePerMile   float64 `json:"ratePerMile"`
	EffectiveDate string  `json:"effectiveDate"`
	Description   string  `json:"description"`
}

// handleCreateRate appends a new rate window; the store closes the prior
// open-ended window in the same transaction so lookups never see a gap.
func (h *Handler) handleCreateRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload ratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	if payload.RatePerMile <= 0 {
		v.Add("ratePerMile", "must be positive")
	}
	v.Required("effectiveDate", payload.EffectiveDate, "is required")
	effectiveDate, _ := v.Date("effectiveDate", payload.EffectiveDate)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Rates.Create(r.Context(), payload.RatePerMile, effectiveDate, payload.Description)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rate_create_failed", "failed to create mileage rate", requestID)
		return
	}
	h.record(r, user.UserID, "mileage_rate.create", "mileage_rate", id, payload)
	api.Created(w, map[string]int64{"rateId": id}, requestID)
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	periods, err := h.Store.ListPayPeriods(r.Context(), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "periods_list_failed", "failed to list pay periods", requestID)
		return
	}
	if periods == nil {
		periods = []core.PayPeriod{}
	}
	api.Success(w, periods, requestID)
}

type periodPayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Name      string `json:"periodName"`
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("startDate", payload.StartDate, "is required")
	v.Required("endDate", payload.EndDate, "is required")
	startDate, _ := v.Date("startDate", payload.StartDate)
	endDate, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", startDate, "endDate", endDate)
	if v.Reject(w, requestID) {
		return
	}

	period := core.PayPeriod{
		StartDate: startDate,
		EndDate:   endDate,
		Name:      payload.Name,
		Status:    core.PeriodStatusOpen,
	}
	id, err := h.Store.CreatePayPeriod(r.Context(), period)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_create_failed", "failed to create pay period", requestID)
		return
	}
	period.ID = id
	h.record(r, user.UserID, "pay_period.create", "pay_period", id, period)
	api.Created(w, period, requestID)
}

// handleClosePeriod closes the period and moves its verified entries to
// billed. The close is a compare-and-swap on the open status, so two
// concurrent closes cannot both bill.
func (h *Handler) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	periodID, ok := parsePeriodID(w, r, requestID)
	if !ok {
		return
	}
	period, err := h.Store.GetPayPeriod(r.Context(), periodID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "pay period not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "period_close_failed", "failed to load pay period", requestID)
		return
	}

	if err := h.Store.ClosePayPeriod(r.Context(), periodID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusConflict, "period_not_open", "pay period is not open", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "period_close_failed", "failed to close pay period", requestID)
		return
	}

	moved, err := h.Entries.MarkPeriodBilled(r.Context(), periodID, period.StartDate, period.EndDate, user, timeentry.Meta{
		RequestID: requestID,
		IP:        shared.ClientIP(r),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_close_failed", "period closed but billing entries failed", requestID)
		return
	}
	h.record(r, user.UserID, "pay_period.close", "pay_period", periodID, map[string]any{"entriesBilled": moved})
	api.Success(w, map[string]any{"periodId": periodID, "entriesBilled": moved}, requestID)
}

func (h *Handler) handleMarkPeriodPaid(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	periodID, ok := parsePeriodID(w, r, requestID)
	if !ok {
		return
	}
	period, err := h.Store.GetPayPeriod(r.Context(), periodID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "pay period not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "period_paid_failed", "failed to load pay period", requestID)
		return
	}
	if period.Status == core.PeriodStatusOpen {
		api.Fail(w, http.StatusConflict, "period_open", "close the pay period before marking it paid", requestID)
		return
	}

	moved, err := h.Entries.MarkPeriodPaid(r.Context(), periodID, user, timeentry.Meta{
		RequestID: requestID,
		IP:        shared.ClientIP(r),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_paid_failed", "failed to mark entries paid", requestID)
		return
	}
	h.record(r, user.UserID, "pay_period.paid", "pay_period", periodID, map[string]any{"entriesPaid": moved})
	api.Success(w, map[string]any{"periodId": periodID, "entriesPaid": moved}, requestID)
}

func (h *Handler) record(r *http.Request, actorID int64, action, entityType string, entityID int64, after any) {
	if h.Audit == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID, requestID, shared.ClientIP(r), nil, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func parsePeriodID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "periodID"), 10, 64)
	if err != nil || periodID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid period id", requestID)
		return 0, false
	}
	return periodID, true
}
