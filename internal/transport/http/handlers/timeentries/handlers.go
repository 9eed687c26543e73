package timeentrieshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/auth"
	"worktrack/internal/domain/timeentry"
	"worktrack/internal/transport/http/api"
	"worktrack/internal/transport/http/middleware"
	"worktrack/internal/transport/http/shared"
)

type Handler struct {
	Service *timeentry.Service
}

func NewHandler(service *timeentry.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/time-entries", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Post("/bulk-submit", h.handleBulkSubmit)
		r.With(middleware.RequireManager).Post("/bulk-verify", h.handleBulkVerify)
		r.Get("/{entryID}", h.handleGet)
		r.Put("/{entryID}", h.handleUpdate)
		r.Delete("/{entryID}", h.handleDelete)
		r.Post("/{entryID}/submit", h.handleSubmit)
		r.With(middleware.RequireManager).Post("/{entryID}/verify", h.handleVerify)
		r.With(middleware.RequireManager).Post("/{entryID}/reject", h.handleReject)
	})
}

type entryPayload struct {
	JobID            int64    `json:"jobId"`
	TechID           int64    `json:"techId"`
	DateWorked       string   `json:"dateWorked"`
	TimeIn           string   `json:"timeIn"`
	TimeOut          string   `json:"timeOut"`
	HoursWorked      *float64 `json:"hoursWorked"`
	Mileage          float64  `json:"mileage"`
	PerDiem          float64  `json:"perDiem"`
	PersonalExpenses float64  `json:"personalExpenses"`
	Notes            string   `json:"notes"`
}

func (p entryPayload) validate(v *shared.Validator) (time.Time, bool) {
	if p.JobID == 0 {
		v.Add("jobId", "is required")
	}
	v.Required("dateWorked", p.DateWorked, "is required")
	if p.HoursWorked != nil && *p.HoursWorked < 0 {
		v.Add("hoursWorked", "must not be negative")
	}
	v.Positive("mileage", p.Mileage, "must not be negative")
	v.Positive("perDiem", p.PerDiem, "must not be negative")
	v.Positive("personalExpenses", p.PersonalExpenses, "must not be negative")
	if p.DateWorked == "" {
		return time.Time{}, false
	}
	return v.Date("dateWorked", p.DateWorked)
}

func (p entryPayload) toEntry(dateWorked time.Time) timeentry.Entry {
	return timeentry.Entry{
		JobID:            p.JobID,
		TechID:           p.TechID,
		DateWorked:       dateWorked,
		TimeIn:           p.TimeIn,
		TimeOut:          p.TimeOut,
		HoursWorked:      p.HoursWorked,
		Mileage:          p.Mileage,
		PerDiem:          p.PerDiem,
		PersonalExpenses: p.PersonalExpenses,
		Notes:            p.Notes,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	filter, err := parseFilter(r, user)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", err.Error(), requestID)
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	entries, total, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "entries_list_failed", "failed to list time entries", requestID)
		return
	}
	if entries == nil {
		entries = []timeentry.Entry{}
	}
	api.Success(w, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   page.Limit,
		"offset":  page.Offset,
	}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entryID, ok := parseEntryID(w, r, requestID)
	if !ok {
		return
	}
	entry, err := h.Service.Get(r.Context(), entryID)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	if user.Role == auth.RoleTechnician && entry.TechID != user.TechID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your time entry", requestID)
		return
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	dateWorked, _ := payload.validate(v)
	if v.Reject(w, requestID) {
		return
	}

	entry, err := h.Service.Create(r.Context(), payload.toEntry(dateWorked), user, meta(r))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Created(w, entry, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entryID, ok := parseEntryID(w, r, requestID)
	if !ok {
		return
	}
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	dateWorked, _ := payload.validate(v)
	if v.Reject(w, requestID) {
		return
	}

	entry := payload.toEntry(dateWorked)
	entry.ID = entryID
	updated, err := h.Service.Update(r.Context(), entry, user, meta(r))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entryID, ok := parseEntryID(w, r, requestID)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), entryID, user, meta(r)); err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"deleted": entryID}, requestID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entryID, ok := parseEntryID(w, r, requestID)
	if !ok {
		return
	}
	entry, err := h.Service.Submit(r.Context(), entryID, user, meta(r))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entryID, ok := parseEntryID(w, r, requestID)
	if !ok {
		return
	}
	entry, err := h.Service.Verify(r.Context(), entryID, user, meta(r))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, entry, requestID)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entryID, ok := parseEntryID(w, r, requestID)
	if !ok {
		return
	}
	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	entry, err := h.Service.Reject(r.Context(), entryID, user, payload.Reason, meta(r))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, entry, requestID)
}

type bulkPayload struct {
	EntryIDs []int64 `json:"entryIds"`
}

func (h *Handler) handleBulkSubmit(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, h.Service.BulkSubmit)
}

func (h *Handler) handleBulkVerify(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, h.Service.BulkVerify)
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, ids []int64, actor auth.UserContext, m timeentry.Meta) timeentry.BulkOutcome) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload bulkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(payload.EntryIDs) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "entryIds is required", requestID)
		return
	}

	outcome := apply(r.Context(), payload.EntryIDs, user, meta(r))
	api.Success(w, outcome, requestID)
}

func parseEntryID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil || entryID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid entry id", requestID)
		return 0, false
	}
	return entryID, true
}

func parseFilter(r *http.Request, user auth.UserContext) (timeentry.Filter, error) {
	query := r.URL.Query()
	filter := timeentry.Filter{Status: query.Get("status")}

	if raw := query.Get("techId"); raw != "" {
		techID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return timeentry.Filter{}, errors.New("techId must be numeric")
		}
		filter.TechID = techID
	}
	if raw := query.Get("jobId"); raw != "" {
		jobID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return timeentry.Filter{}, errors.New("jobId must be numeric")
		}
		filter.JobID = jobID
	}
	if query.Get("unassigned") == "true" {
		filter.Unassigned = true
	}
	if raw := query.Get("from"); raw != "" {
		from, err := shared.ParseDate(raw)
		if err != nil {
			return timeentry.Filter{}, errors.New("from must be a valid date")
		}
		filter.FromDate = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := shared.ParseDate(raw)
		if err != nil {
			return timeentry.Filter{}, errors.New("to must be a valid date")
		}
		filter.ToDate = &to
	}

	// Technicians only ever see their own entries.
	if user.Role == auth.RoleTechnician {
		filter.TechID = user.TechID
		filter.Unassigned = false
	}
	return filter, nil
}

func meta(r *http.Request) timeentry.Meta {
	return timeentry.Meta{
		RequestID: middleware.GetRequestID(r.Context()),
		IP:        shared.ClientIP(r),
	}
}

func failFromError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, timeentry.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "time entry not found", requestID)
	case errors.Is(err, timeentry.ErrPermissionDenied):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case timeentry.IsConflict(err):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, timeentry.ErrMissingAssignment),
		errors.Is(err, timeentry.ErrMissingHours),
		errors.Is(err, timeentry.ErrReasonRequired),
		errors.Is(err, timeentry.ErrNotDraft):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_state", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "entry_operation_failed", "time entry operation failed", requestID)
	}
}
