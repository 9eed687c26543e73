package jobshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/domain/audit"
	"worktrack/internal/domain/core"
	"worktrack/internal/transport/http/api"
	"worktrack/internal/transport/http/middleware"
	"worktrack/internal/transport/http/shared"
)

type Handler struct {
	Store *core.Store
	Audit *audit.Service
}

func NewHandler(store *core.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.With(middleware.RequireManager).Post("/", h.handleCreate)
		r.Get("/{jobID}", h.handleGet)
		r.With(middleware.RequireManager).Put("/{jobID}", h.handleUpdate)
	})
	r.Route("/platforms", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleListPlatforms)
		r.With(middleware.RequireManager).Post("/", h.handleCreatePlatform)
	})
}

type jobPayload struct {
	PlatformID      int64    `json:"platformId"`
	PlatformJobCode string   `json:"platformJobCode"`
	TicketNumber    string   `json:"ticketNumber"`
	Description     string   `json:"description"`
	ClientName      string   `json:"clientName"`
	Location        string   `json:"location"`
	BillingType     string   `json:"billingType"`
	BillingAmount   *float64 `json:"billingAmount"`
	EstimatedHours  *float64 `json:"estimatedHours"`
	Expenses        float64  `json:"expenses"`
	Commissions     float64  `json:"commissions"`
	Status          string   `json:"jobStatus"`
	JobDate         string   `json:"jobDate"`
	ExternalURL     string   `json:"externalUrl"`
}

func (p jobPayload) toJob(v *shared.Validator) core.Job {
	v.Required("description", p.Description, "is required")
	if p.PlatformID == 0 {
		v.Add("platformId", "is required")
	}
	if p.BillingType == "" {
		p.BillingType = core.BillingFlatRate
	}
	v.Enum("billingType", p.BillingType,
		[]string{core.BillingFlatRate, core.BillingHourly, core.BillingPerTask},
		"must be flat_rate, hourly, or per_task")
	if p.Status == "" {
		p.Status = core.JobStatusPending
	}
	v.Positive("expenses", p.Expenses, "must not be negative")
	v.Positive("commissions", p.Commissions, "must not be negative")
	if p.BillingAmount != nil && *p.BillingAmount < 0 {
		v.Add("billingAmount", "must not be negative")
	}

	job := core.Job{
		PlatformID:      p.PlatformID,
		PlatformJobCode: p.PlatformJobCode,
		TicketNumber:    p.TicketNumber,
		Description:     p.Description,
		ClientName:      p.ClientName,
		Location:        p.Location,
		BillingType:     p.BillingType,
		BillingAmount:   p.BillingAmount,
		EstimatedHours:  p.EstimatedHours,
		Expenses:        p.Expenses,
		Commissions:     p.Commissions,
		Status:          p.Status,
	}
	if p.JobDate != "" {
		if jobDate, ok := v.Date("jobDate", p.JobDate); ok {
			job.JobDate = &jobDate
		}
	}
	job.ExternalURL = p.ExternalURL
	return job
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	filter := core.JobFilter{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("platformId"); raw != "" {
		platformID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "platformId must be numeric", requestID)
			return
		}
		filter.PlatformID = platformID
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "from must be a valid date", requestID)
			return
		}
		filter.FromDate = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "to must be a valid date", requestID)
			return
		}
		filter.ToDate = &to
	}
	page := shared.ParsePagination(r, 50, 200)

	total, err := h.Store.CountJobs(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "jobs_list_failed", "failed to list jobs", requestID)
		return
	}
	jobs, err := h.Store.ListJobs(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "jobs_list_failed", "failed to list jobs", requestID)
		return
	}
	if jobs == nil {
		jobs = []core.Job{}
	}
	api.Success(w, map[string]any{
		"jobs":   jobs,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	jobID, ok := parseJobID(w, r, requestID)
	if !ok {
		return
	}
	job, err := h.Store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "job_get_failed", "failed to load job", requestID)
		return
	}
	api.Success(w, job, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload jobPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	job := payload.toJob(v)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreateJob(r.Context(), job, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_create_failed", "failed to create job", requestID)
		return
	}
	job.ID = id
	h.record(r, user.UserID, "job.create", id, nil, job)
	api.Created(w, job, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	jobID, ok := parseJobID(w, r, requestID)
	if !ok {
		return
	}
	current, err := h.Store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "job_update_failed", "failed to load job", requestID)
		return
	}

	var payload jobPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	job := payload.toJob(v)
	if v.Reject(w, requestID) {
		return
	}
	job.ID = jobID

	if err := h.Store.UpdateJob(r.Context(), job, user.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_update_failed", "failed to update job", requestID)
		return
	}
	h.record(r, user.UserID, "job.update", jobID, current, job)
	api.Success(w, job, requestID)
}

func (h *Handler) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	platforms, err := h.Store.ListPlatforms(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "platforms_list_failed", "failed to list platforms", requestID)
		return
	}
	if platforms == nil {
		platforms = []core.Platform{}
	}
	api.Success(w, platforms, requestID)
}

type platformPayload struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (h *Handler) handleCreatePlatform(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload platformPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("code", payload.Code, "is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreatePlatform(r.Context(), payload.Name, payload.Code, payload.Description)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "platform_create_failed", "failed to create platform", requestID)
		return
	}
	h.recordEntity(r, user.UserID, "platform.create", "platform", id, nil, payload)
	api.Created(w, map[string]int64{"platformId": id}, requestID)
}

func (h *Handler) record(r *http.Request, actorID int64, action string, entityID int64, before, after any) {
	h.recordEntity(r, actorID, action, "job", entityID, before, after)
}

func (h *Handler) recordEntity(r *http.Request, actorID int64, action, entityType string, entityID int64, before, after any) {
	if h.Audit == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID, requestID, shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func parseJobID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil || jobID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid job id", requestID)
		return 0, false
	}
	return jobID, true
}
