package technicianshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/auth"
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
	r.Route("/technicians", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.With(middleware.RequireManager).Post("/", h.handleCreate)
		r.Get("/{techID}", h.handleGet)
		r.With(middleware.RequireManager).Put("/{techID}", h.handleUpdate)
	})
}

type technicianPayload struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	HourlyRate float64 `json:"hourlyRate"`
	Status     string  `json:"status"`
	HireDate   string  `json:"hireDate"`
}

func (p technicianPayload) toTechnician(v *shared.Validator) core.Technician {
	v.Required("name", p.Name, "is required")
	v.Positive("hourlyRate", p.HourlyRate, "must not be negative")
	if p.Status == "" {
		p.Status = core.TechStatusActive
	}
	v.Enum("status", p.Status, []string{core.TechStatusActive, core.TechStatusInactive},
		"must be active or inactive")

	tech := core.Technician{
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		HourlyRate: p.HourlyRate,
		Status:     p.Status,
	}
	if p.HireDate != "" {
		if hireDate, ok := v.Date("hireDate", p.HireDate); ok {
			tech.HireDate = &hireDate
		}
	}
	return tech
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	technicians, err := h.Store.ListTechnicians(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "technicians_list_failed", "failed to list technicians", requestID)
		return
	}
	if technicians == nil {
		technicians = []core.Technician{}
	}
	api.Success(w, technicians, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	techID, ok := parseTechID(w, r, requestID)
	if !ok {
		return
	}
	// Technicians may only look themselves up.
	if user.Role == auth.RoleTechnician && user.TechID != techID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your technician record", requestID)
		return
	}

	tech, err := h.Store.GetTechnician(r.Context(), techID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "technician not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "technician_get_failed", "failed to load technician", requestID)
		return
	}
	api.Success(w, tech, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload technicianPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	tech := payload.toTechnician(v)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreateTechnician(r.Context(), tech)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "technician_create_failed", "failed to create technician", requestID)
		return
	}
	tech.ID = id
	tech.CreatedAt = time.Now().UTC()
	h.record(r, user.UserID, "technician.create", id, nil, tech)
	api.Created(w, tech, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	techID, ok := parseTechID(w, r, requestID)
	if !ok {
		return
	}
	current, err := h.Store.GetTechnician(r.Context(), techID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "technician not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "technician_update_failed", "failed to load technician", requestID)
		return
	}

	var payload technicianPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	tech := payload.toTechnician(v)
	if v.Reject(w, requestID) {
		return
	}
	tech.ID = techID

	if err := h.Store.UpdateTechnician(r.Context(), tech); err != nil {
		api.Fail(w, http.StatusInternalServerError, "technician_update_failed", "failed to update technician", requestID)
		return
	}
	h.record(r, user.UserID, "technician.update", techID, current, tech)
	api.Success(w, tech, requestID)
}

func (h *Handler) record(r *http.Request, actorID int64, action string, entityID int64, before, after any) {
	if h.Audit == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), actorID, action, "technician", entityID, requestID, shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func parseTechID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	techID, err := strconv.ParseInt(chi.URLParam(r, "techID"), 10, 64)
	if err != nil || techID <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid technician id", requestID)
		return 0, false
	}
	return techID, true
}
