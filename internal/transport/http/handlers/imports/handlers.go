package importshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"worktrack/internal/domain/audit"
	"worktrack/internal/domain/importer"
	"worktrack/internal/transport/http/api"
	"worktrack/internal/transport/http/middleware"
	"worktrack/internal/transport/http/shared"
)

type Handler struct {
	Service *importer.Service
	Audit   *audit.Service
}

func NewHandler(service *importer.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.With(middleware.RequireManager).Post("/work-orders", h.handleImportWorkOrders)
	})
}

type importPayload struct {
	WorkOrders []importer.WorkOrder `json:"workOrders"`
}

func (h *Handler) handleImportWorkOrders(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload importPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(payload.WorkOrders) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "workOrders is required", requestID)
		return
	}

	result, err := h.Service.Import(r.Context(), payload.WorkOrders, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "import_rejected", err.Error(), requestID)
		return
	}

	if h.Audit != nil {
		summary := map[string]any{
			"jobsCreated":    result.JobsCreated,
			"jobsMatched":    result.JobsMatched,
			"entriesCreated": result.EntriesCreated,
			"entriesSkipped": result.EntriesSkipped,
			"errors":         len(result.Errors),
		}
		if err := h.Audit.Record(r.Context(), user.UserID, "import.work_orders", "import", 0, requestID, shared.ClientIP(r), nil, summary); err != nil {
			slog.Warn("audit import.work_orders failed", "err", err)
		}
	}

	api.Success(w, result, requestID)
}
