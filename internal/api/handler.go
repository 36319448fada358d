// Package api provides HTTP handlers for the image lake REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/michaelsamjatin/imagelake/internal/domain"
	"github.com/michaelsamjatin/imagelake/internal/middleware"
	"github.com/michaelsamjatin/imagelake/internal/service/dataset"
	"github.com/michaelsamjatin/imagelake/internal/service/pipeline"
)

// Handler serves the REST API.
type Handler struct {
	datasets *dataset.Service
	pipeline *pipeline.Service
	lake     domain.LakeStore
	audit    domain.AuditRepository
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(
	datasets *dataset.Service,
	pipe *pipeline.Service,
	lake domain.LakeStore,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		datasets: datasets,
		pipeline: pipe,
		lake:     lake,
		audit:    audit,
		logger:   logger,
	}
}

// Routes mounts all API endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.listDatasets)
			r.Post("/", h.createDataset)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.getDataset)
				r.Delete("/", h.deleteDataset)
				r.Post("/runs", h.triggerRun)
			})
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.listRuns)
			r.Get("/{id}", h.getRun)
		})
		r.Route("/lake", func(r chi.Router) {
			r.Get("/stats", h.lakeStats)
			r.Get("/images", h.listImages)
		})
		r.Get("/audit", h.listAudit)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- response plumbing ---

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type listEnvelope[T any] struct {
	Data          []T     `json:"data"`
	TotalCount    int64   `json:"total_count"`
	NextPageToken *string `json:"next_page_token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, status, errorResponse{Code: status, Message: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// pageFromQuery extracts a PageRequest from max_results/page_token params.
func pageFromQuery(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// actorFromRequest identifies the caller for audit purposes.
func actorFromRequest(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
