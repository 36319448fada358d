package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

type datasetResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SourceURI    string    `json:"source_uri"`
	Layout       string    `json:"layout"`
	Description  string    `json:"description,omitempty"`
	ScheduleCron *string   `json:"schedule_cron,omitempty"`
	IsPaused     bool      `json:"is_paused"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type createDatasetRequest struct {
	Name         string  `json:"name"`
	SourceURI    string  `json:"source_uri"`
	Layout       string  `json:"layout"`
	Description  string  `json:"description,omitempty"`
	ScheduleCron *string `json:"schedule_cron,omitempty"`
	IsPaused     bool    `json:"is_paused,omitempty"`
}

func datasetToAPI(d domain.Dataset) datasetResponse {
	return datasetResponse{
		ID:           d.ID,
		Name:         d.Name,
		SourceURI:    d.SourceURI,
		Layout:       d.Layout,
		Description:  d.Description,
		ScheduleCron: d.ScheduleCron,
		IsPaused:     d.IsPaused,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	items, total, err := h.datasets.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := listEnvelope[datasetResponse]{Data: make([]datasetResponse, 0, len(items)), TotalCount: total}
	for _, d := range items {
		out.Data = append(out.Data, datasetToAPI(d))
	}
	if token := domain.NextPageToken(page.Offset(), page.Limit(), total); token != "" {
		out.NextPageToken = &token
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createDataset(w http.ResponseWriter, r *http.Request) {
	var body createDatasetRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	ds, err := h.datasets.Create(r.Context(), actorFromRequest(r), domain.CreateDatasetRequest{
		Name:         body.Name,
		SourceURI:    body.SourceURI,
		Layout:       body.Layout,
		Description:  body.Description,
		ScheduleCron: body.ScheduleCron,
		IsPaused:     body.IsPaused,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, datasetToAPI(*ds))
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasets.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetToAPI(*ds))
}

func (h *Handler) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.datasets.Delete(r.Context(), actorFromRequest(r), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
