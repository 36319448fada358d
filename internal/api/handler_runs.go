package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

type loadRunResponse struct {
	ID            string     `json:"id"`
	DatasetID     string     `json:"dataset_id"`
	DatasetName   string     `json:"dataset_name"`
	Status        string     `json:"status"`
	TriggerType   string     `json:"trigger_type"`
	TriggeredBy   string     `json:"triggered_by"`
	ImageSize     int        `json:"image_size"`
	ImagesSeen    int64      `json:"images_seen"`
	ImagesLoaded  int64      `json:"images_loaded"`
	ImagesSkipped int64      `json:"images_skipped"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type triggerRunRequest struct {
	ImageSize int `json:"image_size,omitempty"`
}

func loadRunToAPI(lr domain.LoadRun) loadRunResponse {
	return loadRunResponse{
		ID:            lr.ID,
		DatasetID:     lr.DatasetID,
		DatasetName:   lr.DatasetName,
		Status:        lr.Status,
		TriggerType:   lr.TriggerType,
		TriggeredBy:   lr.TriggeredBy,
		ImageSize:     lr.ImageSize,
		ImagesSeen:    lr.ImagesSeen,
		ImagesLoaded:  lr.ImagesLoaded,
		ImagesSkipped: lr.ImagesSkipped,
		StartedAt:     lr.StartedAt,
		FinishedAt:    lr.FinishedAt,
		ErrorMessage:  lr.ErrorMessage,
		CreatedAt:     lr.CreatedAt,
	}
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	var body triggerRunRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &body); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	run, err := h.pipeline.TriggerRun(r.Context(), actorFromRequest(r),
		chi.URLParam(r, "name"), body.ImageSize, domain.TriggerTypeManual)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, loadRunToAPI(*run))
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := domain.LoadRunFilter{
		Status: optionalQuery(r, "status"),
		Page:   pageFromQuery(r),
	}
	if name := r.URL.Query().Get("dataset"); name != "" {
		ds, err := h.datasets.Get(r.Context(), name)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.DatasetID = &ds.ID
	}

	items, total, err := h.pipeline.ListRuns(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := listEnvelope[loadRunResponse]{Data: make([]loadRunResponse, 0, len(items)), TotalCount: total}
	for _, lr := range items {
		out.Data = append(out.Data, loadRunToAPI(lr))
	}
	if token := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total); token != "" {
		out.NextPageToken = &token
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.pipeline.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadRunToAPI(*run))
}
