package api

import (
	"net/http"
	"time"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

type lakeStatsResponse struct {
	TotalImages int64         `json:"total_images"`
	Buckets     []statsBucket `json:"buckets"`
}

type statsBucket struct {
	Dataset string `json:"dataset"`
	Class   string `json:"class"`
	Split   string `json:"split"`
	Count   int64  `json:"count"`
}

type imageMetaResponse struct {
	Filename       string    `json:"filename"`
	OriginalPath   string    `json:"original_path"`
	Dataset        string    `json:"dataset"`
	Class          string    `json:"class"`
	Split          string    `json:"split"`
	OriginalWidth  int64     `json:"original_width"`
	OriginalHeight int64     `json:"original_height"`
	ResizedWidth   int64     `json:"resized_width"`
	ResizedHeight  int64     `json:"resized_height"`
	SizeBytes      int64     `json:"size_bytes"`
	LoadRunID      string    `json:"load_run_id"`
	Source         string    `json:"source"`
	LoadedAt       time.Time `json:"loaded_at"`
}

func imageMetaToAPI(m domain.ImageMeta) imageMetaResponse {
	return imageMetaResponse{
		Filename:       m.Filename,
		OriginalPath:   m.OriginalPath,
		Dataset:        m.Dataset,
		Class:          m.Class,
		Split:          m.Split,
		OriginalWidth:  m.OriginalWidth,
		OriginalHeight: m.OriginalHeight,
		ResizedWidth:   m.ResizedWidth,
		ResizedHeight:  m.ResizedHeight,
		SizeBytes:      m.SizeBytes,
		LoadRunID:      m.LoadRunID,
		Source:         m.Source,
		LoadedAt:       m.LoadedAt,
	}
}

func (h *Handler) lakeStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.lake.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := lakeStatsResponse{Buckets: make([]statsBucket, 0, len(rows))}
	for _, row := range rows {
		out.TotalImages += row.Count
		out.Buckets = append(out.Buckets, statsBucket{
			Dataset: row.Dataset,
			Class:   row.Class,
			Split:   row.Split,
			Count:   row.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	filter := domain.ImageFilter{
		Dataset: optionalQuery(r, "dataset"),
		Class:   optionalQuery(r, "class"),
		Split:   optionalQuery(r, "split"),
		Page:    pageFromQuery(r),
	}

	items, total, err := h.lake.ListImages(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := listEnvelope[imageMetaResponse]{Data: make([]imageMetaResponse, 0, len(items)), TotalCount: total}
	for _, m := range items {
		out.Data = append(out.Data, imageMetaToAPI(m))
	}
	if token := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total); token != "" {
		out.NextPageToken = &token
	}
	writeJSON(w, http.StatusOK, out)
}
