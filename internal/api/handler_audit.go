package api

import (
	"net/http"
	"time"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

type auditEntryResponse struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		Actor:  optionalQuery(r, "actor"),
		Action: optionalQuery(r, "action"),
		Page:   pageFromQuery(r),
	}

	items, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := listEnvelope[auditEntryResponse]{Data: make([]auditEntryResponse, 0, len(items)), TotalCount: total}
	for _, e := range items {
		out.Data = append(out.Data, auditEntryResponse{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    e.Action,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	if token := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total); token != "" {
		out.NextPageToken = &token
	}
	writeJSON(w, http.StatusOK, out)
}
