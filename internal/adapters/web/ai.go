package web

import (
	"net/http"
)

type draftBody struct {
	ProjectID int    `json:"project_id" validate:"required,gt=0"`
	Text      string `json:"text" validate:"required,max=4000"`
}

// apiDraftRequisition handles POST /api/assistant/requisition-draft.
// The draft is returned for review; submit it through POST /api/requisitions.
func (h *Handler) apiDraftRequisition(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.DraftRequisition(r.Context(), body.ProjectID, body.Text)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Draft)
}
