package web

import (
	"net/http"
)

// apiSpendReport handles GET /api/reports/spend?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) apiSpendReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.GetSpendReport(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Report)
}
