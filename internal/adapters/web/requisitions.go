package web

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"procurement/internal/app"
)

type requisitionLineBody struct {
	ItemName           string `json:"item_name" validate:"required,max=200"`
	Description        string `json:"description" validate:"max=1000"`
	Category           string `json:"category" validate:"max=100"`
	Quantity           string `json:"quantity" validate:"required,numeric"`
	Unit               string `json:"unit" validate:"max=20"`
	EstimatedUnitPrice string `json:"estimated_unit_price" validate:"omitempty,numeric"`
}

type createRequisitionBody struct {
	ProjectID  int                   `json:"project_id" validate:"required,gt=0"`
	RequiredBy string                `json:"required_by" validate:"omitempty,datetime=2006-01-02"`
	Notes      string                `json:"notes" validate:"max=2000"`
	Submit     bool                  `json:"submit"`
	Lines      []requisitionLineBody `json:"lines" validate:"required,min=1,dive"`
}

type decisionBody struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type deriveBody struct {
	VendorID int `json:"vendor_id" validate:"gte=0"`
}

// apiListRequisitions handles GET /api/requisitions?status=&project_id=&from=&to=.
func (h *Handler) apiListRequisitions(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryInt(w, r, "project_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.ListRequisitions(r.Context(), app.ListRequisitionsRequest{
		Status:    q.Get("status"),
		ProjectID: projectID,
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Requisitions)
}

// apiCreateRequisition handles POST /api/requisitions.
func (h *Handler) apiCreateRequisition(w http.ResponseWriter, r *http.Request) {
	var body createRequisitionBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateRequisitionRequest{
		ProjectID:  body.ProjectID,
		RequiredBy: body.RequiredBy,
		Notes:      body.Notes,
		Submit:     body.Submit,
	}
	for i, l := range body.Lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			writeError(w, r, fmt.Sprintf("line %d: invalid quantity", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		price, err := optionalDecimal(l.EstimatedUnitPrice)
		if err != nil {
			writeError(w, r, fmt.Sprintf("line %d: invalid estimated_unit_price", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Lines = append(req.Lines, app.RequisitionLineRequest{
			ItemName:           l.ItemName,
			Description:        l.Description,
			Category:           l.Category,
			Quantity:           qty,
			Unit:               l.Unit,
			EstimatedUnitPrice: price,
		})
	}

	result, err := h.svc.CreateRequisition(r.Context(), actor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.Requisition)
}

// apiGetRequisition handles GET /api/requisitions/{id}.
func (h *Handler) apiGetRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetRequisition(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Requisition)
}

// apiDeleteRequisition handles DELETE /api/requisitions/{id}.
func (h *Handler) apiDeleteRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRequisition(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiSubmitRequisition handles POST /api/requisitions/{id}/submit.
func (h *Handler) apiSubmitRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.SubmitRequisition(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Requisition)
}

// apiApproveRequisition handles POST /api/requisitions/{id}/approve.
// Body: { notes? }
func (h *Handler) apiApproveRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body decisionBody
	if !h.decodeOptionalJSON(w, r, &body) {
		return
	}
	result, err := h.svc.ApproveRequisition(r.Context(), actor(r), id, body.Notes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Requisition)
}

// apiRejectRequisition handles POST /api/requisitions/{id}/reject.
// Body: { notes? }
func (h *Handler) apiRejectRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body decisionBody
	if !h.decodeOptionalJSON(w, r, &body) {
		return
	}
	result, err := h.svc.RejectRequisition(r.Context(), actor(r), id, body.Notes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Requisition)
}

// apiDeriveOrder handles POST /api/requisitions/{id}/derive-po.
// Body: { vendor_id? }
func (h *Handler) apiDeriveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body deriveBody
	if !h.decodeOptionalJSON(w, r, &body) {
		return
	}
	result, err := h.svc.DeriveOrder(r.Context(), actor(r), id, body.VendorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.PurchaseOrder)
}
