package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"procurement/internal/app"
	"procurement/internal/core"
)

type orderLineBody struct {
	ID          int    `json:"id" validate:"gte=0"`
	ItemName    string `json:"item_name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=100"`
	Quantity    string `json:"ordered_quantity" validate:"required,numeric"`
	Unit        string `json:"unit" validate:"max=20"`
	UnitPrice   string `json:"unit_price" validate:"required,numeric"`
}

type termsBody struct {
	OrderDate        string `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedDelivery string `json:"expected_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	ShippingAddress  string `json:"shipping_address" validate:"max=500"`
	PaymentTerms     string `json:"payment_terms" validate:"max=200"`
	Notes            string `json:"notes" validate:"max=2000"`
}

func (t termsBody) toRequest() app.TermsRequest {
	return app.TermsRequest{
		OrderDate:        t.OrderDate,
		ExpectedDelivery: t.ExpectedDelivery,
		ShippingAddress:  t.ShippingAddress,
		PaymentTerms:     t.PaymentTerms,
		Notes:            t.Notes,
	}
}

type createOrderBody struct {
	VendorID  int             `json:"vendor_id" validate:"gte=0"`
	ProjectID int             `json:"project_id" validate:"required,gt=0"`
	Issue     bool            `json:"issue"`
	Lines     []orderLineBody `json:"lines" validate:"required,min=1,dive"`
	termsBody
}

type updateOrderBody struct {
	VendorID int             `json:"vendor_id" validate:"gte=0"`
	Lines    []orderLineBody `json:"lines" validate:"required,min=1,dive"`
	termsBody
}

type receiveBody struct {
	ReceiptDate string            `json:"receipt_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string            `json:"notes" validate:"max=2000"`
	Lines       []receiveLineBody `json:"lines" validate:"required,min=1,dive"`
}

type receiveLineBody struct {
	LineID   int    `json:"purchase_order_line_id" validate:"required,gt=0"`
	Quantity string `json:"quantity_received" validate:"required,numeric"`
}

// parseOrderLines converts request lines, writing 400 and returning false on a bad number.
func parseOrderLines(w http.ResponseWriter, r *http.Request, lines []orderLineBody) ([]app.POLineRequest, bool) {
	out := make([]app.POLineRequest, 0, len(lines))
	for i, l := range lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			writeError(w, r, fmt.Sprintf("line %d: invalid ordered_quantity", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return nil, false
		}
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			writeError(w, r, fmt.Sprintf("line %d: invalid unit_price", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return nil, false
		}
		out = append(out, app.POLineRequest{
			ID:          l.ID,
			ItemName:    l.ItemName,
			Description: l.Description,
			Category:    l.Category,
			Quantity:    qty,
			Unit:        l.Unit,
			UnitPrice:   price,
		})
	}
	return out, true
}

// apiListPurchaseOrders handles GET /api/purchase-orders?status=&vendor_id=&project_id=&from=&to=.
func (h *Handler) apiListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := queryInt(w, r, "vendor_id")
	if !ok {
		return
	}
	projectID, ok := queryInt(w, r, "project_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.ListPurchaseOrders(r.Context(), app.ListPurchaseOrdersRequest{
		Status:    q.Get("status"),
		VendorID:  vendorID,
		ProjectID: projectID,
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.PurchaseOrders)
}

// apiCreatePurchaseOrder handles POST /api/purchase-orders.
func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	lines, ok := parseOrderLines(w, r, body.Lines)
	if !ok {
		return
	}
	result, err := h.svc.CreatePurchaseOrder(r.Context(), actor(r), app.CreatePurchaseOrderRequest{
		VendorID:  body.VendorID,
		ProjectID: body.ProjectID,
		Terms:     body.termsBody.toRequest(),
		Issue:     body.Issue,
		Lines:     lines,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.PurchaseOrder)
}

// apiGetPurchaseOrder handles GET /api/purchase-orders/{id}.
func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.PurchaseOrder)
}

// apiUpdatePurchaseOrder handles PUT /api/purchase-orders/{id}.
func (h *Handler) apiUpdatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body updateOrderBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	lines, ok := parseOrderLines(w, r, body.Lines)
	if !ok {
		return
	}
	result, err := h.svc.UpdatePurchaseOrder(r.Context(), actor(r), id, app.UpdatePurchaseOrderRequest{
		VendorID: body.VendorID,
		Terms:    body.termsBody.toRequest(),
		Lines:    lines,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.PurchaseOrder)
}

// apiDeletePurchaseOrder handles DELETE /api/purchase-orders/{id}.
func (h *Handler) apiDeletePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePurchaseOrder(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transition runs a manual status change for the order named in the path.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor core.Actor, id int) (*app.PurchaseOrderResult, error),
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := fn(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.PurchaseOrder)
}

// apiIssuePurchaseOrder handles POST /api/purchase-orders/{id}/issue.
func (h *Handler) apiIssuePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.IssuePurchaseOrder)
}

// apiConfirmPurchaseOrder handles POST /api/purchase-orders/{id}/confirm.
func (h *Handler) apiConfirmPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.ConfirmPurchaseOrder)
}

// apiProcessPurchaseOrder handles POST /api/purchase-orders/{id}/process.
func (h *Handler) apiProcessPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.ProcessPurchaseOrder)
}

// apiCancelPurchaseOrder handles POST /api/purchase-orders/{id}/cancel.
func (h *Handler) apiCancelPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CancelPurchaseOrder)
}

// receiveResponse pairs the updated order with the receipt just recorded.
type receiveResponse struct {
	PurchaseOrder *core.PurchaseOrder `json:"purchase_order"`
	Receipt       *core.GoodsReceipt  `json:"receipt"`
}

// apiReceivePurchaseOrder handles POST /api/purchase-orders/{id}/receive.
// Body: { receipt_date?, notes?, lines: [{purchase_order_line_id, quantity_received}] }
func (h *Handler) apiReceivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body receiveBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	req := app.ReceivePORequest{POID: id, ReceiptDate: body.ReceiptDate, Notes: body.Notes}
	for i, l := range body.Lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			writeError(w, r, fmt.Sprintf("line %d: invalid quantity_received", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Lines = append(req.Lines, app.ReceivedLineInput{POLineID: l.LineID, QtyReceived: qty})
	}

	result, err := h.svc.ReceivePurchaseOrder(r.Context(), actor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, receiveResponse{PurchaseOrder: result.PurchaseOrder, Receipt: result.Receipt})
}

// apiListReceipts handles GET /api/purchase-orders/{id}/receipts.
func (h *Handler) apiListReceipts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListReceipts(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Receipts)
}
