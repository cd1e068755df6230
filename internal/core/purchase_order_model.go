package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// POStatus is the closed set of purchase order states.
//
//	draft → sent → confirmed → processing
//	any non-terminal → partially_received → completed   (receipts only)
//	any non-terminal → cancelled                         (manual)
type POStatus string

const (
	PODraft             POStatus = "draft"
	POSent              POStatus = "sent"
	POConfirmed         POStatus = "confirmed"
	POProcessing        POStatus = "processing"
	POPartiallyReceived POStatus = "partially_received"
	POCompleted         POStatus = "completed"
	POCancelled         POStatus = "cancelled"
)

// manualTransitions lists the transitions a user may request directly.
// partially_received and completed are never set by hand: they are derived from line quantities.
var manualTransitions = map[POStatus][]POStatus{
	PODraft:             {POSent, POCancelled},
	POSent:              {POConfirmed, POCancelled},
	POConfirmed:         {POProcessing, POCancelled},
	POProcessing:        {POCancelled},
	POPartiallyReceived: {POCancelled},
	POCompleted:         nil,
	POCancelled:         nil,
}

// Valid reports whether s is one of the defined statuses.
func (s POStatus) Valid() bool {
	_, ok := manualTransitions[s]
	return ok
}

// IsTerminal reports whether s is completed or cancelled.
func (s POStatus) IsTerminal() bool {
	return s == POCompleted || s == POCancelled
}

// Editable reports whether lines and terms may still change (nothing received yet).
func (s POStatus) Editable() bool {
	return s == PODraft || s == POSent || s == POConfirmed
}

// CanTransitionTo reports whether a manual transition s → next is allowed.
func (s POStatus) CanTransitionTo(next POStatus) bool {
	for _, allowed := range manualTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParsePOStatus converts user input into a POStatus.
func ParsePOStatus(s string) (POStatus, error) {
	st := POStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid("status", "unknown purchase order status %q", s)
	}
	return st, nil
}

// PurchaseOrder is a commitment to a vendor. Subtotal, TaxAmount and TotalAmount are
// derived from Lines by ComputeTotals and are never set independently.
type PurchaseOrder struct {
	ID               int                 `json:"id"`
	Number           string              `json:"po_number"`
	VendorID         int                 `json:"vendor_id"`
	ProjectID        int                 `json:"project_id"`
	RequisitionID    *int                `json:"requisition_id,omitempty"`
	OrderDate        time.Time           `json:"order_date"`
	ExpectedDelivery *time.Time          `json:"expected_delivery_date,omitempty"`
	ShippingAddress  string              `json:"shipping_address"`
	PaymentTerms     string              `json:"payment_terms"`
	Notes            string              `json:"notes"`
	Status           POStatus            `json:"status"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	TaxAmount        decimal.Decimal     `json:"tax_amount"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	CreatedBy        string              `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Lines            []PurchaseOrderLine `json:"lines"`
}

// PurchaseOrderLine is a single ordered item. 0 ≤ ReceivedQuantity ≤ OrderedQuantity always holds.
type PurchaseOrderLine struct {
	ID               int             `json:"id"`
	LineNumber       int             `json:"line_number"`
	ItemName         string          `json:"item_name"`
	Description      string          `json:"description"`
	Category         string          `json:"category,omitempty"`
	OrderedQuantity  decimal.Decimal `json:"ordered_quantity"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// Remaining is the quantity still expected on the line.
func (l PurchaseOrderLine) Remaining() decimal.Decimal {
	return l.OrderedQuantity.Sub(l.ReceivedQuantity)
}

// ComputeTotals recomputes every line total and the order's subtotal, tax and total.
func (po *PurchaseOrder) ComputeTotals() {
	subtotal := decimal.Zero
	for i := range po.Lines {
		lt := po.Lines[i].OrderedQuantity.Mul(po.Lines[i].UnitPrice)
		po.Lines[i].LineTotal = lt.Round(2)
		subtotal = subtotal.Add(lt)
	}
	po.Subtotal = subtotal.Round(2)
	po.TaxAmount = po.Subtotal.Mul(TaxRate).Round(2)
	po.TotalAmount = po.Subtotal.Add(po.TaxAmount)
}

// Line returns the line with the given ID.
func (po *PurchaseOrder) Line(lineID int) (*PurchaseOrderLine, bool) {
	for i := range po.Lines {
		if po.Lines[i].ID == lineID {
			return &po.Lines[i], true
		}
	}
	return nil, false
}

// DeriveReceiptStatus computes the status implied by line quantities. It is a pure function
// of the received/ordered pairs: every line full → completed; any line started →
// partially_received; otherwise current is returned unchanged.
func DeriveReceiptStatus(current POStatus, lines []PurchaseOrderLine) POStatus {
	if len(lines) == 0 {
		return current
	}
	allFull, anyReceived := true, false
	for _, l := range lines {
		if !l.ReceivedQuantity.Equal(l.OrderedQuantity) {
			allFull = false
		}
		if l.ReceivedQuantity.IsPositive() {
			anyReceived = true
		}
	}
	switch {
	case allFull:
		return POCompleted
	case anyReceived:
		return POPartiallyReceived
	default:
		return current
	}
}

// OrderLineInput holds the fields of one purchase order line. ID is set only on
// UpdateOrder to keep an existing line (and its received quantity).
type OrderLineInput struct {
	ID              int             `json:"id,omitempty"`
	ItemName        string          `json:"item_name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// DeliveryTerms groups the header fields describing delivery and payment.
type DeliveryTerms struct {
	OrderDate        time.Time  `json:"order_date"`
	ExpectedDelivery *time.Time `json:"expected_delivery_date,omitempty"`
	ShippingAddress  string     `json:"shipping_address"`
	PaymentTerms     string     `json:"payment_terms"`
	Notes            string     `json:"notes"`
}

// OrderInput holds the fields required to create a purchase order.
type OrderInput struct {
	VendorID  int              `json:"vendor_id"`
	ProjectID int              `json:"project_id"`
	Lines     []OrderLineInput `json:"lines"`
	Terms     DeliveryTerms    `json:"terms"`
	// Issue creates the order directly in sent instead of draft.
	Issue bool `json:"issue"`
}

// OrderUpdate replaces an editable order's vendor, terms and line list.
type OrderUpdate struct {
	VendorID int              `json:"vendor_id"`
	Lines    []OrderLineInput `json:"lines"`
	Terms    DeliveryTerms    `json:"terms"`
}

func validateOrderLines(lines []OrderLineInput) error {
	if len(lines) == 0 {
		return invalid("lines", "purchase order must have at least one line")
	}
	for i, l := range lines {
		field := fmt.Sprintf("lines[%d]", i)
		if strings.TrimSpace(l.ItemName) == "" {
			return invalid(field+".item_name", "item name is required")
		}
		if !l.OrderedQuantity.IsPositive() {
			return invalid(field+".ordered_quantity", "ordered quantity must be greater than zero, got %s", l.OrderedQuantity)
		}
		if l.UnitPrice.IsNegative() {
			return invalid(field+".unit_price", "unit price cannot be negative, got %s", l.UnitPrice)
		}
		if exceedsScale(l.OrderedQuantity) {
			return invalid(field+".ordered_quantity", "ordered quantity allows at most %d decimal places, got %s", QuantityScale, l.OrderedQuantity)
		}
		if exceedsScale(l.UnitPrice) {
			return invalid(field+".unit_price", "unit price allows at most %d decimal places, got %s", QuantityScale, l.UnitPrice)
		}
	}
	return nil
}

// PurchaseOrderFilter narrows ListOrders. Zero values mean "any".
type PurchaseOrderFilter struct {
	Status    POStatus
	VendorID  int
	ProjectID int
	From      *time.Time
	To        *time.Time
}

// Matches reports whether po satisfies every set criterion. From/To bound OrderDate by day.
func (f PurchaseOrderFilter) Matches(po *PurchaseOrder) bool {
	if f.Status != "" && po.Status != f.Status {
		return false
	}
	if f.VendorID != 0 && po.VendorID != f.VendorID {
		return false
	}
	if f.ProjectID != 0 && po.ProjectID != f.ProjectID {
		return false
	}
	return withinDays(po.OrderDate, f.From, f.To)
}

// PurchaseOrderService provides purchase order creation, editing and manual transitions.
type PurchaseOrderService interface {
	// CreateOrder creates a draft (or sent, when input.Issue is set) order with computed totals.
	CreateOrder(ctx context.Context, actor Actor, input OrderInput) (*PurchaseOrder, error)

	// GetOrder returns an order with all lines.
	GetOrder(ctx context.Context, id int) (*PurchaseOrder, error)

	// ListOrders returns orders matching filter, newest first.
	ListOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, error)

	// UpdateOrder replaces lines and terms while the order is draft, sent or confirmed.
	UpdateOrder(ctx context.Context, actor Actor, id int, update OrderUpdate) (*PurchaseOrder, error)

	// IssueOrder sends a draft order to the vendor (draft → sent).
	IssueOrder(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error)

	// ConfirmOrder records vendor confirmation (sent → confirmed).
	ConfirmOrder(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error)

	// StartProcessing marks a confirmed order as being fulfilled (confirmed → processing).
	StartProcessing(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error)

	// CancelOrder moves any non-terminal order to cancelled. Received quantities are kept.
	CancelOrder(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error)

	// DeleteOrder removes a draft or cancelled order that has no receipts.
	DeleteOrder(ctx context.Context, actor Actor, id int) error
}
