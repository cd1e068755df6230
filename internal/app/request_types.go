package app

import (
	"github.com/shopspring/decimal"
)

// CreateRequisitionRequest is the input for creating a new requisition.
type CreateRequisitionRequest struct {
	ProjectID  int
	RequiredBy string // YYYY-MM-DD, optional
	Notes      string
	Submit     bool
	Lines      []RequisitionLineRequest
}

// RequisitionLineRequest is a single line within a CreateRequisitionRequest.
type RequisitionLineRequest struct {
	ItemName           string
	Description        string
	Category           string
	Quantity           decimal.Decimal
	Unit               string
	EstimatedUnitPrice decimal.Decimal
}

// ListRequisitionsRequest filters ListRequisitions. Empty fields match everything.
type ListRequisitionsRequest struct {
	Status    string
	ProjectID int
	From      string // YYYY-MM-DD
	To        string // YYYY-MM-DD
}

// CreatePurchaseOrderRequest is the input for creating a new purchase order.
type CreatePurchaseOrderRequest struct {
	VendorID  int
	ProjectID int
	Terms     TermsRequest
	Issue     bool
	Lines     []POLineRequest
}

// UpdatePurchaseOrderRequest replaces the editable parts of an order.
// Lines carrying an ID update that line; lines without one are added; missing lines are removed.
type UpdatePurchaseOrderRequest struct {
	VendorID int
	Terms    TermsRequest
	Lines    []POLineRequest
}

// TermsRequest carries the delivery and payment header of an order.
type TermsRequest struct {
	OrderDate        string // YYYY-MM-DD; defaults to today on create, unchanged on update
	ExpectedDelivery string // YYYY-MM-DD, optional
	ShippingAddress  string
	PaymentTerms     string
	Notes            string
}

// POLineRequest is a single line within a purchase order request.
type POLineRequest struct {
	ID          int
	ItemName    string
	Description string
	Category    string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
}

// ListPurchaseOrdersRequest filters ListPurchaseOrders. Empty fields match everything.
type ListPurchaseOrdersRequest struct {
	Status    string
	VendorID  int
	ProjectID int
	From      string
	To        string
}

// ReceivePORequest is the input for recording goods received against a PO.
type ReceivePORequest struct {
	POID        int
	ReceiptDate string // YYYY-MM-DD; defaults to today
	Notes       string
	Lines       []ReceivedLineInput
}

// ReceivedLineInput is a single line in a ReceivePORequest.
type ReceivedLineInput struct {
	POLineID    int
	QtyReceived decimal.Decimal
}
