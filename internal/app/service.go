package app

import (
	"context"
	"errors"

	"procurement/internal/core"
)

// ErrAssistantDisabled is returned by DraftRequisition when no OpenAI key is configured.
var ErrAssistantDisabled = errors.New("requisition assistant is not configured")

// RequisitionDrafter turns a free-text request into a requisition the caller may submit.
// Implementations never persist anything.
type RequisitionDrafter interface {
	DraftRequisition(ctx context.Context, projectID int, text string) (*core.RequisitionInput, error)
}

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from the procurement engine. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Every state-changing method takes the acting identity explicitly.
type ApplicationService interface {
	// ── Requisitions ─────────────────────────────────────────────────────────

	// CreateRequisition stores a new requisition in draft, or pending when req.Submit is set.
	CreateRequisition(ctx context.Context, actor core.Actor, req CreateRequisitionRequest) (*RequisitionResult, error)

	// GetRequisition returns a single requisition with its lines.
	GetRequisition(ctx context.Context, id int) (*RequisitionResult, error)

	// ListRequisitions returns requisitions, optionally filtered by status, project and creation date.
	ListRequisitions(ctx context.Context, req ListRequisitionsRequest) (*RequisitionsResult, error)

	// SubmitRequisition moves a draft requisition to pending.
	SubmitRequisition(ctx context.Context, actor core.Actor, id int) (*RequisitionResult, error)

	// ApproveRequisition approves a pending requisition.
	ApproveRequisition(ctx context.Context, actor core.Actor, id int, notes string) (*RequisitionResult, error)

	// RejectRequisition rejects a pending requisition.
	RejectRequisition(ctx context.Context, actor core.Actor, id int, notes string) (*RequisitionResult, error)

	// DeriveOrder creates the single draft purchase order for an approved requisition.
	// vendorID may be zero.
	DeriveOrder(ctx context.Context, actor core.Actor, requisitionID, vendorID int) (*PurchaseOrderResult, error)

	// DeleteRequisition removes a draft or pending requisition with no derived order.
	DeleteRequisition(ctx context.Context, actor core.Actor, id int) error

	// DraftRequisition asks the assistant to structure free text into requisition lines.
	// The result is not stored. Returns ErrAssistantDisabled when no drafter is wired.
	DraftRequisition(ctx context.Context, projectID int, text string) (*RequisitionDraftResult, error)

	// ── Purchase orders ──────────────────────────────────────────────────────

	// CreatePurchaseOrder creates a draft purchase order, or a sent one when req.Issue is set.
	CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)

	// GetPurchaseOrder returns a single purchase order by its internal ID.
	GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrderResult, error)

	// ListPurchaseOrders returns purchase orders, optionally filtered by status, vendor, project and date.
	ListPurchaseOrders(ctx context.Context, req ListPurchaseOrdersRequest) (*PurchaseOrdersResult, error)

	// UpdatePurchaseOrder replaces vendor, terms and lines of a draft, sent or confirmed order.
	UpdatePurchaseOrder(ctx context.Context, actor core.Actor, id int, req UpdatePurchaseOrderRequest) (*PurchaseOrderResult, error)

	// IssuePurchaseOrder sends a draft order to its vendor.
	IssuePurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error)

	// ConfirmPurchaseOrder records the vendor's confirmation of a sent order.
	ConfirmPurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error)

	// ProcessPurchaseOrder marks a confirmed order as being fulfilled.
	ProcessPurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error)

	// CancelPurchaseOrder cancels any non-terminal order. Received quantities are kept.
	CancelPurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error)

	// DeletePurchaseOrder removes a draft or cancelled order that has no receipts.
	DeletePurchaseOrder(ctx context.Context, actor core.Actor, id int) error

	// ReceivePurchaseOrder records a delivery against an order, all lines or none.
	ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePORequest) (*POReceiptResult, error)

	// ListReceipts returns the goods receipts recorded against an order, oldest first.
	ListReceipts(ctx context.Context, poID int) (*ReceiptsResult, error)

	// ── Reporting ────────────────────────────────────────────────────────────

	// GetSpendReport returns spend totals for orders dated between from and to (YYYY-MM-DD, inclusive).
	GetSpendReport(ctx context.Context, from, to string) (*SpendReportResult, error)
}
