package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GoodsReceipt is the append-only audit record of one reconciliation event.
type GoodsReceipt struct {
	ID              int           `json:"id"`
	PurchaseOrderID int           `json:"purchase_order_id"`
	ReceiptDate     time.Time     `json:"receipt_date"`
	Notes           string        `json:"notes"`
	ReceivedBy      string        `json:"received_by"`
	StatusAfter     POStatus      `json:"status_after"`
	CreatedAt       time.Time     `json:"created_at"`
	Lines           []ReceiptLine `json:"lines"`
}

// ReceiptLine is the quantity delta applied to one purchase order line.
type ReceiptLine struct {
	PurchaseOrderLineID int             `json:"purchase_order_line_id"`
	QuantityReceived    decimal.Decimal `json:"quantity_received"`
}

// ReceiptLineInput is one line of a goods-receipt submission.
type ReceiptLineInput struct {
	PurchaseOrderLineID int             `json:"purchase_order_line_id"`
	QuantityReceived    decimal.Decimal `json:"quantity_received"`
}

// ReceivingService reconciles deliveries against ordered quantities.
type ReceivingService interface {
	// Receive applies a goods receipt atomically: every line is validated against the
	// remaining quantity before any line changes, received quantities are increased,
	// the order status is recomputed and an audit record is appended.
	Receive(ctx context.Context, actor Actor, poID int, lines []ReceiptLineInput, receiptDate time.Time, notes string) (*PurchaseOrder, *GoodsReceipt, error)

	// ListReceipts returns the audit trail of an order, oldest first.
	ListReceipts(ctx context.Context, poID int) ([]GoodsReceipt, error)
}
