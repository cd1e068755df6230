package core

import (
	"context"
	"strconv"
	"time"
)

// Reader is the read side of the persistence boundary.
type Reader interface {
	GetRequisition(ctx context.Context, id int) (*Requisition, error)
	ListRequisitions(ctx context.Context, filter RequisitionFilter) ([]Requisition, error)
	GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, error)
	ListReceipts(ctx context.Context, poID int) ([]GoodsReceipt, error)
}

// Tx is one store transaction. Reads inside a Tx observe its own uncommitted writes.
// Lock* methods read an entity and hold its row lock until the transaction ends.
// Not-found lookups return *NotFoundError; lock timeouts return *ConcurrencyError.
type Tx interface {
	Reader

	LockRequisition(ctx context.Context, id int) (*Requisition, error)
	LockPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)

	// NextNumber returns the next human-readable number for prefix on day, e.g. PO-20260301-0001.
	NextNumber(ctx context.Context, prefix string, day time.Time) (string, error)

	// InsertRequisition stores r and its lines, assigning IDs and CreatedAt.
	InsertRequisition(ctx context.Context, r *Requisition) error
	// UpdateRequisitionStatus persists status, approver, approval notes and decision time.
	UpdateRequisitionStatus(ctx context.Context, r *Requisition) error
	DeleteRequisition(ctx context.Context, id int) error
	// DerivedOrderID returns the purchase order derived from a requisition, if any.
	DerivedOrderID(ctx context.Context, requisitionID int) (int, bool, error)

	// InsertPurchaseOrder stores po and its lines, assigning IDs and timestamps.
	InsertPurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	// UpdatePurchaseOrder persists the header and reconciles the line set: lines with a
	// known ID are updated, lines with ID 0 are inserted (and assigned IDs), missing lines are removed.
	UpdatePurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	DeletePurchaseOrder(ctx context.Context, id int) error
	HasReceipts(ctx context.Context, poID int) (bool, error)

	// InsertReceipt appends an audit record, assigning ID and CreatedAt.
	InsertReceipt(ctx context.Context, gr *GoodsReceipt) error
}

// Store is the persistence boundary of the engine.
type Store interface {
	Reader
	Directory

	// WithTx runs fn in one transaction. A non-nil error from fn, a panic or a cancelled
	// context rolls back every write made through tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Locker provides the per-purchase-order mutual exclusion used by receiving and editing.
type Locker interface {
	// Lock blocks until key is held or the locker gives up. The returned function releases it.
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// Event is a notification emitted after a committed state change.
type Event struct {
	Type       string    `json:"type"`
	EntityID   int       `json:"entity_id"`
	Number     string    `json:"number"`
	Status     string    `json:"status"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventRequisitionCreated   = "requisition.created"
	EventRequisitionSubmitted = "requisition.submitted"
	EventRequisitionApproved  = "requisition.approved"
	EventRequisitionRejected  = "requisition.rejected"
	EventOrderCreated         = "purchase_order.created"
	EventOrderUpdated         = "purchase_order.updated"
	EventOrderStatusChanged   = "purchase_order.status_changed"
	EventOrderReceived        = "purchase_order.received"
)

// EventPublisher dispatches events to collaborators. It is always called after the
// transaction commits and after every lock is released.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

func orderLockKey(poID int) string {
	return "purchase_order:" + strconv.Itoa(poID)
}
