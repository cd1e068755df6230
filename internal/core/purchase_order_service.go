package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type purchaseOrderService struct {
	engine
}

// NewPurchaseOrderService constructs a PurchaseOrderService. locker guards each order
// against concurrent editing and receiving.
func NewPurchaseOrderService(store Store, locker Locker, events EventPublisher, log *zap.Logger) PurchaseOrderService {
	return &purchaseOrderService{engine: newEngine(store, locker, events, log)}
}

// CreateOrder creates a new purchase order with computed totals and zero received quantities.
func (s *purchaseOrderService) CreateOrder(ctx context.Context, actor Actor, input OrderInput) (*PurchaseOrder, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := validateOrderLines(input.Lines); err != nil {
		return nil, err
	}
	if _, err := s.resolveVendor(ctx, input.VendorID); err != nil {
		return nil, err
	}
	if input.ProjectID <= 0 {
		return nil, invalid("project_id", "project is required")
	}
	if _, err := s.store.GetProject(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	now := s.now()
	orderDate := input.Terms.OrderDate
	if orderDate.IsZero() {
		orderDate = now
	}
	status := PODraft
	if input.Issue {
		status = POSent
	}

	po := &PurchaseOrder{
		VendorID:         input.VendorID,
		ProjectID:        input.ProjectID,
		OrderDate:        dateOnly(orderDate),
		ExpectedDelivery: input.Terms.ExpectedDelivery,
		ShippingAddress:  input.Terms.ShippingAddress,
		PaymentTerms:     input.Terms.PaymentTerms,
		Notes:            input.Terms.Notes,
		Status:           status,
		CreatedBy:        actor.ID,
		Lines:            buildLines(input.Lines),
	}
	po.ComputeTotals()

	err := s.store.WithTx(ctx, func(tx Tx) error {
		number, err := tx.NextNumber(ctx, "PO", orderDate)
		if err != nil {
			return fmt.Errorf("assign purchase order number: %w", err)
		}
		po.Number = number
		return tx.InsertPurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase order created",
		zap.String("po_number", po.Number),
		zap.String("status", string(po.Status)),
		zap.String("total", po.TotalAmount.StringFixed(2)),
		zap.String("actor", actor.ID),
	)
	s.publish(ctx, Event{Type: EventOrderCreated, EntityID: po.ID, Number: po.Number, Status: string(po.Status), Actor: actor.ID})
	return po, nil
}

// GetOrder returns a purchase order by ID.
func (s *purchaseOrderService) GetOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return s.store.GetPurchaseOrder(ctx, id)
}

// ListOrders returns purchase orders matching filter.
func (s *purchaseOrderService) ListOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "unknown purchase order status %q", filter.Status)
	}
	return s.store.ListPurchaseOrders(ctx, filter)
}

// UpdateOrder replaces the vendor, terms and lines of an order that has not been received against.
// Lines matched by ID keep their received quantity; new lines start at zero.
func (s *purchaseOrderService) UpdateOrder(ctx context.Context, actor Actor, id int, update OrderUpdate) (*PurchaseOrder, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := validateOrderLines(update.Lines); err != nil {
		return nil, err
	}
	if update.VendorID != 0 {
		if _, err := s.resolveVendor(ctx, update.VendorID); err != nil {
			return nil, err
		}
	}

	var po *PurchaseOrder
	err := s.withOrderLock(ctx, id, func() error {
		return s.store.WithTx(ctx, func(tx Tx) error {
			current, err := tx.LockPurchaseOrder(ctx, id)
			if err != nil {
				return err
			}
			if !current.Status.Editable() {
				return &InvalidStateError{Entity: "purchase order", ID: id, Status: string(current.Status), Operation: "edited"}
			}

			lines := buildLines(update.Lines)
			seen := make(map[int]bool, len(update.Lines))
			for i, in := range update.Lines {
				if in.ID == 0 {
					continue
				}
				existing, ok := current.Line(in.ID)
				if !ok {
					return &NotFoundError{Entity: "purchase order line", ID: in.ID}
				}
				if seen[in.ID] {
					return invalid(fmt.Sprintf("lines[%d].id", i), "line %d listed twice", in.ID)
				}
				seen[in.ID] = true
				if in.OrderedQuantity.LessThan(existing.ReceivedQuantity) {
					return invalid(fmt.Sprintf("lines[%d].ordered_quantity", i),
						"ordered quantity %s is below already received %s", in.OrderedQuantity, existing.ReceivedQuantity)
				}
				lines[i].ID = existing.ID
				lines[i].ReceivedQuantity = existing.ReceivedQuantity
			}

			if update.VendorID != 0 {
				current.VendorID = update.VendorID
			}
			if !update.Terms.OrderDate.IsZero() {
				current.OrderDate = dateOnly(update.Terms.OrderDate)
			}
			current.ExpectedDelivery = update.Terms.ExpectedDelivery
			current.ShippingAddress = update.Terms.ShippingAddress
			current.PaymentTerms = update.Terms.PaymentTerms
			current.Notes = update.Terms.Notes
			current.Lines = lines
			current.ComputeTotals()
			current.UpdatedAt = s.now().UTC()

			if err := tx.UpdatePurchaseOrder(ctx, current); err != nil {
				return err
			}
			po = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase order updated",
		zap.String("po_number", po.Number),
		zap.Int("lines", len(po.Lines)),
		zap.String("total", po.TotalAmount.StringFixed(2)),
		zap.String("actor", actor.ID),
	)
	s.publish(ctx, Event{Type: EventOrderUpdated, EntityID: po.ID, Number: po.Number, Status: string(po.Status), Actor: actor.ID})
	return po, nil
}

// IssueOrder moves a draft order to sent. A vendor must be assigned.
func (s *purchaseOrderService) IssueOrder(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error) {
	return s.transition(ctx, actor, id, POSent, "issued")
}

// ConfirmOrder moves a sent order to confirmed.
func (s *purchaseOrderService) ConfirmOrder(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error) {
	return s.transition(ctx, actor, id, POConfirmed, "confirmed")
}

// StartProcessing moves a confirmed order to processing.
func (s *purchaseOrderService) StartProcessing(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error) {
	return s.transition(ctx, actor, id, POProcessing, "processed")
}

// CancelOrder moves any non-terminal order to cancelled without reversing receipts.
func (s *purchaseOrderService) CancelOrder(ctx context.Context, actor Actor, id int) (*PurchaseOrder, error) {
	return s.transition(ctx, actor, id, POCancelled, "cancelled")
}

func (s *purchaseOrderService) transition(ctx context.Context, actor Actor, id int, to POStatus, op string) (*PurchaseOrder, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}

	var po *PurchaseOrder
	var from POStatus
	err := s.withOrderLock(ctx, id, func() error {
		return s.store.WithTx(ctx, func(tx Tx) error {
			current, err := tx.LockPurchaseOrder(ctx, id)
			if err != nil {
				return err
			}
			if !current.Status.CanTransitionTo(to) {
				return &InvalidStateError{Entity: "purchase order", ID: id, Status: string(current.Status), Operation: op}
			}
			if to == POSent && current.VendorID == 0 {
				return invalid("vendor_id", "purchase order %s has no vendor assigned", current.Number)
			}
			from = current.Status
			current.Status = to
			current.UpdatedAt = s.now().UTC()
			if err := tx.UpdatePurchaseOrder(ctx, current); err != nil {
				return err
			}
			po = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase order transitioned",
		zap.String("po_number", po.Number),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.ID),
	)
	s.publish(ctx, Event{Type: EventOrderStatusChanged, EntityID: po.ID, Number: po.Number, Status: string(po.Status), Actor: actor.ID})
	return po, nil
}

// DeleteOrder removes an order. Orders with any receipt are never deleted.
func (s *purchaseOrderService) DeleteOrder(ctx context.Context, actor Actor, id int) error {
	if err := actor.validate(); err != nil {
		return err
	}
	err := s.withOrderLock(ctx, id, func() error {
		return s.store.WithTx(ctx, func(tx Tx) error {
			po, err := tx.LockPurchaseOrder(ctx, id)
			if err != nil {
				return err
			}
			received, err := tx.HasReceipts(ctx, id)
			if err != nil {
				return err
			}
			if received {
				return &ConflictError{Message: fmt.Sprintf("purchase order %s has recorded receipts", po.Number)}
			}
			if po.Status != PODraft && po.Status != POCancelled {
				return &InvalidStateError{Entity: "purchase order", ID: id, Status: string(po.Status), Operation: "deleted"}
			}
			return tx.DeletePurchaseOrder(ctx, id)
		})
	})
	if err != nil {
		return err
	}
	s.log.Info("purchase order deleted", zap.Int("purchase_order_id", id), zap.String("actor", actor.ID))
	return nil
}
